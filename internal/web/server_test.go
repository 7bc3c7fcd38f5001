package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasthagit2025/checkdv/internal/config"
	"github.com/aasthagit2025/checkdv/internal/core"
	"github.com/aasthagit2025/checkdv/internal/metrics"
	"github.com/aasthagit2025/checkdv/internal/source"
)

const (
	testData = "RespondentID,Q1,Q2\n1,3,\n2,9,x\n3,2,\n"
	// Q2 is asked only when Q1 > 2.
	testRules = "Question,Check_Type,Condition\nQ1,Range,1-5\nQ2,Skip,If Q1 > 2 then Q2\n"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 30 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       30 * time.Second,
		},
		Rate:     config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100},
		Security: config.SecurityConfig{EnableCSP: true},
		Validation: config.ValidationConfig{
			OpenEndMinLength:   3,
			Workers:            2,
			RespondentIDColumn: "RespondentID",
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, opts Options) *Server {
	t.Helper()
	service := core.NewService(core.NewValidator(core.Options{}), core.NewRunLimiter(2, time.Second), nil)
	s := NewServer(cfg, service, opts)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

// multipartBody builds a form with one file part per entry of files
// (field name -> filename, content).
func multipartBody(t *testing.T, files map[string][2]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, f := range files {
		part, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestCheckTypes(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/check-types", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []checkTypeInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, len(core.AllCheckTypes()))
	assert.Equal(t, "Range", got[0].Name)
	for _, info := range got {
		assert.NotEmpty(t, info.Condition, info.Name)
	}
}

func TestRunStatus(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/runs/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":0`)
}

func TestValidate_CSV(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})
	body, ct := multipartBody(t, map[string][2]string{
		fieldData:  {"survey.csv", testData},
		fieldRules: {"rules.csv", testRules},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "violations.csv")

	want := "RespondentID,Question,Check_Type,Issue\n" +
		"2,Q1,Range,Value out of range (1-5)\n" +
		"1,Q2,Skip,Blank but should be answered\n"
	assert.Equal(t, want, rec.Body.String())
}

func TestValidate_JSON(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})
	body, ct := multipartBody(t, map[string][2]string{
		fieldData:  {"survey.csv", testData},
		fieldRules: {"rules.yaml", "rules:\n  - question: Q1\n    checks:\n      - type: Range\n        condition: 1-5\n"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/validate?format=json", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res core.RunResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, rec.Header().Get("X-Run-ID"), res.RunID)
	assert.Equal(t, 3, res.Respondents)
	assert.Equal(t, 1, res.Rules)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "2", *res.Violations[0].RespondentID)
	assert.Equal(t, 1, res.Summary.ByCheckType["Range"])
}

func TestValidate_CustomIDColumn(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})
	body, ct := multipartBody(t, map[string][2]string{
		fieldData:  {"survey.csv", "Resp,Q1\nA,7\n"},
		fieldRules: {"rules.csv", "Question,Check_Type,Condition\nQ1,Range,1-5\n"},
	}, map[string]string{"id_column": "Resp"})

	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "A,Q1,Range,Value out of range (1-5)")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string][2]string
		query      string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing data file",
			files:      map[string][2]string{fieldRules: {"rules.csv", testRules}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name:       "missing rule file",
			files:      map[string][2]string{fieldData: {"survey.csv", testData}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name: "unsupported rule file",
			files: map[string][2]string{
				fieldData:  {"survey.csv", testData},
				fieldRules: {"rules.xlsx", "junk"},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE003",
		},
		{
			name: "missing respondent id column",
			files: map[string][2]string{
				fieldData:  {"survey.csv", "ID,Q1\n1,2\n"},
				fieldRules: {"rules.csv", testRules},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "DATA001",
		},
		{
			name: "duplicate respondent id",
			files: map[string][2]string{
				fieldData:  {"survey.csv", "RespondentID,Q1\n1,2\n1,3\n"},
				fieldRules: {"rules.csv", testRules},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "DATA002",
		},
		{
			name: "rule table without question column",
			files: map[string][2]string{
				fieldData:  {"survey.csv", testData},
				fieldRules: {"rules.csv", "Check_Type,Condition\nRange,1-5\n"},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "RULE001",
		},
		{
			name: "bad report format",
			files: map[string][2]string{
				fieldData:  {"survey.csv", testData},
				fieldRules: {"rules.csv", testRules},
			},
			query:      "?format=xml",
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(), Options{})
			body, ct := multipartBody(t, tt.files, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/validate"+tt.query, body)
			req.Header.Set("Content-Type", ct)
			rec := do(t, s, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestValidate_NotMultipart(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", decodeError(t, rec).Code)
}

func TestValidate_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	s := newTestServer(t, cfg, Options{})
	body, ct := multipartBody(t, map[string][2]string{
		fieldData:  {"survey.csv", strings.Repeat("RespondentID,Q1\n", 50)},
		fieldRules: {"rules.csv", testRules},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

// fakeTables serves datasets from memory.
type fakeTables struct {
	available bool
	tables    map[string]*core.Dataset
	gotOpts   source.DataOptions
}

func (f *fakeTables) Available() bool { return f.available }

func (f *fakeTables) LoadTable(_ context.Context, table string, opts source.DataOptions) (*core.Dataset, error) {
	f.gotOpts = opts
	ds, ok := f.tables[table]
	if !ok {
		return nil, errors.New(`load table: relation "` + table + `" does not exist`)
	}
	return ds, nil
}

func TestValidateTable(t *testing.T) {
	ds, err := core.NewDataset([]string{"RespondentID", "Q1"}, [][]core.Value{
		{core.Text("1"), core.Number(4)},
		{core.Text("2"), core.Number(8)},
	})
	require.NoError(t, err)
	tables := &fakeTables{available: true, tables: map[string]*core.Dataset{"wave1": ds}}
	s := newTestServer(t, testConfig(), Options{Tables: tables})

	body, ct := multipartBody(t, map[string][2]string{
		fieldRules: {"rules.csv", "Question,Check_Type,Condition\nQ1,Range,1-5\n"},
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/tables/wave1/validate", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "2,Q1,Range,Value out of range (1-5)")
	assert.Equal(t, "RespondentID", tables.gotOpts.IDColumn)
}

func TestValidateTable_NotFound(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{Tables: &fakeTables{available: true}})

	body, ct := multipartBody(t, map[string][2]string{
		fieldRules: {"rules.csv", testRules},
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/tables/nope/validate", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)

	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "RUN005", decodeError(t, rec).Code)
}

func TestValidateTable_Unavailable(t *testing.T) {
	for name, tables := range map[string]TableSource{
		"not configured": nil,
		"unavailable":    &fakeTables{available: false},
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, testConfig(), Options{Tables: tables})

			body, ct := multipartBody(t, map[string][2]string{
				fieldRules: {"rules.csv", testRules},
			}, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/tables/wave1/validate", body)
			req.Header.Set("Content-Type", ct)
			rec := do(t, s, req)

			require.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "RUN004", decodeError(t, rec).Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg, Options{})

	for i := 0; i < 2; i++ {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	service := core.NewService(core.NewValidator(core.Options{}), nil, rec)
	s := NewServer(testConfig(), service, Options{Metrics: reg})
	t.Cleanup(func() { s.Shutdown(context.Background()) })

	body, ct := multipartBody(t, map[string][2]string{
		fieldData:  {"survey.csv", testData},
		fieldRules: {"rules.csv", testRules},
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", ct)
	require.Equal(t, http.StatusOK, do(t, s, req).Code)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `checkdv_runs_total{status="ok"} 1`)
	assert.Contains(t, resp.Body.String(), `checkdv_violations_total{check_type="Range"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{core.ErrTooManyRuns, http.StatusServiceUnavailable},
		{source.ErrNoDataSource, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, 499},
		{core.ErrInvalidDataset, http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, runStatus(tt.err), tt.err.Error())
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)
	defer rl.stop()

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "limits are per client")

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.allow("a"), "window reset")

	rl.stop() // idempotent
}

func TestPlanEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), Options{})
	body, ct := multipartBody(t, map[string][2]string{
		fieldData:  {"survey.csv", testData},
		fieldRules: {"rules.csv", testRules + "QX,Missing,\n"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/plan", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var plan core.PlanResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&plan))
	assert.Equal(t, 3, plan.Summary.Rules)
	assert.Equal(t, 1, plan.Summary.GatedColumns)
	assert.Equal(t, 1, plan.Summary.Problems)
	assert.Equal(t, 2, plan.Rules[1].Checks[0].Applicable)
}
