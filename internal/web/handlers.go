package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aasthagit2025/checkdv/internal/core"
	"github.com/aasthagit2025/checkdv/internal/report"
	"github.com/aasthagit2025/checkdv/internal/source"
)

// Multipart field names.
const (
	fieldData  = "data"
	fieldRules = "rules"
)

var errNoFile = errors.New("no file provided")

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

// checkTypeInfo describes one supported check for API clients.
type checkTypeInfo struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
}

var checkConditionHelp = map[core.CheckType]string{
	core.CheckRange:         "min-max, e.g. 1-5",
	core.CheckMissing:       "none",
	core.CheckSkip:          "if <column> <op> <value> [and|or ...] then <target>",
	core.CheckMultiSelect:   "none",
	core.CheckStraightliner: "none",
	core.CheckDuplicate:     "none",
	core.CheckOpenEndJunk:   "optional minimum length, e.g. 5",
}

// handleCheckTypes lists the supported check types.
func (s *Server) handleCheckTypes(w http.ResponseWriter, r *http.Request) {
	types := core.AllCheckTypes()
	out := make([]checkTypeInfo, len(types))
	for i, ct := range types {
		out[i] = checkTypeInfo{Name: ct.String(), Condition: checkConditionHelp[ct]}
	}
	writeJSON(w, r, out)
}

// handleRunStatus reports validation slot usage.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.LimiterStatus())
}

// handleValidate validates an uploaded data file against an uploaded rule
// file. Form fields: data (CSV), rules (CSV or YAML), optional id_column and
// encoding. Query: format=csv|json.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ds, rules, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, runStatus(err))
		return
	}
	s.run(w, r, ds, rules, format)
}

// handlePlan resolves an uploaded rule file against an uploaded data file
// without running the checks. Takes the same form fields as handleValidate.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	ds, rules, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, runStatus(err))
		return
	}
	plan, err := s.service.Plan(WithRequestMetadata(r.Context(), r), ds, rules)
	if err != nil {
		respondError(w, r, err, runStatus(err))
		return
	}
	writeJSON(w, r, plan)
}

// readUpload parses the multipart form and loads both uploaded files.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*core.Dataset, []core.Rule, error) {
	if err := s.parseForm(w, r); err != nil {
		return nil, nil, err
	}

	rules, err := readRulesField(r)
	if err != nil {
		return nil, nil, err
	}

	file, _, err := r.FormFile(fieldData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", errNoFile, fieldData)
	}
	defer file.Close()

	ds, err := source.ReadDataset(file, s.dataOptions(r))
	if err != nil {
		return nil, nil, err
	}
	return ds, rules, nil
}

// handleValidateTable validates a database table against an uploaded rule
// file.
func (s *Server) handleValidateTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if s.tables == nil || !s.tables.Available() {
		respondError(w, r, source.ErrNoDataSource, http.StatusServiceUnavailable)
		return
	}
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, runStatus(err))
		return
	}

	rules, err := readRulesField(r)
	if err != nil {
		respondError(w, r, err, runStatus(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	ds, err := s.tables.LoadTable(ctx, table, s.dataOptions(r))
	if err != nil {
		status := runStatus(err)
		if status == http.StatusBadRequest && !errors.Is(err, core.ErrInvalidDataset) {
			status = http.StatusNotFound
		}
		respondError(w, r, err, status)
		return
	}

	s.run(w, r, ds, rules, format)
}

// run executes a validation and writes the report.
func (s *Server) run(w http.ResponseWriter, r *http.Request, ds *core.Dataset, rules []core.Rule, format string) {
	ctx, cancel := context.WithTimeout(WithRequestMetadata(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	res, err := s.service.Run(ctx, ds, rules)
	if err != nil {
		respondError(w, r, err, runStatus(err))
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("X-Run-ID", res.RunID)
	if format == report.FormatCSV {
		w.Header().Set("Content-Disposition", `attachment; filename="violations.csv"`)
	}
	if err := report.Write(w, format, res); err != nil {
		// Headers are gone; all that is left is to log.
		respondLogOnly(r, err)
	}
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("file too large: %w", err)
		}
		// Some multipart paths flatten the body error into text.
		if strings.Contains(err.Error(), "request body too large") {
			return fmt.Errorf("file too large: %w", &http.MaxBytesError{Limit: maxSize})
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("%w: expected multipart/form-data", errNoFile)
		}
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}

func (s *Server) dataOptions(r *http.Request) source.DataOptions {
	opts := source.DataOptions{
		IDColumn: s.cfg.Validation.RespondentIDColumn,
		Encoding: r.FormValue("encoding"),
	}
	if id := strings.TrimSpace(r.FormValue("id_column")); id != "" {
		opts.IDColumn = id
	}
	return opts
}

func readRulesField(r *http.Request) ([]core.Rule, error) {
	file, header, err := r.FormFile(fieldRules)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errNoFile, fieldRules)
	}
	defer file.Close()
	return source.ReadRules(header.Filename, file)
}
