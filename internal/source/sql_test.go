package source

import (
	"database/sql"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasthagit2025/checkdv/internal/core"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadSQLTable(t *testing.T) {
	db := openMemory(t)
	ctx := t.Context()

	_, err := db.ExecContext(ctx, `CREATE TABLE wave1 ("RespondentID" TEXT, "Q1" INTEGER, "Q2" REAL, "OE" TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO wave1 VALUES ('r1', 3, 2.5, 'fine'), ('r2', NULL, NULL, '')`)
	require.NoError(t, err)

	ds, err := LoadSQLTable(ctx, db, "wave1", DataOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"RespondentID", "Q1", "Q2", "OE"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "r1", ds.RespondentID(0))

	f, ok := ds.Value(0, "Q2").Float()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
	assert.True(t, ds.Value(1, "Q1").IsNull())
	assert.True(t, ds.Value(1, "OE").IsBlank())
}

func TestLoadSQLTable_ValidatesEndToEnd(t *testing.T) {
	db := openMemory(t)
	ctx := t.Context()

	_, err := db.ExecContext(ctx, `CREATE TABLE s ("RespondentID" INTEGER, "Q1" INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO s VALUES (1, 9), (2, 1)`)
	require.NoError(t, err)

	ds, err := LoadSQLTable(ctx, db, "s", DataOptions{})
	require.NoError(t, err)

	vs := core.NewValidator(core.Options{}).Validate(ds, core.ParseRules([]core.RuleRow{
		{Question: "Q1", CheckType: "Range", Condition: "1-5"},
	}))
	require.Len(t, vs, 1)
	assert.Equal(t, "1", *vs[0].RespondentID)
}

func TestLoadSQLTable_LargeIntegerIDs(t *testing.T) {
	db := openMemory(t)
	ctx := t.Context()

	_, err := db.ExecContext(ctx, `CREATE TABLE big ("RespondentID" INTEGER, "Q1" INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO big VALUES (9007199254740992, 1), (9007199254740993, 2)`)
	require.NoError(t, err)

	ds, err := LoadSQLTable(ctx, db, "big", DataOptions{})
	require.NoError(t, err)

	assert.Equal(t, "9007199254740992", ds.RespondentID(0))
	assert.Equal(t, "9007199254740993", ds.RespondentID(1))
}

func TestLoadSQLTable_Errors(t *testing.T) {
	db := openMemory(t)

	_, err := LoadSQLTable(t.Context(), db, "missing", DataOptions{})
	require.Error(t, err)
	assert.Equal(t, "RUN005", core.MapError(err).Code)

	_, err = LoadSQLTable(t.Context(), db, "", DataOptions{})
	assert.Error(t, err)

	_, err = LoadSQLTable(t.Context(), db, "a.b.c", DataOptions{})
	assert.Error(t, err)
}

func TestParseTableName(t *testing.T) {
	id, err := parseTableName("survey.wave1")
	require.NoError(t, err)
	assert.Equal(t, `"survey"."wave1"`, id.Sanitize())

	id, err = parseTableName(`we"ird`)
	require.NoError(t, err)
	assert.Equal(t, `"we""ird"`, id.Sanitize())

	_, err = parseTableName("survey.")
	assert.Error(t, err)
}

func TestValueFromAny(t *testing.T) {
	num := func(f float64) core.Value { return core.Number(f) }
	tests := []struct {
		name string
		in   any
		want string
		kind core.Kind
	}{
		{"nil", nil, "", core.KindNull},
		{"string number", "4", "4", core.KindNumber},
		{"string text", "yes", "yes", core.KindText},
		{"bytes", []byte("7"), "7", core.KindNumber},
		{"int64", int64(12), "12", core.KindNumber},
		{"int32", int32(-3), "-3", core.KindNumber},
		{"float", 2.25, "2.25", core.KindNumber},
		{"bool", true, "1", core.KindNumber},
		{"time", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "2024-05-01T00:00:00Z", core.KindText},
		{"numeric", pgtype.Numeric{Int: big.NewInt(125), Exp: -2, Valid: true}, num(1.25).String(), core.KindNumber},
		{"null numeric", pgtype.Numeric{}, "", core.KindNull},
		{"big int", big.NewInt(42), "42", core.KindNumber},
		{"int64 beyond float precision", int64(9007199254740993), "9007199254740993", core.KindNumber},
		{"uint64", uint64(18446744073709551615), "18446744073709551615", core.KindNumber},
		{"uuid", [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}, "12345678-9abc-def0-1234-56789abcdef0", core.KindText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valueFromAny(tt.in)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestPostgres_Unavailable(t *testing.T) {
	var p *Postgres
	assert.False(t, p.Available())

	_, err := NewPostgres(nil).LoadTable(t.Context(), "wave1", DataOptions{})
	assert.ErrorIs(t, err, ErrNoDataSource)
	assert.Equal(t, "RUN004", core.MapError(err).Code)
}
