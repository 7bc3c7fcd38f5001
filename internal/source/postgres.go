package source

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aasthagit2025/checkdv/internal/core"
	"github.com/aasthagit2025/checkdv/internal/logging"
)

// ErrNoDataSource is returned when a table load is requested but no
// database is configured.
var ErrNoDataSource = errors.New("data source unavailable")

// Querier is the subset of pgxpool.Pool and pgx.Conn used to load tables.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres loads survey tables from PostgreSQL.
type Postgres struct {
	db Querier
}

// NewPostgres wraps a pool or connection. A nil db yields a source whose
// loads fail with ErrNoDataSource.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

// Available reports whether a database is configured.
func (p *Postgres) Available() bool {
	return p != nil && p.db != nil
}

// LoadTable reads every row of table into a dataset. table may be
// schema-qualified ("survey.wave1").
func (p *Postgres) LoadTable(ctx context.Context, table string, opts DataOptions) (*core.Dataset, error) {
	if !p.Available() {
		return nil, ErrNoDataSource
	}
	ident, err := parseTableName(table)
	if err != nil {
		return nil, err
	}

	log := logging.WithFields(ctx, "source", "postgres", "table", table)
	log.Debug("loading dataset")

	rows, err := p.db.Query(ctx, "SELECT * FROM "+ident.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var data [][]core.Value
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make([]core.Value, len(vals))
		for i, v := range vals {
			row[i] = valueFromAny(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	ds, err := core.NewDatasetWithID(opts.idColumn(), columns, data)
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded", "respondents", ds.Len(), "columns", len(columns))
	return ds, nil
}

// parseTableName splits "schema.table" into a pgx identifier.
func parseTableName(table string) (pgx.Identifier, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("table name is required")
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return pgx.Identifier(parts), nil
}

// valueFromAny converts a driver value into a survey cell. Integers keep
// their exact text so ids beyond float64 precision stay distinct.
func valueFromAny(v any) core.Value {
	switch x := v.(type) {
	case nil:
		return core.Null()
	case string:
		return core.ParseValue(x)
	case []byte:
		return core.ParseValue(string(x))
	case int:
		return core.ParseValue(strconv.FormatInt(int64(x), 10))
	case int8:
		return core.ParseValue(strconv.FormatInt(int64(x), 10))
	case int16:
		return core.ParseValue(strconv.FormatInt(int64(x), 10))
	case int32:
		return core.ParseValue(strconv.FormatInt(int64(x), 10))
	case int64:
		return core.ParseValue(strconv.FormatInt(x, 10))
	case uint8:
		return core.ParseValue(strconv.FormatUint(uint64(x), 10))
	case uint16:
		return core.ParseValue(strconv.FormatUint(uint64(x), 10))
	case uint32:
		return core.ParseValue(strconv.FormatUint(uint64(x), 10))
	case uint64:
		return core.ParseValue(strconv.FormatUint(x, 10))
	case float32:
		return core.Number(float64(x))
	case float64:
		return core.Number(x)
	case bool:
		if x {
			return core.Number(1)
		}
		return core.Number(0)
	case time.Time:
		return core.Text(x.Format(time.RFC3339))
	case pgtype.Numeric:
		if !x.Valid || x.NaN {
			return core.Null()
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return core.Null()
		}
		return core.Number(f.Float64)
	case *big.Int:
		return core.ParseValue(x.String())
	case [16]byte:
		return core.Text(uuid.UUID(x).String())
	case fmt.Stringer:
		return core.ParseValue(x.String())
	default:
		return core.ParseValue(fmt.Sprint(x))
	}
}
