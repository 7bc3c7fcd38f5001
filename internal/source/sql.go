package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/aasthagit2025/checkdv/internal/core"
	"github.com/aasthagit2025/checkdv/internal/logging"
)

// OpenSQLite opens a SQLite database file read-only.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// LoadSQLTable reads every row of table from a database/sql handle.
func LoadSQLTable(ctx context.Context, db *sql.DB, table string, opts DataOptions) (*core.Dataset, error) {
	ident, err := parseTableName(table)
	if err != nil {
		return nil, err
	}

	log := logging.WithFields(ctx, "source", "sql", "table", table)
	log.Debug("loading dataset")

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+ident.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}

	var data [][]core.Value
	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make([]core.Value, len(columns))
		for i, v := range raw {
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
