package core

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultIDColumn is the column that uniquely identifies a respondent.
const DefaultIDColumn = "RespondentID"

// ErrInvalidDataset is returned when a dataset cannot be validated at all:
// no respondent id column, or ids that are blank or repeated.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is a read-only, column-major table of respondent answers.
// It is safe for concurrent readers.
type Dataset struct {
	idColumn string
	columns  []string
	index    map[string]int
	ids      []string
	cells    [][]Value // cells[col][row]
}

// NewDataset builds a dataset from a header and row-major values, keyed by
// DefaultIDColumn. See NewDatasetWithID.
func NewDataset(columns []string, rows [][]Value) (*Dataset, error) {
	return NewDatasetWithID(DefaultIDColumn, columns, rows)
}

// NewDatasetWithID builds a dataset keyed by idColumn. Short rows are padded
// with Null; rows longer than the header are rejected. Every respondent id
// must be non-blank and unique.
func NewDatasetWithID(idColumn string, columns []string, rows [][]Value) (*Dataset, error) {
	if idColumn == "" {
		idColumn = DefaultIDColumn
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidDataset, c)
		}
		index[c] = i
	}

	idPos, ok := index[idColumn]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s column", ErrInvalidDataset, idColumn)
	}

	cells := make([][]Value, len(columns))
	for i := range cells {
		cells[i] = make([]Value, len(rows))
	}

	ids := make([]string, len(rows))
	seen := make(map[string]int, len(rows))
	for r, row := range rows {
		if len(row) > len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns",
				ErrInvalidDataset, r+1, len(row), len(columns))
		}
		for c, v := range row {
			cells[c][r] = v
		}

		var id string
		if idPos < len(row) {
			id = strings.TrimSpace(row[idPos].String())
		}
		if id == "" {
			return nil, fmt.Errorf("%w: row %d has a blank %s", ErrInvalidDataset, r+1, idColumn)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate %s %q on rows %d and %d",
				ErrInvalidDataset, idColumn, id, prev+1, r+1)
		}
		seen[id] = r
		ids[r] = id
	}

	cols := make([]string, len(columns))
	copy(cols, columns)

	return &Dataset{
		idColumn: idColumn,
		columns:  cols,
		index:    index,
		ids:      ids,
		cells:    cells,
	}, nil
}

// Len returns the number of respondents.
func (d *Dataset) Len() int { return len(d.ids) }

// IDColumn returns the name of the respondent id column.
func (d *Dataset) IDColumn() string { return d.idColumn }

// Columns returns the column names in dataset order. The slice must not be
// modified.
func (d *Dataset) Columns() []string { return d.columns }

// HasColumn reports whether the dataset contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns the values of the named column in respondent order.
// The slice must not be modified.
func (d *Dataset) Column(name string) ([]Value, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cells[i], true
}

// RespondentID returns the id of the respondent at row.
func (d *Dataset) RespondentID(row int) string { return d.ids[row] }

// Value returns the cell at (row, column), or Null if the column is unknown.
func (d *Dataset) Value(row int, column string) Value {
	i, ok := d.index[column]
	if !ok {
		return Null()
	}
	return d.cells[i][row]
}
