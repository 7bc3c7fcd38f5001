package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/aasthagit2025/checkdv/internal/core"
)

// ReadDataset reads a respondent-per-row CSV export. The header row names
// the columns; blank cells become null values and numeric-looking cells
// become numbers.
func ReadDataset(r io.Reader, opts DataOptions) (*core.Dataset, error) {
	dr, err := decodingReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dr)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("data: %w", ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("data header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = CleanCell(h)
	}

	var rows [][]core.Value
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		if isBlankRecord(rec) {
			continue
		}
		row := make([]core.Value, len(rec))
		for i, cell := range rec {
			row[i] = core.ParseValue(CleanCell(cell))
		}
		rows = append(rows, row)
	}

	return core.NewDatasetWithID(opts.idColumn(), columns, rows)
}

// ReadRuleTable reads a CSV rule table with Question, Check_Type and
// optional Condition columns, matched case-insensitively. Rows with a blank
// question are skipped.
func ReadRuleTable(r io.Reader) ([]core.RuleRow, error) {
	dr, err := decodingReader(r, EncodingUTF8)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dr)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("rules: %w", ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("rules header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[headerKey(h)] = i
	}
	qCol, ok := lookupHeader(idx, "question")
	if !ok {
		return nil, errors.New("rule table missing Question column")
	}
	ctCol, ok := lookupHeader(idx, "check_type", "checktype", "check")
	if !ok {
		return nil, errors.New("rule table missing Check_Type column")
	}
	condCol, hasCond := lookupHeader(idx, "condition", "conditions")

	var rows []core.RuleRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rules: %w", err)
		}
		row := core.RuleRow{
			Question:  field(rec, qCol),
			CheckType: field(rec, ctCol),
		}
		if hasCond {
			row.Condition = field(rec, condCol)
		}
		if row.Question == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func lookupHeader(idx map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return CleanCell(rec[i])
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if CleanCell(c) != "" {
			return false
		}
	}
	return true
}
