package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestDataset builds a dataset from raw cell text. Empty strings become
// Null.
func newTestDataset(t *testing.T, header []string, rows ...[]string) *Dataset {
	t.Helper()
	vals := make([][]Value, len(rows))
	for i, row := range rows {
		vals[i] = make([]Value, len(row))
		for j, cell := range row {
			vals[i][j] = ParseValue(cell)
		}
	}
	ds, err := NewDataset(header, vals)
	require.NoError(t, err)
	return ds
}

func rule(question, checks, conds string) Rule {
	return ParseRule(RuleRow{Question: question, CheckType: checks, Condition: conds})
}

// flat renders violations as "id|question|check|issue" with "-" for rule-level
// records.
func flat(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		id := "-"
		if v.RespondentID != nil {
			id = *v.RespondentID
		}
		out[i] = id + "|" + v.Question + "|" + v.CheckType + "|" + v.Issue
	}
	return out
}

func validate(t *testing.T, ds *Dataset, rules ...Rule) []Violation {
	t.Helper()
	return NewValidator(Options{}).Validate(ds, rules)
}
