package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset(t *testing.T) {
	ds := newTestDataset(t,
		[]string{"RespondentID", "Q1", "Q2"},
		[]string{"1", "3", ""},
		[]string{"2", "x"},
	)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "RespondentID", ds.IDColumn())
	assert.Equal(t, []string{"RespondentID", "Q1", "Q2"}, ds.Columns())
	assert.True(t, ds.HasColumn("Q2"))
	assert.False(t, ds.HasColumn("Q3"))
	assert.Equal(t, "2", ds.RespondentID(1))

	q2, ok := ds.Column("Q2")
	require.True(t, ok)
	assert.True(t, q2[0].IsNull())
	assert.True(t, q2[1].IsNull(), "short rows are padded")

	assert.Equal(t, "x", ds.Value(1, "Q1").String())
	assert.True(t, ds.Value(0, "nope").IsNull())
}

func TestNewDataset_Errors(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		rows    [][]Value
		wantMsg string
	}{
		{
			name:    "missing id column",
			header:  []string{"Q1"},
			wantMsg: "missing RespondentID column",
		},
		{
			name:    "duplicate column",
			header:  []string{"RespondentID", "Q1", "Q1"},
			wantMsg: "duplicate column",
		},
		{
			name:    "blank id",
			header:  []string{"RespondentID", "Q1"},
			rows:    [][]Value{{Null(), Number(1)}},
			wantMsg: "blank RespondentID",
		},
		{
			name:    "duplicate id",
			header:  []string{"RespondentID"},
			rows:    [][]Value{{Number(1)}, {Text("1")}},
			wantMsg: "duplicate RespondentID",
		},
		{
			name:    "long row",
			header:  []string{"RespondentID"},
			rows:    [][]Value{{Number(1), Number(2)}},
			wantMsg: "2 values for 1 columns",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataset(tt.header, tt.rows)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDataset)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNewDatasetWithID(t *testing.T) {
	ds, err := NewDatasetWithID("resp", []string{"resp", "Q1"}, [][]Value{{Text("a"), Number(1)}})
	require.NoError(t, err)
	assert.Equal(t, "resp", ds.IDColumn())
	assert.Equal(t, "a", ds.RespondentID(0))
}
