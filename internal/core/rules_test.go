package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCheckType(t *testing.T) {
	tests := []struct {
		in   string
		want CheckType
		ok   bool
	}{
		{"Range", CheckRange, true},
		{" range ", CheckRange, true},
		{"MISSING", CheckMissing, true},
		{"Skip", CheckSkip, true},
		{"Multi-Select", CheckMultiSelect, true},
		{"multi select", CheckMultiSelect, true},
		{"MultiSelect", CheckMultiSelect, true},
		{"Straightliner", CheckStraightliner, true},
		{"Duplicate", CheckDuplicate, true},
		{"OpenEnd_Junk", CheckOpenEndJunk, true},
		{"open-end-junk", CheckOpenEndJunk, true},
		{"Logic", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCheckType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckType_String(t *testing.T) {
	names := make([]string, 0, len(AllCheckTypes()))
	for _, ct := range AllCheckTypes() {
		names = append(names, ct.String())
	}
	assert.Equal(t, []string{"Range", "Missing", "Skip", "Multi-Select", "Straightliner", "Duplicate", "OpenEnd_Junk"}, names)
	assert.Equal(t, "CheckType(99)", CheckType(99).String())
}

func TestParseRule(t *testing.T) {
	r := ParseRule(RuleRow{
		Question:  " Q1 ",
		CheckType: "Range; Missing ;Bogus;Skip",
		Condition: "1-5;;;if Q0 = 1 then Q1",
	})

	assert.Equal(t, "Q1", r.Question)
	assert.Equal(t, []string{"Bogus"}, r.Unknown)
	require.Len(t, r.Checks, 3)

	rc, ok := r.Checks[0].(RangeCheck)
	require.True(t, ok)
	assert.NoError(t, rc.Err)
	assert.Equal(t, 1.0, rc.Min)
	assert.Equal(t, 5.0, rc.Max)

	assert.Equal(t, CheckMissing, r.Checks[1].Type())

	sc, ok := r.Checks[2].(SkipCheck)
	require.True(t, ok)
	assert.True(t, sc.Rule.Gated)
	assert.Equal(t, "if Q0 = 1 then Q1", sc.Condition())
}

func TestParseRule_ShortConditionList(t *testing.T) {
	r := ParseRule(RuleRow{Question: "Q1", CheckType: "Missing;Range", Condition: ""})
	require.Len(t, r.Checks, 2)
	rc := r.Checks[1].(RangeCheck)
	assert.Error(t, rc.Err, "range without bounds is invalid")
}

func TestParseRules_KeepsOrder(t *testing.T) {
	rules := ParseRules([]RuleRow{
		{Question: "A", CheckType: "Missing"},
		{Question: "B", CheckType: "Duplicate"},
	})
	require.Len(t, rules, 2)
	assert.Equal(t, "A", rules[0].Question)
	assert.Equal(t, "B", rules[1].Question)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		lo, hi  float64
		wantErr bool
	}{
		{"1-5", 1, 5, false},
		{" 1 - 5 ", 1, 5, false},
		{"0.5-2.5", 0.5, 2.5, false},
		{"-5--1", -5, -1, false},
		{"-3-3", -3, 3, false},
		{"3-3", 3, 3, false},
		{"5-1", 0, 0, true},
		{"abc", 0, 0, true},
		{"1-", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, err := ParseRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestNewCheck_OpenEndThreshold(t *testing.T) {
	c := NewCheck(CheckOpenEndJunk, "5").(OpenEndCheck)
	assert.Equal(t, 5, c.MinLength)
	assert.NoError(t, c.Err)

	c = NewCheck(CheckOpenEndJunk, "").(OpenEndCheck)
	assert.Equal(t, 0, c.MinLength)
	assert.NoError(t, c.Err)

	c = NewCheck(CheckOpenEndJunk, "short").(OpenEndCheck)
	assert.Error(t, c.Err)
}
