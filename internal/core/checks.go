package core

// checks.go holds the individual check routines. Each routine reads the
// resolved columns of one question, consults the applicability mask, and
// appends to the sink it is given. None of them fails: a column set that
// resolved to nothing simply produces no findings.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Issue texts shared with reports and tests.
const (
	IssueBlankShouldAnswer  = "Blank but should be answered"
	IssueAnsweredShouldSkip = "Answered but should be skipped"
	IssueMissing            = "Missing value"
	IssueNoOptionsSelected  = "No options selected"
)

func checkRange(ds *Dataset, cols []string, app *Applicability, c RangeCheck, out *Sink) {
	if c.Err != nil {
		for _, col := range cols {
			out.ruleLevel(col, CheckRange.String(), fmt.Sprintf("Invalid range condition (%s)", c.Raw))
		}
		return
	}

	bounds := formatNumber(c.Min) + "-" + formatNumber(c.Max)
	for _, col := range cols {
		vals, _ := ds.Column(col)
		mask := app.Column(col)
		for i, v := range vals {
			if !mask[i] || v.IsBlank() {
				continue
			}
			f, ok := v.Float()
			switch {
			case !ok:
				out.respondent(ds.RespondentID(i), col, CheckRange,
					fmt.Sprintf("Non-numeric value '%s' (expected %s)", v.String(), bounds))
			case f < c.Min || f > c.Max:
				out.respondent(ds.RespondentID(i), col, CheckRange,
					fmt.Sprintf("Value out of range (%s)", bounds))
			}
		}
	}
}

func checkMissing(ds *Dataset, cols []string, app *Applicability, out *Sink) {
	for _, col := range cols {
		vals, _ := ds.Column(col)
		mask := app.Column(col)
		for i, v := range vals {
			if mask[i] && v.IsBlank() {
				out.respondent(ds.RespondentID(i), col, CheckMissing, IssueMissing)
			}
		}
	}
}

// checkSkip reports, for one target column, blanks from routed respondents and
// answers from everyone else.
func checkSkip(ds *Dataset, col string, app *Applicability, out *Sink) {
	vals, _ := ds.Column(col)
	mask := app.Column(col)
	for i, v := range vals {
		if mask[i] && v.IsBlank() {
			out.respondent(ds.RespondentID(i), col, CheckSkip, IssueBlankShouldAnswer)
		}
	}
	for i, v := range vals {
		if !mask[i] && !v.IsBlank() {
			out.respondent(ds.RespondentID(i), col, CheckSkip, IssueAnsweredShouldSkip)
		}
	}
}

// checkMultiSelect expects every item coded 0 (not selected) or 1 (selected),
// blanks allowed, and at least one selection per applicable respondent.
func checkMultiSelect(ds *Dataset, question string, cols []string, app *Applicability, out *Sink) {
	for _, col := range cols {
		vals, _ := ds.Column(col)
		mask := app.Column(col)
		for i, v := range vals {
			if !mask[i] || v.IsBlank() {
				continue
			}
			if f, ok := v.Float(); ok && (f == 0 || f == 1) {
				continue
			}
			out.respondent(ds.RespondentID(i), col, CheckMultiSelect,
				fmt.Sprintf("Invalid value '%s' (expected 0 or 1)", v.String()))
		}
	}

	mask := app.Columns(cols)
	for i := 0; i < ds.Len(); i++ {
		if !mask[i] {
			continue
		}
		none := true
		for _, col := range cols {
			v := ds.Value(i, col)
			if v.IsBlank() {
				continue
			}
			if f, ok := v.Float(); ok && f == 0 {
				continue
			}
			none = false
			break
		}
		if none {
			out.respondent(ds.RespondentID(i), question, CheckMultiSelect, IssueNoOptionsSelected)
		}
	}
}

// checkStraightliner flags respondents who gave one identical answer to every
// item of a multi-item question. Respondents who skipped any item are left to
// the Missing and Skip checks.
func checkStraightliner(ds *Dataset, question string, cols []string, app *Applicability, out *Sink) {
	if len(cols) < 2 {
		return
	}
	mask := app.Columns(cols)
	for i := 0; i < ds.Len(); i++ {
		if !mask[i] {
			continue
		}
		first := ds.Value(i, cols[0])
		if first.IsBlank() {
			continue
		}
		same := true
		for _, col := range cols[1:] {
			v := ds.Value(i, col)
			if v.IsBlank() || v.key() != first.key() {
				same = false
				break
			}
		}
		if same {
			out.respondent(ds.RespondentID(i), question, CheckStraightliner,
				fmt.Sprintf("Same response '%s' across all %d items", first.String(), len(cols)))
		}
	}
}

// checkDuplicate flags every applicable respondent whose non-blank value in a
// column is also held by another applicable respondent.
func checkDuplicate(ds *Dataset, cols []string, app *Applicability, out *Sink) {
	for _, col := range cols {
		vals, _ := ds.Column(col)
		mask := app.Column(col)

		counts := make(map[string]int)
		for i, v := range vals {
			if mask[i] && !v.IsBlank() {
				counts[v.key()]++
			}
		}
		for i, v := range vals {
			if !mask[i] || v.IsBlank() {
				continue
			}
			if n := counts[v.key()]; n > 1 {
				out.respondent(ds.RespondentID(i), col, CheckDuplicate,
					fmt.Sprintf("Duplicate value '%s' shared by %d respondents", strings.TrimSpace(v.String()), n))
			}
		}
	}
}

func checkOpenEnd(ds *Dataset, cols []string, app *Applicability, c OpenEndCheck, minLength int, out *Sink) {
	if c.Err != nil {
		for _, col := range cols {
			out.ruleLevel(col, CheckOpenEndJunk.String(), fmt.Sprintf("Invalid open-end condition (%s)", c.Raw))
		}
		return
	}
	if c.MinLength > 0 {
		minLength = c.MinLength
	}

	for _, col := range cols {
		vals, _ := ds.Column(col)
		mask := app.Column(col)
		for i, v := range vals {
			if !mask[i] || v.IsBlank() {
				continue
			}
			text := strings.TrimSpace(v.String())
			if utf8.RuneCountInString(text) < minLength {
				out.respondent(ds.RespondentID(i), col, CheckOpenEndJunk,
					fmt.Sprintf("Open-end response '%s' shorter than %d characters", text, minLength))
			}
		}
	}
}
