package core

// rules.go turns rule-table rows into typed rules.
//
// A row names a question token, a semicolon list of check types, and a
// semicolon list of conditions aligned by position. Each check is parsed once
// into its own payload (range bounds, skip expression, length threshold) so the
// dispatcher never re-reads condition text.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// CheckType is the closed set of supported data-quality checks.
type CheckType int

const (
	CheckRange CheckType = iota + 1
	CheckMissing
	CheckSkip
	CheckMultiSelect
	CheckStraightliner
	CheckDuplicate
	CheckOpenEndJunk
)

var checkTypeNames = map[CheckType]string{
	CheckRange:         "Range",
	CheckMissing:       "Missing",
	CheckSkip:          "Skip",
	CheckMultiSelect:   "Multi-Select",
	CheckStraightliner: "Straightliner",
	CheckDuplicate:     "Duplicate",
	CheckOpenEndJunk:   "OpenEnd_Junk",
}

// checkTypeAliases maps normalized spellings to check types.
var checkTypeAliases = map[string]CheckType{
	"range":          CheckRange,
	"missing":        CheckMissing,
	"skip":           CheckSkip,
	"multi_select":   CheckMultiSelect,
	"multiselect":    CheckMultiSelect,
	"straightliner":  CheckStraightliner,
	"straightlining": CheckStraightliner,
	"duplicate":      CheckDuplicate,
	"openend_junk":   CheckOpenEndJunk,
	"open_end_junk":  CheckOpenEndJunk,
	"openendjunk":    CheckOpenEndJunk,
}

func (c CheckType) String() string {
	if name, ok := checkTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CheckType(%d)", int(c))
}

// AllCheckTypes returns every check type in dispatch order.
func AllCheckTypes() []CheckType {
	return []CheckType{
		CheckRange, CheckMissing, CheckSkip, CheckMultiSelect,
		CheckStraightliner, CheckDuplicate, CheckOpenEndJunk,
	}
}

// ParseCheckType matches a rule-table check name regardless of case, spaces,
// and "-" versus "_".
func ParseCheckType(name string) (CheckType, bool) {
	// Casers are stateful, so each call gets its own.
	n := cases.Fold().String(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	ct, ok := checkTypeAliases[n]
	return ct, ok
}

// Check is one typed check attached to a rule. The concrete types below are
// the only implementations.
type Check interface {
	Type() CheckType
	// Condition returns the raw condition text the check was parsed from.
	Condition() string
	sealed()
}

// RangeCheck flags numeric answers outside [Min, Max]. Err is set when the
// condition text was not "min-max".
type RangeCheck struct {
	Raw      string
	Min, Max float64
	Err      error
}

// MissingCheck flags blank answers from respondents expected to answer.
type MissingCheck struct{ Raw string }

// SkipCheck verifies answers against a skip expression.
type SkipCheck struct {
	Raw  string
	Rule SkipRule
}

// MultiSelectCheck verifies 0/1 coding of multi-select items.
type MultiSelectCheck struct{ Raw string }

// StraightlinerCheck flags identical answers across every item of a grid.
type StraightlinerCheck struct{ Raw string }

// DuplicateCheck flags values shared by more than one respondent.
type DuplicateCheck struct{ Raw string }

// OpenEndCheck flags open-ended answers shorter than MinLength characters.
// A zero MinLength defers to the validator default. Err is set when the
// condition text was neither empty nor a positive integer.
type OpenEndCheck struct {
	Raw       string
	MinLength int
	Err       error
}

func (RangeCheck) Type() CheckType         { return CheckRange }
func (MissingCheck) Type() CheckType       { return CheckMissing }
func (SkipCheck) Type() CheckType          { return CheckSkip }
func (MultiSelectCheck) Type() CheckType   { return CheckMultiSelect }
func (StraightlinerCheck) Type() CheckType { return CheckStraightliner }
func (DuplicateCheck) Type() CheckType     { return CheckDuplicate }
func (OpenEndCheck) Type() CheckType       { return CheckOpenEndJunk }

func (c RangeCheck) Condition() string         { return c.Raw }
func (c MissingCheck) Condition() string       { return c.Raw }
func (c SkipCheck) Condition() string          { return c.Raw }
func (c MultiSelectCheck) Condition() string   { return c.Raw }
func (c StraightlinerCheck) Condition() string { return c.Raw }
func (c DuplicateCheck) Condition() string     { return c.Raw }
func (c OpenEndCheck) Condition() string       { return c.Raw }

func (RangeCheck) sealed()         {}
func (MissingCheck) sealed()       {}
func (SkipCheck) sealed()          {}
func (MultiSelectCheck) sealed()   {}
func (StraightlinerCheck) sealed() {}
func (DuplicateCheck) sealed()     {}
func (OpenEndCheck) sealed()       {}

// RuleRow is one raw row of the rule table.
type RuleRow struct {
	Question  string
	CheckType string // semicolon-separated
	Condition string // semicolon-separated, aligned with CheckType
}

// Rule is a parsed rule-table row. Unknown holds check names that matched no
// check type; they are reported as rule-level diagnostics.
type Rule struct {
	Question string
	Checks   []Check
	Unknown  []string
}

// ParseRules parses every row in order.
func ParseRules(rows []RuleRow) []Rule {
	rules := make([]Rule, len(rows))
	for i, row := range rows {
		rules[i] = ParseRule(row)
	}
	return rules
}

// ParseRule parses one rule-table row. It never fails: bad condition text is
// carried on the check and reported when the rule runs.
func ParseRule(row RuleRow) Rule {
	rule := Rule{Question: strings.TrimSpace(row.Question)}

	names := strings.Split(row.CheckType, ";")
	conds := strings.Split(row.Condition, ";")

	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var cond string
		if i < len(conds) {
			cond = strings.TrimSpace(conds[i])
		}

		ct, ok := ParseCheckType(name)
		if !ok {
			rule.Unknown = append(rule.Unknown, name)
			continue
		}
		rule.Checks = append(rule.Checks, NewCheck(ct, cond))
	}
	return rule
}

// NewCheck builds the typed check for ct from its condition text.
func NewCheck(ct CheckType, cond string) Check {
	switch ct {
	case CheckRange:
		lo, hi, err := ParseRange(cond)
		return RangeCheck{Raw: cond, Min: lo, Max: hi, Err: err}
	case CheckMissing:
		return MissingCheck{Raw: cond}
	case CheckSkip:
		return SkipCheck{Raw: cond, Rule: ParseSkipRule(cond)}
	case CheckMultiSelect:
		return MultiSelectCheck{Raw: cond}
	case CheckStraightliner:
		return StraightlinerCheck{Raw: cond}
	case CheckDuplicate:
		return DuplicateCheck{Raw: cond}
	case CheckOpenEndJunk:
		n, err := parseMinLength(cond)
		return OpenEndCheck{Raw: cond, MinLength: n, Err: err}
	}
	panic(fmt.Sprintf("core: unhandled check type %d", int(ct)))
}

// rangeRegex matches "min-max" with optional signs and decimals on each bound.
var rangeRegex = regexp.MustCompile(`^\s*([+-]?(?:\d+\.?\d*|\.\d+))\s*-\s*([+-]?(?:\d+\.?\d*|\.\d+))\s*$`)

// ParseRange parses "min-max" into inclusive bounds.
func ParseRange(text string) (lo, hi float64, err error) {
	m := rangeRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid range %q: expected min-max", text)
	}
	lo, err = strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", text, err)
	}
	hi, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", text, err)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("invalid range %q: min exceeds max", text)
	}
	return lo, hi, nil
}

func parseMinLength(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid minimum length %q", text)
	}
	return n, nil
}
