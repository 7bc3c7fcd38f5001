package core

import "fmt"

// checkRef addresses one check inside the rule list.
type checkRef struct {
	rule  int
	check int
}

// Applicability holds the should-answer mask of every column targeted by a
// skip rule. A skip rule's "if" clause selects who is routed to its target;
// when several rules target the same column their conditions are ORed, so a
// respondent routed by any of them is expected to answer. Columns no skip rule
// targets are applicable to everyone, and so are the targets of a rule whose
// condition cannot be evaluated (see skipConditionProblem) and targets whose
// combined conditions route nobody.
type Applicability struct {
	n     int
	masks map[string]Mask
	owner map[string]checkRef
}

// ResolveApplicability evaluates every gated skip rule in rules against ds.
func ResolveApplicability(ds *Dataset, rules []Rule) *Applicability {
	a := &Applicability{
		n:     ds.Len(),
		masks: make(map[string]Mask),
		owner: make(map[string]checkRef),
	}

	for ri, rule := range rules {
		for ci, chk := range rule.Checks {
			sc, ok := chk.(SkipCheck)
			if !ok || !sc.Rule.Gated {
				continue
			}
			cols, _ := resolveTarget(sc.Rule.Target, ds)
			if len(cols) == 0 || skipConditionProblem(sc, ds) != "" {
				continue
			}
			routed := Evaluate(sc.Rule.Condition, ds)
			for _, col := range cols {
				if m, ok := a.masks[col]; ok {
					m.Or(routed)
					continue
				}
				a.masks[col] = routed.Clone()
				a.owner[col] = checkRef{rule: ri, check: ci}
			}
		}
	}

	// A target nobody is routed to falls back to everyone answering.
	for col, m := range a.masks {
		if m.Count() == 0 {
			a.masks[col] = NewMask(a.n, true)
		}
	}
	return a
}

// Gated reports whether any skip rule targets col.
func (a *Applicability) Gated(col string) bool {
	_, ok := a.masks[col]
	return ok
}

// Column returns the should-answer mask for col. The result must not be
// modified.
func (a *Applicability) Column(col string) Mask {
	if m, ok := a.masks[col]; ok {
		return m
	}
	return NewMask(a.n, true)
}

// Columns returns the mask of respondents expected to answer at least one of
// cols. An empty column list yields an all-true mask.
func (a *Applicability) Columns(cols []string) Mask {
	if len(cols) == 0 {
		return NewMask(a.n, true)
	}
	out := NewMask(a.n, false)
	for _, c := range cols {
		out.Or(a.Column(c))
	}
	return out
}

// ownedBy reports whether ref is the first skip check targeting col. Only the
// owner reports skip violations for a column so two rules sharing a target do
// not flag the same respondent twice for the same reason.
func (a *Applicability) ownedBy(col string, ref checkRef) bool {
	return a.owner[col] == ref
}

// resolveTarget expands a skip target into dataset columns. When nothing
// matches, problem describes the rule-level diagnostic to report.
func resolveTarget(t Target, ds *Dataset) (cols []string, problem string) {
	switch t.Kind {
	case TargetRange:
		if cols = ExpandRange(t.Expr, ds.Columns()); len(cols) > 0 {
			return cols, ""
		}
	case TargetPrefix:
		if cols = ExpandPrefix(t.Expr, ds.Columns()); len(cols) > 0 {
			return cols, ""
		}
		return nil, fmt.Sprintf("Skip target prefix '%s' matched no variables", t.Expr)
	}
	if ds.HasColumn(t.Expr) {
		return []string{t.Expr}, ""
	}
	return nil, fmt.Sprintf("Skip condition references missing variable '%s'", t.Expr)
}

// skipConditionProblem describes why the "if" side of a skip rule cannot be
// trusted to route respondents: an AND-group that did not parse or a predicate
// on a column the dataset lacks. Such a rule gates nothing.
func skipConditionProblem(sc SkipCheck, ds *Dataset) string {
	for _, conj := range sc.Rule.Condition.Conjunctions {
		if conj.Malformed != "" {
			return fmt.Sprintf("Skip condition is malformed (%s)", conj.Malformed)
		}
		for _, p := range conj.Predicates {
			if !ds.HasColumn(p.Column) {
				return fmt.Sprintf("Skip condition references missing variable '%s'", p.Column)
			}
		}
	}
	return ""
}
