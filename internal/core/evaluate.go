package core

import "strings"

// Evaluate returns, for every respondent, whether cond holds. Conjunctions are
// ANDed internally and ORed together. Unknown columns, malformed groups, and
// non-numeric operands in ordered comparisons all evaluate to false rather
// than failing the run.
func Evaluate(cond Condition, ds *Dataset) Mask {
	out := NewMask(ds.Len(), false)
	for _, conj := range cond.Conjunctions {
		out.Or(evaluateConjunction(conj, ds))
	}
	return out
}

func evaluateConjunction(conj Conjunction, ds *Dataset) Mask {
	if conj.Malformed != "" {
		return NewMask(ds.Len(), false)
	}
	m := NewMask(ds.Len(), true)
	for _, p := range conj.Predicates {
		m.And(evaluatePredicate(p, ds))
	}
	return m
}

func evaluatePredicate(p Predicate, ds *Dataset) Mask {
	out := NewMask(ds.Len(), false)
	col, ok := ds.Column(p.Column)
	if !ok {
		return out
	}

	if p.Op.IsNumeric() {
		lit, ok := parseNumber(strings.TrimSpace(p.Literal))
		if !ok {
			return out
		}
		for i, v := range col {
			f, ok := v.Float()
			if !ok {
				continue
			}
			switch p.Op {
			case OpLess:
				out[i] = f < lit
			case OpLessEq:
				out[i] = f <= lit
			case OpGreater:
				out[i] = f > lit
			case OpGreaterEq:
				out[i] = f >= lit
			}
		}
		return out
	}

	for i, v := range col {
		eq := valueEquals(v, p.Literal)
		if p.Op == OpNotEqual {
			out[i] = !eq
		} else {
			out[i] = eq
		}
	}
	return out
}

// valueEquals compares numerically when both sides are numbers and as trimmed
// strings otherwise. Absent values compare as "".
func valueEquals(v Value, literal string) bool {
	literal = strings.TrimSpace(literal)
	if f, ok := v.Float(); ok {
		if lit, ok := parseNumber(literal); ok {
			return f == lit
		}
	}
	return strings.TrimSpace(v.String()) == literal
}
