package core

// condition.go parses skip-logic text of the form
//
//	if <predicate> [and|or <predicate>]... then <target>
//
// into a Condition (OR of AND-groups of comparisons) plus a Target.
//
// The parser never fails outright. A clause that does not match
// "column operator literal" marks its whole AND-group as malformed, and a
// malformed group never holds for anyone. Text without "then" carries no
// gating at all.

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator in a skip predicate.
type Operator string

const (
	OpLessEq    Operator = "<="
	OpGreaterEq Operator = ">="
	OpNotEqual  Operator = "!="
	OpLess      Operator = "<"
	OpGreater   Operator = ">"
	OpEqual     Operator = "="
)

// IsNumeric reports whether the operator always compares as numbers.
func (o Operator) IsNumeric() bool {
	switch o {
	case OpLessEq, OpGreaterEq, OpLess, OpGreater:
		return true
	}
	return false
}

// Predicate compares one column against a literal.
type Predicate struct {
	Column  string
	Op      Operator
	Literal string
}

func (p Predicate) String() string {
	return p.Column + " " + string(p.Op) + " " + p.Literal
}

// Conjunction is an AND-group of predicates. A non-empty Malformed holds the
// reason the group could not be parsed; such a group is false for everyone.
type Conjunction struct {
	Predicates []Predicate
	Malformed  string
}

// Condition is an OR of conjunctions. A Condition with no conjunctions holds
// for nobody; a conjunction with no predicates holds for everybody.
type Condition struct {
	Conjunctions []Conjunction
}

func (c Condition) String() string {
	groups := make([]string, len(c.Conjunctions))
	for i, conj := range c.Conjunctions {
		if conj.Malformed != "" {
			groups[i] = "<malformed: " + conj.Malformed + ">"
			continue
		}
		parts := make([]string, len(conj.Predicates))
		for j, p := range conj.Predicates {
			parts[j] = p.String()
		}
		groups[i] = strings.Join(parts, " and ")
	}
	return strings.Join(groups, " or ")
}

// TargetKind says how a skip target names its columns.
type TargetKind int

const (
	TargetColumn TargetKind = iota // a single literal column
	TargetPrefix                   // every column starting with Expr
	TargetRange                    // "X1 to X9"
)

// TargetPrefixSeparator marks a target token as a column-family prefix.
const TargetPrefixSeparator = "_"

// Target is the "then" side of a skip rule.
type Target struct {
	Kind TargetKind
	Expr string
}

// SkipRule is a parsed skip expression. Gated is false when the text had no
// "then", in which case Condition and Target are empty.
type SkipRule struct {
	Gated     bool
	Condition Condition
	Target    Target
}

// ParseSkipRule parses "if <expr> then <target>".
func ParseSkipRule(text string) SkipRule {
	toks := lex(text)

	thenAt := -1
	for i, t := range toks {
		if t.kind == tokThen {
			thenAt = i
			break
		}
	}
	if thenAt < 0 {
		return SkipRule{}
	}

	condToks := toks[:thenAt]
	if len(condToks) > 0 && condToks[0].kind == tokIf {
		condToks = condToks[1:]
	}

	return SkipRule{
		Gated:     true,
		Condition: parseCondition(condToks),
		Target:    parseTarget(text[toks[thenAt].end:]),
	}
}

// ParseCondition parses a bare boolean expression (no "if"/"then").
func ParseCondition(text string) Condition {
	toks := lex(text)
	if len(toks) > 0 && toks[0].kind == tokIf {
		toks = toks[1:]
	}
	return parseCondition(toks)
}

func parseTarget(raw string) Target {
	raw = strings.TrimSpace(raw)
	if IsRangeExpr(raw) {
		return Target{Kind: TargetRange, Expr: raw}
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Target{Kind: TargetColumn}
	}
	first := fields[0]
	if strings.HasSuffix(first, TargetPrefixSeparator) {
		return Target{Kind: TargetPrefix, Expr: first}
	}
	return Target{Kind: TargetColumn, Expr: first}
}

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

type tokKind int

const (
	tokWord tokKind = iota
	tokOp
	tokAnd
	tokOr
	tokIf
	tokThen
	tokBad
)

type token struct {
	kind  tokKind
	text  string
	start int
	end   int
}

// multiCharOps must be tried before single-character ones so "<=" is never
// read as "<" followed by "=". "<>" and "==" are spellings of != and =.
var multiCharOps = []struct {
	lit string
	op  Operator
}{
	{"<=", OpLessEq},
	{">=", OpGreaterEq},
	{"!=", OpNotEqual},
	{"<>", OpNotEqual},
	{"==", OpEqual},
}

func isOpChar(c byte) bool {
	return c == '<' || c == '>' || c == '=' || c == '!'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func lex(s string) []token {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case isSpace(c):
			i++

		case isOpChar(c):
			start := i
			matched := false
			for _, m := range multiCharOps {
				if strings.HasPrefix(s[i:], m.lit) {
					toks = append(toks, token{kind: tokOp, text: string(m.op), start: start, end: i + len(m.lit)})
					i += len(m.lit)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			switch c {
			case '<':
				toks = append(toks, token{kind: tokOp, text: string(OpLess), start: start, end: i + 1})
			case '>':
				toks = append(toks, token{kind: tokOp, text: string(OpGreater), start: start, end: i + 1})
			case '=':
				toks = append(toks, token{kind: tokOp, text: string(OpEqual), start: start, end: i + 1})
			default:
				toks = append(toks, token{kind: tokBad, text: string(c), start: start, end: i + 1})
			}
			i++

		case c == '\'' || c == '"':
			start := i
			j := strings.IndexByte(s[i+1:], c)
			if j < 0 {
				toks = append(toks, token{kind: tokBad, text: s[i:], start: start, end: len(s)})
				i = len(s)
				continue
			}
			toks = append(toks, token{kind: tokWord, text: s[i+1 : i+1+j], start: start, end: i + 2 + j})
			i += j + 2

		default:
			start := i
			for i < len(s) && !isSpace(s[i]) && !isOpChar(s[i]) {
				i++
			}
			word := s[start:i]
			toks = append(toks, token{kind: keywordKind(word), text: word, start: start, end: i})
		}
	}
	return toks
}

func keywordKind(word string) tokKind {
	switch strings.ToLower(word) {
	case "and":
		return tokAnd
	case "or":
		return tokOr
	case "if":
		return tokIf
	case "then":
		return tokThen
	}
	return tokWord
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func parseCondition(toks []token) Condition {
	if len(toks) == 0 {
		return Condition{Conjunctions: []Conjunction{{}}}
	}
	p := &parser{toks: toks}
	return p.parseOr()
}

// parseOr: conjunction ("or" conjunction)*
func (p *parser) parseOr() Condition {
	var c Condition
	c.Conjunctions = append(c.Conjunctions, p.parseAnd())
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			return c
		}
		p.pos++
		c.Conjunctions = append(c.Conjunctions, p.parseAnd())
	}
}

// parseAnd: predicate ("and" predicate)*
func (p *parser) parseAnd() Conjunction {
	var conj Conjunction
	for {
		pred, err := p.parsePredicate()
		if err != nil {
			if conj.Malformed == "" {
				conj.Malformed = err.Error()
			}
		} else {
			conj.Predicates = append(conj.Predicates, pred)
		}
		t, ok := p.peek()
		if !ok || t.kind != tokAnd {
			break
		}
		p.pos++
	}
	if conj.Malformed != "" {
		conj.Predicates = nil
	}
	return conj
}

// parsePredicate consumes one clause up to the next and/or and checks it is
// "column operator literal". Multi-word literals are joined with one space.
func (p *parser) parsePredicate() (Predicate, error) {
	start := p.pos
	for p.pos < len(p.toks) && p.toks[p.pos].kind != tokAnd && p.toks[p.pos].kind != tokOr {
		p.pos++
	}
	clause := p.toks[start:p.pos]

	if len(clause) == 0 {
		return Predicate{}, fmt.Errorf("empty clause")
	}
	if len(clause) < 3 || clause[0].kind != tokWord || clause[1].kind != tokOp {
		return Predicate{}, fmt.Errorf("clause %q is not column operator value", joinTokens(clause))
	}

	lit := make([]string, 0, len(clause)-2)
	for _, t := range clause[2:] {
		if t.kind != tokWord {
			return Predicate{}, fmt.Errorf("unexpected %q in clause %q", t.text, joinTokens(clause))
		}
		lit = append(lit, t.text)
	}

	return Predicate{
		Column:  clause[0].text,
		Op:      Operator(clause[1].text),
		Literal: strings.Join(lit, " "),
	}, nil
}

func joinTokens(toks []token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}
