package core

// validator.go dispatches typed checks to their routines.
//
// Rules are independent once applicability is resolved, so they run on a
// bounded errgroup. Each rule writes to its own sink and the sinks are merged
// in rule order, which keeps output deterministic: rule, then check, then
// column, then respondent.

import (
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DefaultOpenEndMinLength is the minimum number of characters an open-ended
// answer needs to not count as junk.
const DefaultOpenEndMinLength = 3

// DefaultWorkers is the default number of rules evaluated concurrently.
const DefaultWorkers = 4

// Options configures a Validator.
type Options struct {
	OpenEndMinLength int          // default DefaultOpenEndMinLength
	Workers          int          // default DefaultWorkers; 1 runs rules sequentially
	Logger           *slog.Logger // default slog.Default()
}

// Validator evaluates rule lists against datasets. It holds no per-run state
// and is safe for concurrent use.
type Validator struct {
	openEndMin int
	workers    int
	logger     *slog.Logger
}

// NewValidator creates a validator, filling zero options with defaults.
func NewValidator(opts Options) *Validator {
	if opts.OpenEndMinLength <= 0 {
		opts.OpenEndMinLength = DefaultOpenEndMinLength
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Validator{
		openEndMin: opts.OpenEndMinLength,
		workers:    opts.Workers,
		logger:     opts.Logger,
	}
}

// Validate runs every rule against ds and returns the violations in rule,
// check, column, respondent order. Identical inputs always produce an
// identical sequence.
func (v *Validator) Validate(ds *Dataset, rules []Rule) []Violation {
	app := ResolveApplicability(ds, rules)

	results := make([][]Violation, len(rules))
	var g errgroup.Group
	g.SetLimit(v.workers)
	for ri := range rules {
		g.Go(func() error {
			results[ri] = v.runRule(ds, app, ri, rules[ri])
			return nil
		})
	}
	_ = g.Wait() // rule evaluation does not fail

	sink := NewSink()
	for _, r := range results {
		sink.Append(r...)
	}
	return sink.Records()
}

func (v *Validator) runRule(ds *Dataset, app *Applicability, ri int, rule Rule) []Violation {
	out := NewSink()

	for _, name := range rule.Unknown {
		out.ruleLevel(rule.Question, name, fmt.Sprintf("Unknown check type '%s'", name))
	}

	cols := ResolveColumns(rule.Question, ds.Columns())

	for ci, chk := range rule.Checks {
		if sc, ok := chk.(SkipCheck); ok {
			v.runSkip(ds, app, checkRef{rule: ri, check: ci}, sc, out)
			continue
		}

		if len(cols) == 0 {
			out.ruleLevel(rule.Question, chk.Type().String(),
				fmt.Sprintf("Question '%s' matched no variables", rule.Question))
			continue
		}

		switch c := chk.(type) {
		case RangeCheck:
			checkRange(ds, cols, app, c, out)
		case MissingCheck:
			checkMissing(ds, cols, app, out)
		case MultiSelectCheck:
			checkMultiSelect(ds, rule.Question, cols, app, out)
		case StraightlinerCheck:
			checkStraightliner(ds, rule.Question, cols, app, out)
		case DuplicateCheck:
			checkDuplicate(ds, cols, app, out)
		case OpenEndCheck:
			checkOpenEnd(ds, cols, app, c, v.openEndMin, out)
		}
	}

	v.logger.Debug("rule evaluated",
		"question", rule.Question,
		"columns", len(cols),
		"checks", len(rule.Checks),
		"violations", out.Len(),
	)
	return out.Records()
}

func (v *Validator) runSkip(ds *Dataset, app *Applicability, ref checkRef, sc SkipCheck, out *Sink) {
	if !sc.Rule.Gated {
		return
	}
	cols, problem := resolveTarget(sc.Rule.Target, ds)
	if problem == "" {
		problem = skipConditionProblem(sc, ds)
	}
	if problem != "" {
		out.ruleLevel(sc.Rule.Target.Expr, CheckSkip.String(), problem)
		return
	}
	for _, col := range cols {
		if app.ownedBy(col, ref) {
			checkSkip(ds, col, app, out)
		}
	}
}
