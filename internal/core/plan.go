package core

// plan.go describes what a run would do without running the checks.
//
// A plan resolves every question token and skip target against the dataset,
// counts the respondents each check applies to, and lists the rule-level
// diagnostics the run would report. It is the cheap first look at a new rule
// table: typos in column names and malformed conditions show up before
// anyone reads a violation report.

import (
	"context"
	"fmt"
	"time"

	"github.com/aasthagit2025/checkdv/internal/logging"
)

// PlanSummary contains the counts of a plan.
type PlanSummary struct {
	Respondents  int `json:"respondents"`
	Rules        int `json:"rules"`
	Checks       int `json:"checks"`
	Columns      int `json:"columns"`       // distinct dataset columns touched by any check
	GatedColumns int `json:"gated_columns"` // columns routed by a skip rule
	Problems     int `json:"problems"`      // rule-level diagnostics a run would report
}

// CheckPlan describes one check of a rule.
type CheckPlan struct {
	CheckType  string   `json:"check_type"`
	Condition  string   `json:"condition,omitempty"`
	Parsed     string   `json:"parsed,omitempty"`
	Columns    []string `json:"columns"`
	Applicable int      `json:"applicable"`
	Problems   []string `json:"problems,omitempty"`
}

// RulePlan describes one rule.
type RulePlan struct {
	Question string      `json:"question"`
	Columns  []string    `json:"columns"`
	Checks   []CheckPlan `json:"checks"`
	Unknown  []string    `json:"unknown,omitempty"`
}

// PlanResponse is the complete dry-run description of a rule list.
type PlanResponse struct {
	Summary          PlanSummary `json:"summary"`
	Rules            []RulePlan  `json:"rules"`
	UncheckedColumns []string    `json:"unchecked_columns"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
}

// maxUncheckedSamples caps the unchecked column list.
const maxUncheckedSamples = 50

// Plan resolves rules against ds without evaluating any check.
func Plan(ds *Dataset, rules []Rule) *PlanResponse {
	start := time.Now()
	app := ResolveApplicability(ds, rules)

	resp := &PlanResponse{
		Summary: PlanSummary{Respondents: ds.Len(), Rules: len(rules)},
		Rules:   make([]RulePlan, len(rules)),
	}
	touched := make(map[string]struct{})
	gated := make(map[string]struct{})

	for ri, rule := range rules {
		cols := ResolveColumns(rule.Question, ds.Columns())
		rp := RulePlan{
			Question: rule.Question,
			Columns:  nonNil(cols),
			Unknown:  rule.Unknown,
		}
		resp.Summary.Problems += len(rule.Unknown)

		for _, chk := range rule.Checks {
			cp := CheckPlan{
				CheckType: chk.Type().String(),
				Condition: chk.Condition(),
				Columns:   nonNil(cols),
			}

			switch c := chk.(type) {
			case SkipCheck:
				cp.Columns = []string{}
				if !c.Rule.Gated {
					break
				}
				cp.Parsed = c.Rule.Condition.String()
				target, problem := resolveTarget(c.Rule.Target, ds)
				if problem == "" {
					problem = skipConditionProblem(c, ds)
				}
				if problem != "" {
					cp.Problems = append(cp.Problems, problem)
					break
				}
				cp.Columns = target
				cp.Applicable = app.Columns(target).Count()
				for _, col := range target {
					gated[col] = struct{}{}
				}
			default:
				if len(cols) == 0 {
					cp.Problems = append(cp.Problems, fmt.Sprintf("Question '%s' matched no variables", rule.Question))
					break
				}
				cp.Applicable = app.Columns(cols).Count()
				cp.Problems = conditionProblems(chk, cols)
				if rc, ok := chk.(RangeCheck); ok && rc.Err == nil {
					cp.Parsed = formatNumber(rc.Min) + "-" + formatNumber(rc.Max)
				}
			}

			for _, col := range cp.Columns {
				touched[col] = struct{}{}
			}
			resp.Summary.Checks++
			resp.Summary.Problems += len(cp.Problems)
			rp.Checks = append(rp.Checks, cp)
		}
		resp.Rules[ri] = rp
	}

	resp.Summary.Columns = len(touched)
	resp.Summary.GatedColumns = len(gated)

	resp.UncheckedColumns = []string{}
	for _, col := range ds.Columns() {
		if col == ds.IDColumn() {
			continue
		}
		if _, ok := touched[col]; ok {
			continue
		}
		if len(resp.UncheckedColumns) == maxUncheckedSamples {
			break
		}
		resp.UncheckedColumns = append(resp.UncheckedColumns, col)
	}

	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	return resp
}

// conditionProblems lists the per-column diagnostics of a check whose
// condition text did not parse.
func conditionProblems(chk Check, cols []string) []string {
	var format string
	switch c := chk.(type) {
	case RangeCheck:
		if c.Err == nil {
			return nil
		}
		format = "Invalid range condition (%s)"
	case OpenEndCheck:
		if c.Err == nil {
			return nil
		}
		format = "Invalid open-end condition (%s)"
	default:
		return nil
	}
	out := make([]string, len(cols))
	for i := range cols {
		out[i] = fmt.Sprintf(format, chk.Condition())
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Plan describes a run of rules over ds without evaluating checks.
func (s *Service) Plan(ctx context.Context, ds *Dataset, rules []Rule) (*PlanResponse, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: no dataset", ErrInvalidDataset)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plan := Plan(ds, rules)
	logging.FromContext(ctx).Info("plan built",
		"rules", plan.Summary.Rules,
		"checks", plan.Summary.Checks,
		"problems", plan.Summary.Problems,
	)
	return plan, nil
}
