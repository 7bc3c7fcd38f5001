package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aasthagit2025/checkdv/internal/logging"
)

const tracerName = "github.com/aasthagit2025/checkdv/internal/core"

// RunObserver receives the outcome of every run. internal/metrics provides
// the Prometheus implementation.
type RunObserver interface {
	RunCompleted(d time.Duration, respondents int, s Summary)
	RunFailed(reason string)
}

type nopObserver struct{}

func (nopObserver) RunCompleted(time.Duration, int, Summary) {}
func (nopObserver) RunFailed(string)                         {}

// RunResult is the outcome of one validation run.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Respondents int           `json:"respondents"`
	Rules       int           `json:"rules"`
	Violations  []Violation   `json:"violations"`
	Summary     Summary       `json:"summary"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// Service runs validations with admission control, run ids, tracing,
// metrics, and logging around the Validator.
type Service struct {
	validator *Validator
	limiter   *RunLimiter
	observer  RunObserver
}

// NewService wires a service. A nil observer discards run outcomes.
func NewService(validator *Validator, limiter *RunLimiter, observer RunObserver) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	if limiter == nil {
		limiter = NewRunLimiter(DefaultMaxConcurrentRuns, DefaultMaxWaitTime)
	}
	return &Service{
		validator: validator,
		limiter:   limiter,
		observer:  observer,
	}
}

// Run validates ds against rules. It fails only when ds is nil, when no run
// slot frees up in time, or when ctx is done before evaluation starts;
// problems with individual rules are returned as rule-level violations.
func (s *Service) Run(ctx context.Context, ds *Dataset, rules []Rule) (*RunResult, error) {
	if ds == nil {
		s.observer.RunFailed("invalid_dataset")
		return nil, fmt.Errorf("%w: no dataset", ErrInvalidDataset)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.observer.RunFailed("rejected")
		return nil, err
	}
	defer s.limiter.Release()

	if err := ctx.Err(); err != nil {
		s.observer.RunFailed("cancelled")
		return nil, err
	}

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "core.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkdv.run_id", runID),
		attribute.Int("checkdv.respondents", ds.Len()),
		attribute.Int("checkdv.rules", len(rules)),
	)

	if o, ok := OriginFromContext(ctx); ok {
		logger = logger.With("channel", o.Channel, "client", o.Address)
	}
	logger.Info("validation started", "respondents", ds.Len(), "columns", len(ds.Columns()), "rules", len(rules))

	start := time.Now()
	violations := s.validator.Validate(ds, rules)
	elapsed := time.Since(start)
	summary := Summarize(violations)

	span.SetAttributes(attribute.Int("checkdv.violations", summary.Total))
	span.SetStatus(codes.Ok, "")
	s.observer.RunCompleted(elapsed, ds.Len(), summary)

	logger.Info("validation completed",
		"violations", summary.Total,
		"rule_level", summary.RuleLevel,
		"respondents_flagged", summary.Respondents,
		"duration_ms", elapsed.Milliseconds(),
	)

	return &RunResult{
		RunID:       runID,
		Respondents: ds.Len(),
		Rules:       len(rules),
		Violations:  violations,
		Summary:     summary,
		StartedAt:   start,
		Duration:    elapsed,
	}, nil
}

// LimiterStatus reports run slot usage.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until in-flight runs finish or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
