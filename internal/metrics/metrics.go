// Package metrics exports validation run statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aasthagit2025/checkdv/internal/core"
)

const namespace = "checkdv"

// Recorder implements core.RunObserver on top of Prometheus collectors.
type Recorder struct {
	runs        *prometheus.CounterVec
	violations  *prometheus.CounterVec
	levels      *prometheus.CounterVec
	duration    prometheus.Histogram
	respondents prometheus.Histogram
}

var _ core.RunObserver = (*Recorder)(nil)

// New creates a recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Validation runs by outcome.",
		}, []string{"status"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Violations reported by check type.",
		}, []string{"check_type"}),
		levels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_by_level_total",
			Help:      "Violations split into respondent-level findings and rule-level diagnostics.",
		}, []string{"level"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent evaluating rules per run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		respondents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_respondents",
			Help:      "Respondents per validated dataset.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
	reg.MustRegister(r.runs, r.violations, r.levels, r.duration, r.respondents)
	return r
}

// RunCompleted records a successful run.
func (r *Recorder) RunCompleted(d time.Duration, respondents int, s core.Summary) {
	r.runs.WithLabelValues("ok").Inc()
	r.duration.Observe(d.Seconds())
	r.respondents.Observe(float64(respondents))

	for ct, n := range s.ByCheckType {
		r.violations.WithLabelValues(ct).Add(float64(n))
	}
	r.levels.WithLabelValues("respondent").Add(float64(s.RespondentLevel))
	r.levels.WithLabelValues("rule").Add(float64(s.RuleLevel))
}

// RunFailed records a run that never produced results.
func (r *Recorder) RunFailed(reason string) {
	r.runs.WithLabelValues(reason).Inc()
}
