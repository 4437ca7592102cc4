package observability

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records step and run metrics.
type Metrics struct {
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	runSteps     prometheus.Histogram
}

// NewMetrics registers the switchboard metrics on reg.
// Use prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchboard_steps_total",
				Help: "Total number of step attempts by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "switchboard_step_duration_seconds",
				Help:    "Duration of step attempts in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchboard_runs_total",
				Help: "Total number of runs by status",
			},
			[]string{"status"},
		),
		runSteps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "switchboard_run_steps",
				Help:    "Number of routed steps per run",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 25},
			},
		),
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			m.stepsTotal.WithLabelValues(e.Step, string(e.Outcome)).Inc()
			m.stepDuration.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			status := "ok"
			if e.Error != "" {
				status = "error"
			}
			m.runsTotal.WithLabelValues(status).Inc()
			m.runSteps.Observe(float64(e.Steps))
		},
	}
}
