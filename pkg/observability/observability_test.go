package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStep(ctx, &domain.StepEvent{Step: "resolution", Outcome: domain.OutcomeSuccess, Duration: time.Millisecond})
	hooks.OnStep(ctx, &domain.StepEvent{Step: "resolution", Outcome: domain.OutcomeTimeout, Duration: time.Second})
	hooks.OnStep(ctx, &domain.StepEvent{Step: "resolution", Outcome: domain.OutcomeSuccess, Duration: time.Millisecond})
	hooks.OnRunComplete(ctx, &domain.RunEvent{Steps: 3})
	hooks.OnRunComplete(ctx, &domain.RunEvent{Steps: 25, Error: "routing loop exceeded"})

	assertSeries(t, reg, "switchboard_steps_total", 2)
	assertSeries(t, reg, "switchboard_step_duration_seconds", 1)
	assertSeries(t, reg, "switchboard_runs_total", 2)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LoggingHooks(logging.NewJSON(&buf, slog.LevelInfo))

	hooks.OnStep(context.Background(), &domain.StepEvent{SessionID: "s1", Step: "resolution", Outcome: domain.OutcomeFailure, Error: "boom"})
	hooks.OnRunComplete(context.Background(), &domain.RunEvent{SessionID: "s1", Steps: 2})

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"err":"boom"`)
	assert.Contains(t, out, `"msg":"run complete"`)
}

func TestMergeHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	merged := domain.MergeHooks(
		observability.NewMetrics(reg).Hooks(),
		observability.LoggingHooks(logging.NewJSON(&buf, slog.LevelInfo)),
		domain.LifecycleHooks{},
	)

	merged.OnStep(context.Background(), &domain.StepEvent{Step: "classification", Outcome: domain.OutcomeSuccess})
	assertSeries(t, reg, "switchboard_steps_total", 1)
	assert.Contains(t, buf.String(), "classification")
}

func assertSeries(t *testing.T, reg *prometheus.Registry, name string, want int) {
	t.Helper()
	got, err := testutil.GatherAndCount(reg, name)
	assert.NoError(t, err)
	assert.Equal(t, want, got, name)
}
