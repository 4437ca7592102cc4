package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/switchboard/pkg/domain"
)

// LoggingHooks logs every step attempt and run completion.
// Failed attempts are logged at Warn, everything else at Info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			level := slog.LevelInfo
			if e.Outcome != domain.OutcomeSuccess {
				level = slog.LevelWarn
			}
			attrs := []any{
				"session_id", e.SessionID,
				"step", e.Step,
				"outcome", e.Outcome,
				"duration", e.Duration,
			}
			if e.Error != "" {
				attrs = append(attrs, "error", e.Error)
			}
			logger.Log(ctx, level, "step", attrs...)
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			if e.Error != "" {
				logger.Warn("run failed", "session_id", e.SessionID, "steps", e.Steps, "error", e.Error)
				return
			}
			logger.Info("run complete", "session_id", e.SessionID, "steps", e.Steps, "duration", e.Duration)
		},
	}
}
