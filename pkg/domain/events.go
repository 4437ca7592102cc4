package domain

import (
	"context"
	"time"
)

// StepEvent describes one step attempt.
type StepEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Step      string        `json:"step"`
	Outcome   Outcome       `json:"outcome"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// RunEvent describes a finished run.
type RunEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Steps     int           `json:"steps"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStep        func(context.Context, *StepEvent)
	OnRunComplete func(context.Context, *RunEvent)
}

// MergeHooks fans every callback out to all non-nil hooks, in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	var onStep []func(context.Context, *StepEvent)
	var onRun []func(context.Context, *RunEvent)
	for _, h := range hooks {
		if h.OnStep != nil {
			onStep = append(onStep, h.OnStep)
		}
		if h.OnRunComplete != nil {
			onRun = append(onRun, h.OnRunComplete)
		}
	}
	if len(onStep) > 0 {
		merged.OnStep = func(ctx context.Context, e *StepEvent) {
			for _, fn := range onStep {
				fn(ctx, e)
			}
		}
	}
	if len(onRun) > 0 {
		merged.OnRunComplete = func(ctx context.Context, e *RunEvent) {
			for _, fn := range onRun {
				fn(ctx, e)
			}
		}
	}
	return merged
}
