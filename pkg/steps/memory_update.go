package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/memory"
	"github.com/aretw0/switchboard/pkg/ports"
)

type memoryUpdateStep struct {
	summarizer ports.Summarizer
	cfg        *config
}

// MemoryUpdate returns the step that folds new messages into the rolling
// summary and records resolved or escalated sessions as long-term cases.
// Active references are replaced by those found in the new messages.
func MemoryUpdate(summarizer ports.Summarizer, opts ...Option) domain.Step {
	return &memoryUpdateStep{summarizer: summarizer, cfg: newConfig(opts)}
}

func (s *memoryUpdateStep) Name() string          { return domain.StepMemoryUpdate }
func (s *memoryUpdateStep) Effect() domain.Effect { return domain.EffectToolInvoking }
func (s *memoryUpdateStep) Writes() domain.FieldSet {
	return domain.Fields(domain.FieldRollingSummary, domain.FieldSummaryCursor, domain.FieldActiveReferences)
}

func (s *memoryUpdateStep) Invoke(ctx context.Context, state *domain.State) (domain.PartialState, error) {
	cursor := min(max(state.SummaryCursor, 0), len(state.Messages))
	fresh := state.Messages[cursor:]

	summary, refs, err := s.summarizer.Summarize(ctx, state.RollingSummary, fresh)
	if err != nil {
		return domain.PartialState{}, fmt.Errorf("summarize: %w", err)
	}

	s.recordCase(ctx, state)

	return domain.PartialState{
		RollingSummary:   domain.Set(summary),
		SummaryCursor:    domain.Set(len(state.Messages)),
		ActiveReferences: domain.Set(memory.LimitReferences(refs, s.cfg.maxReferences)),
	}, nil
}

// recordCase stores the session outcome. Failures are logged, not returned,
// so that a case store outage never loses the summary.
func (s *memoryUpdateStep) recordCase(ctx context.Context, state *domain.State) {
	if s.cfg.cases == nil || state.UserID == "" || state.Classification == nil {
		return
	}

	var outcome domain.CaseOutcome
	switch {
	case state.Escalated:
		outcome = domain.CaseEscalated
	case state.Signals.UserSatisfied:
		outcome = domain.CaseResolved
	default:
		return
	}

	rec := domain.CaseRecord{
		SessionID:  state.SessionID,
		AccountID:  state.AccountID,
		UserID:     state.UserID,
		IssueType:  state.Classification.IssueType,
		Urgency:    state.Classification.Urgency,
		Outcome:    outcome,
		Summary:    state.Classification.Summary,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.cfg.cases.Record(ctx, rec); err != nil {
		s.cfg.logger.Warn("failed to record case", "session_id", state.SessionID, "error", err)
	}
}
