package steps

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/memory"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/tools"
)

const (
	satisfiedReply = "You're welcome! I'm glad that's sorted. Feel free to reach out if anything else comes up."
	failureReply   = "I ran into a problem while working on your request. Let me escalate this to human support."
)

type resolutionStep struct {
	responder ports.Responder
	cfg       *config
}

// Resolution returns the step that answers the latest user message using
// long-term recall, the customer's account profile, knowledge search and the
// responder. It never fails on collaborator errors: it apologizes and requests
// escalation instead.
func Resolution(responder ports.Responder, opts ...Option) domain.Step {
	return &resolutionStep{responder: responder, cfg: newConfig(opts)}
}

func (s *resolutionStep) Name() string          { return domain.StepResolution }
func (s *resolutionStep) Effect() domain.Effect { return domain.EffectToolInvoking }
func (s *resolutionStep) Writes() domain.FieldSet {
	return domain.Fields(
		domain.FieldMessages,
		domain.FieldResolutionAttempted,
		domain.FieldEscalationRequested,
		domain.FieldSignals,
	)
}

func (s *resolutionStep) Invoke(ctx context.Context, state *domain.State) (domain.PartialState, error) {
	out := domain.PartialState{ResolutionAttempted: domain.Set(true)}

	latest, ok := state.LatestUserMessage()
	if !ok {
		out.Messages = domain.Set([]domain.Message{})
		return out, nil
	}

	signals := DetectSignals(latest.Content, hasPriorReply(state))
	out.Signals = domain.Set(signals)
	switch {
	case signals.WantsEscalation:
		// the escalation step replies
		return out, nil
	case signals.UserSatisfied:
		out.Messages = domain.Set([]domain.Message{assistantMessage(satisfiedReply)})
		return out, nil
	}

	var issue domain.IssueType
	if state.Classification != nil {
		issue = state.Classification.IssueType
	}
	history := memory.SafeRecall(ctx, s.cfg.recaller, s.cfg.logger, state.AccountID, state.UserID, issue)

	customer := s.lookupCustomer(ctx, state)

	knowledge, err := s.search(ctx, latest.Content)
	if err != nil {
		return s.fail(ctx, state, out, err)
	}

	reply, err := s.responder.Respond(ctx, ports.ResponseRequest{
		Messages:       state.Messages,
		Summary:        state.RollingSummary,
		Classification: state.Classification,
		History:        history,
		Knowledge:      knowledge,
		Customer:       customer,
	})
	if err == nil && reply == "" {
		err = fmt.Errorf("responder returned an empty reply")
	}
	if err != nil {
		return s.fail(ctx, state, out, err)
	}

	out.Messages = domain.Set([]domain.Message{assistantMessage(reply)})
	return out, nil
}

func (s *resolutionStep) fail(ctx context.Context, state *domain.State, out domain.PartialState, err error) (domain.PartialState, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.PartialState{}, ctxErr
	}
	s.cfg.logger.Warn("resolution failed, requesting escalation", "session_id", state.SessionID, "error", err)
	out.Messages = domain.Set([]domain.Message{assistantMessage(failureReply)})
	out.EscalationRequested = domain.Set(true)
	return out, nil
}

// lookupCustomer fetches the account profile of the session's user. Any
// failure, including an unregistered lookup tool, yields nil.
func (s *resolutionStep) lookupCustomer(ctx context.Context, state *domain.State) *domain.CustomerProfile {
	if s.cfg.tools == nil || state.UserID == "" {
		return nil
	}
	res := s.cfg.tools.Invoke(ctx, tools.LookupUserTool, map[string]any{
		"account_id": state.AccountID,
		"user_id":    state.UserID,
	})
	if !res.OK() {
		s.cfg.logger.Debug("customer lookup failed", "session_id", state.SessionID, "kind", res.Error.Kind, "error", res.Error.Message)
		return nil
	}
	profile, ok := res.Result.(domain.CustomerProfile)
	if !ok {
		return nil
	}
	return &profile
}

// search tries semantic search first and falls back to keyword search.
// It errors only when every tool failed.
func (s *resolutionStep) search(ctx context.Context, query string) ([]string, error) {
	if s.cfg.tools == nil {
		return nil, nil
	}

	var lastErr error
	succeeded := false
	for _, name := range []string{tools.SearchKnowledgeTool, tools.KeywordSearchTool} {
		res := s.cfg.tools.Invoke(ctx, name, map[string]any{"query": query})
		if !res.OK() {
			lastErr = res.Error
			s.cfg.logger.Debug("knowledge tool failed", "tool", name, "kind", res.Error.Kind, "error", res.Error.Message)
			continue
		}
		succeeded = true
		if snippets := formatHits(res.Result); len(snippets) > 0 {
			return snippets, nil
		}
	}
	if succeeded {
		return nil, nil
	}
	return nil, lastErr
}

func formatHits(result any) []string {
	hits, ok := result.([]tools.Hit)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, fmt.Sprintf("**%s** (%s)\n%s", h.Title, h.ArticleID, h.Content))
	}
	return out
}
