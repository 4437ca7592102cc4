package steps

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

type escalationStep struct {
	cfg *config
}

// Escalation returns the terminal step that hands the session to a human.
func Escalation(opts ...Option) domain.Step {
	return &escalationStep{cfg: newConfig(opts)}
}

func (s *escalationStep) Name() string          { return domain.StepEscalation }
func (s *escalationStep) Effect() domain.Effect { return domain.EffectTerminal }
func (s *escalationStep) Writes() domain.FieldSet {
	return domain.Fields(domain.FieldMessages, domain.FieldEscalationRequested, domain.FieldEscalated)
}

func (s *escalationStep) Invoke(ctx context.Context, state *domain.State) (domain.PartialState, error) {
	if err := ctx.Err(); err != nil {
		return domain.PartialState{}, err
	}

	content := ""
	if m, ok := state.LatestUserMessage(); ok {
		content = m.Content
	}
	ref := TicketReference(state.SessionID, content)

	var b strings.Builder
	b.WriteString("I understand you need additional assistance, so I've escalated your case to our human support team.\n\n")
	if c := state.Classification; c != nil {
		fmt.Fprintf(&b, "Issue: %s (urgency: %s)", c.IssueType, c.Urgency)
		if c.Summary != "" {
			fmt.Fprintf(&b, ". %s", c.Summary)
		}
		b.WriteString("\n")
	}
	if state.ResolutionAttempted {
		b.WriteString("We attempted a resolution, but this needs a human.\n")
	}
	fmt.Fprintf(&b, "\n**Ticket Reference:** %s\n", ref)
	b.WriteString("A human support agent will review your case and respond within 24 hours. Thank you for your patience.")

	s.cfg.logger.Info("session escalated", "session_id", state.SessionID, "ticket", ref)

	return domain.PartialState{
		Messages:            domain.Set([]domain.Message{assistantMessage(b.String())}),
		EscalationRequested: domain.Set(true),
		Escalated:           domain.Set(true),
	}, nil
}

// TicketReference derives a stable ESC-NNNN reference from the session and message.
func TicketReference(sessionID, content string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(content))
	return fmt.Sprintf("ESC-%04d", h.Sum32()%10000)
}
