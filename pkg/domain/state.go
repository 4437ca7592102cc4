package domain

import (
	"fmt"
	"slices"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single turn record.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Signals is the turn-scoped verdict of the resolution step on the latest user message.
// The executor clears it whenever a new user message is ingested.
type Signals struct {
	UserSatisfied   bool `json:"user_satisfied,omitempty"`
	WantsEscalation bool `json:"wants_escalation,omitempty"`
}

// Outcome is the result of a single step attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// TraceEntry records one step attempt.
type TraceEntry struct {
	Step     string        `json:"step"`
	Outcome  Outcome       `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// State represents the current snapshot of a support session.
type State struct {
	// SessionID is the checkpoint key.
	SessionID string `json:"session_id"`

	// UserID and AccountID identify the caller for long-term recall. Both are optional.
	UserID    string `json:"user_id,omitempty"`
	AccountID string `json:"account_id,omitempty"`

	// Messages is append-only within a session.
	Messages []Message `json:"messages"`

	// Classification is nil until the classification step has run successfully.
	Classification *Classification `json:"classification,omitempty"`

	ResolutionAttempted bool `json:"resolution_attempted"`
	EscalationRequested bool `json:"escalation_requested"`

	// Escalated is terminal: once true it is never reset.
	Escalated bool `json:"escalated"`

	Signals Signals `json:"signals"`

	// RollingSummary is a bounded digest of the conversation, replaced on each memory update.
	RollingSummary string `json:"rolling_summary,omitempty"`

	// SummaryCursor counts the messages already folded into RollingSummary.
	SummaryCursor int `json:"summary_cursor"`

	// ActiveReferences holds identifiers in scope for follow-ups (ticket refs, article ids).
	ActiveReferences []string `json:"active_references,omitempty"`

	// ExecutionTrace is append-only and written by the executor only.
	ExecutionTrace []TraceEntry `json:"execution_trace"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean state for the given session.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID:      sessionID,
		Messages:       []Message{},
		ExecutionTrace: []TraceEntry{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Snapshot returns a deep copy of the state, safe to mutate independently.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Messages = cloneSlice(s.Messages)
	next.ActiveReferences = cloneSlice(s.ActiveReferences)
	next.ExecutionTrace = cloneSlice(s.ExecutionTrace)
	if s.Classification != nil {
		c := s.Classification.Clone()
		next.Classification = &c
	}
	return &next
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

// LastMessage returns the most recent message of any role.
func (s *State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LatestUserMessage returns the most recent user message.
func (s *State) LatestUserMessage() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// TurnAnswered reports whether the latest user message already has an assistant reply after it.
func (s *State) TurnAnswered() bool {
	last, ok := s.LastMessage()
	if !ok || last.Role != RoleAssistant {
		return false
	}
	_, hasUser := s.LatestUserMessage()
	return hasUser
}

// Attempts counts trace entries for a step with the given outcome.
func (s *State) Attempts(step string, outcome Outcome) int {
	n := 0
	for _, e := range s.ExecutionTrace {
		if e.Step == step && e.Outcome == outcome {
			n++
		}
	}
	return n
}

// TrailingFailures counts the failed or timed-out runs of the given steps at
// the end of the trace, stopping at their most recent success. Entries of
// other steps are skipped.
func (s *State) TrailingFailures(steps ...string) int {
	n := 0
	for i := len(s.ExecutionTrace) - 1; i >= 0; i-- {
		e := s.ExecutionTrace[i]
		if !slices.Contains(steps, e.Step) {
			continue
		}
		if e.Outcome == OutcomeSuccess {
			break
		}
		n++
	}
	return n
}

// Validate checks the state invariants.
func (s *State) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: empty session id", ErrInvariantViolation)
	}
	if s.Escalated && !s.EscalationRequested {
		return fmt.Errorf("%w: escalated without escalation_requested", ErrInvariantViolation)
	}
	if s.ResolutionAttempted && s.Attempts(StepResolution, OutcomeSuccess) == 0 {
		return fmt.Errorf("%w: resolution_attempted without a successful resolution step", ErrInvariantViolation)
	}
	if s.Classification != nil {
		if err := s.Classification.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
	}
	if s.SummaryCursor < 0 || s.SummaryCursor > len(s.Messages) {
		return fmt.Errorf("%w: summary cursor %d out of range", ErrInvariantViolation, s.SummaryCursor)
	}
	return nil
}
