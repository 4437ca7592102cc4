package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Messages and Trace carry only the appended tail.
	Messages []Message    `json:"messages,omitempty"`
	Trace    []TraceEntry `json:"execution_trace,omitempty"`

	Classification      *Classification `json:"classification,omitempty"`
	ResolutionAttempted *bool           `json:"resolution_attempted,omitempty"`
	EscalationRequested *bool           `json:"escalation_requested,omitempty"`
	Escalated           *bool           `json:"escalated,omitempty"`
	RollingSummary      *string         `json:"rolling_summary,omitempty"`
	ActiveReferences    []string        `json:"active_references,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing observable changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = &State{}
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if n := len(oldState.Messages); len(newState.Messages) > n {
		diff.Messages = newState.Messages[n:]
	}
	if n := len(oldState.ExecutionTrace); len(newState.ExecutionTrace) > n {
		diff.Trace = newState.ExecutionTrace[n:]
	}
	if !reflect.DeepEqual(oldState.Classification, newState.Classification) {
		diff.Classification = newState.Classification
	}
	diff.ResolutionAttempted = boolDelta(oldState.ResolutionAttempted, newState.ResolutionAttempted)
	diff.EscalationRequested = boolDelta(oldState.EscalationRequested, newState.EscalationRequested)
	diff.Escalated = boolDelta(oldState.Escalated, newState.Escalated)
	if oldState.RollingSummary != newState.RollingSummary {
		s := newState.RollingSummary
		diff.RollingSummary = &s
	}
	if !reflect.DeepEqual(oldState.ActiveReferences, newState.ActiveReferences) {
		diff.ActiveReferences = newState.ActiveReferences
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func boolDelta(old, new bool) *bool {
	if old == new {
		return nil
	}
	return &new
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return len(d.Messages) == 0 &&
		len(d.Trace) == 0 &&
		d.Classification == nil &&
		d.ResolutionAttempted == nil &&
		d.EscalationRequested == nil &&
		d.Escalated == nil &&
		d.RollingSummary == nil &&
		d.ActiveReferences == nil
}
