// Package reducer folds a step's PartialState into the session State using a
// per-field merge policy.
package reducer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Policy is how a present field is merged into the State.
type Policy string

const (
	// Append concatenates the partial value after the existing sequence.
	Append Policy = "append"
	// Replace overwrites the existing value.
	Replace Policy = "replace"
)

// ErrAppendOnScalar is returned when registering Append for a non-sequence field.
var ErrAppendOnScalar = errors.New("append policy requires a sequence field")

// ErrUnknownField is returned when registering a policy for a field the State does not have.
var ErrUnknownField = errors.New("unknown state field")

var sequenceFields = domain.Fields(
	domain.FieldMessages,
	domain.FieldActiveReferences,
	domain.FieldExecutionTrace,
)

var scalarFields = domain.Fields(
	domain.FieldClassification,
	domain.FieldResolutionAttempted,
	domain.FieldEscalationRequested,
	domain.FieldEscalated,
	domain.FieldSignals,
	domain.FieldRollingSummary,
	domain.FieldSummaryCursor,
)

// Registry maps fields to merge policies. Unregistered fields use Replace.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	policies map[domain.FieldName]Policy
}

// NewRegistry returns an empty registry (every field replaces).
func NewRegistry() *Registry {
	return &Registry{policies: make(map[domain.FieldName]Policy)}
}

// Default returns the canonical registry: messages and execution_trace append, everything else replaces.
func Default() *Registry {
	r := NewRegistry()
	r.policies[domain.FieldMessages] = Append
	r.policies[domain.FieldExecutionTrace] = Append
	return r
}

// Register sets the policy for a field.
func (r *Registry) Register(field domain.FieldName, policy Policy) error {
	if !sequenceFields.Has(field) && !scalarFields.Has(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if policy == Append && !sequenceFields.Has(field) {
		return fmt.Errorf("%w: %s", ErrAppendOnScalar, field)
	}
	if policy != Append && policy != Replace {
		return fmt.Errorf("unknown policy %q", policy)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[field] = policy
	return nil
}

// Policy returns the policy for a field.
func (r *Registry) Policy(field domain.FieldName) Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.policies[field]; ok {
		return p
	}
	return Replace
}

// Fold applies every present field of p onto a copy of s and returns the copy.
// Absent fields are left untouched. s is never mutated.
func (r *Registry) Fold(s *domain.State, p domain.PartialState) *domain.State {
	next := s.Snapshot()

	if v, ok := p.Messages.Get(); ok {
		next.Messages = foldSlice(r.Policy(domain.FieldMessages), next.Messages, v)
	}
	if v, ok := p.ActiveReferences.Get(); ok {
		next.ActiveReferences = foldSlice(r.Policy(domain.FieldActiveReferences), next.ActiveReferences, v)
	}
	if v, ok := p.ExecutionTrace.Get(); ok {
		next.ExecutionTrace = foldSlice(r.Policy(domain.FieldExecutionTrace), next.ExecutionTrace, v)
	}
	if v, ok := p.Classification.Get(); ok {
		if v == nil {
			next.Classification = nil
		} else {
			c := v.Clone()
			next.Classification = &c
		}
	}
	if v, ok := p.ResolutionAttempted.Get(); ok {
		next.ResolutionAttempted = v
	}
	if v, ok := p.EscalationRequested.Get(); ok {
		next.EscalationRequested = v
	}
	if v, ok := p.Escalated.Get(); ok {
		next.Escalated = v
	}
	if v, ok := p.Signals.Get(); ok {
		next.Signals = v
	}
	if v, ok := p.RollingSummary.Get(); ok {
		next.RollingSummary = v
	}
	if v, ok := p.SummaryCursor.Get(); ok {
		next.SummaryCursor = v
	}
	return next
}

// foldSlice never aliases the partial's backing array.
func foldSlice[T any](policy Policy, old, update []T) []T {
	if policy == Append {
		out := make([]T, 0, len(old)+len(update))
		out = append(out, old...)
		return append(out, update...)
	}
	return append([]T(nil), update...)
}
