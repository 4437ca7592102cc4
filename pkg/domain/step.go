package domain

import "context"

// Canonical step names.
const (
	StepClassification = "classification"
	StepResolution     = "resolution"
	StepEscalation     = "escalation"
	StepMemoryUpdate   = "memory_update"

	// End is the routing sentinel that terminates a run.
	End = "END"
)

// Effect classifies the side effects a step may perform.
type Effect string

const (
	EffectReadOnly     Effect = "read_only"
	EffectToolInvoking Effect = "tool_invoking"
	EffectTerminal     Effect = "terminal"
)

// Step is a unit of work in the graph. Invoke receives a snapshot of the State
// and must not retain or mutate it; its effect on the session is the returned PartialState.
type Step interface {
	Name() string
	Effect() Effect
	// Writes declares the fields the step may set in its PartialState.
	Writes() FieldSet
	Invoke(ctx context.Context, state *State) (PartialState, error)
}

// StepFunc adapts a plain function into a Step.
type StepFunc struct {
	StepName string
	Class    Effect
	Fields   FieldSet
	Fn       func(ctx context.Context, state *State) (PartialState, error)
}

func (s StepFunc) Name() string     { return s.StepName }
func (s StepFunc) Effect() Effect   { return s.Class }
func (s StepFunc) Writes() FieldSet { return s.Fields }

func (s StepFunc) Invoke(ctx context.Context, state *State) (PartialState, error) {
	return s.Fn(ctx, state)
}
