package domain

// Field is an optional value in a PartialState. The zero value is unset.
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Get returns the value and whether it is present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field is present.
func (f Field[T]) IsSet() bool {
	return f.set
}

// FieldName identifies a State field for reducers and step contracts.
type FieldName string

const (
	FieldMessages            FieldName = "messages"
	FieldClassification      FieldName = "classification"
	FieldResolutionAttempted FieldName = "resolution_attempted"
	FieldEscalationRequested FieldName = "escalation_requested"
	FieldEscalated           FieldName = "escalated"
	FieldSignals             FieldName = "signals"
	FieldRollingSummary      FieldName = "rolling_summary"
	FieldSummaryCursor       FieldName = "summary_cursor"
	FieldActiveReferences    FieldName = "active_references"
	FieldExecutionTrace      FieldName = "execution_trace"
)

// FieldSet is a set of field names.
type FieldSet map[FieldName]struct{}

// Fields builds a FieldSet.
func Fields(names ...FieldName) FieldSet {
	fs := make(FieldSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// Has reports whether name is in the set.
func (fs FieldSet) Has(name FieldName) bool {
	_, ok := fs[name]
	return ok
}

// PartialState is the sparse update returned by a step.
// Absent fields leave the State untouched when folded.
type PartialState struct {
	// Messages holds the messages to add. With the default append policy they are
	// appended to State.Messages.
	Messages            Field[[]Message]
	Classification      Field[*Classification]
	ResolutionAttempted Field[bool]
	EscalationRequested Field[bool]
	Escalated           Field[bool]
	Signals             Field[Signals]
	RollingSummary      Field[string]
	SummaryCursor       Field[int]
	ActiveReferences    Field[[]string]

	// ExecutionTrace is reserved for the executor. Steps that set it are rejected.
	ExecutionTrace Field[[]TraceEntry]
}

// Present lists the names of the fields that are set.
func (p PartialState) Present() []FieldName {
	var out []FieldName
	add := func(ok bool, name FieldName) {
		if ok {
			out = append(out, name)
		}
	}
	add(p.Messages.IsSet(), FieldMessages)
	add(p.Classification.IsSet(), FieldClassification)
	add(p.ResolutionAttempted.IsSet(), FieldResolutionAttempted)
	add(p.EscalationRequested.IsSet(), FieldEscalationRequested)
	add(p.Escalated.IsSet(), FieldEscalated)
	add(p.Signals.IsSet(), FieldSignals)
	add(p.RollingSummary.IsSet(), FieldRollingSummary)
	add(p.SummaryCursor.IsSet(), FieldSummaryCursor)
	add(p.ActiveReferences.IsSet(), FieldActiveReferences)
	add(p.ExecutionTrace.IsSet(), FieldExecutionTrace)
	return out
}

// IsEmpty reports whether no field is set.
func (p PartialState) IsEmpty() bool {
	return len(p.Present()) == 0
}
