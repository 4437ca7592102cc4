package reducer_test

import (
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/reducer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() *domain.State {
	s := domain.NewState("s1")
	s.Messages = []domain.Message{{ID: "m1", Role: domain.RoleUser, Content: "hello"}}
	s.RollingSummary = "old summary"
	s.ActiveReferences = []string{"ESC-0001"}
	return s
}

func TestFold_AbsentFieldsUntouched(t *testing.T) {
	s := seed()
	next := reducer.Default().Fold(s, domain.PartialState{})
	assert.Equal(t, s, next)
	assert.NotSame(t, s, next)
}

func TestFold_AppendMessages(t *testing.T) {
	s := seed()
	p := domain.PartialState{
		Messages: domain.Set([]domain.Message{{ID: "m2", Role: domain.RoleAssistant, Content: "hi"}}),
	}
	next := reducer.Default().Fold(s, p)

	require.Len(t, next.Messages, 2)
	assert.Equal(t, "m1", next.Messages[0].ID)
	assert.Equal(t, "m2", next.Messages[1].ID)
	assert.Len(t, s.Messages, 1, "input state must not be mutated")
}

func TestFold_ReplaceScalars(t *testing.T) {
	s := seed()
	c := domain.Classification{IssueType: domain.IssueBilling, Urgency: domain.UrgencyLow, Confidence: 0.7}
	p := domain.PartialState{
		Classification:   domain.Set(&c),
		RollingSummary:   domain.Set("new summary"),
		ActiveReferences: domain.Set([]string{"kb-1"}),
		Escalated:        domain.Set(false),
	}
	next := reducer.Default().Fold(s, p)

	assert.Equal(t, "new summary", next.RollingSummary)
	assert.Equal(t, []string{"kb-1"}, next.ActiveReferences)
	require.NotNil(t, next.Classification)
	assert.Equal(t, domain.IssueBilling, next.Classification.IssueType)
	assert.NotSame(t, &c, next.Classification)
}

func TestFold_ZeroValueIsStillAWrite(t *testing.T) {
	s := seed()
	s.EscalationRequested = true
	next := reducer.Default().Fold(s, domain.PartialState{
		EscalationRequested: domain.Set(false),
		RollingSummary:      domain.Set(""),
	})
	assert.False(t, next.EscalationRequested)
	assert.Empty(t, next.RollingSummary)
}

func TestFold_AppendFieldsNeverShrink(t *testing.T) {
	r := reducer.Default()
	s := seed()
	for i := 0; i < 5; i++ {
		before := len(s.Messages)
		beforeTrace := len(s.ExecutionTrace)
		s = r.Fold(s, domain.PartialState{
			Messages:       domain.Set([]domain.Message{}),
			ExecutionTrace: domain.Set([]domain.TraceEntry{{Step: "x", Outcome: domain.OutcomeSuccess}}),
		})
		assert.GreaterOrEqual(t, len(s.Messages), before)
		assert.Equal(t, beforeTrace+1, len(s.ExecutionTrace))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := reducer.NewRegistry()
	assert.Equal(t, reducer.Replace, r.Policy(domain.FieldMessages))

	require.NoError(t, r.Register(domain.FieldActiveReferences, reducer.Append))
	assert.Equal(t, reducer.Append, r.Policy(domain.FieldActiveReferences))

	assert.ErrorIs(t, r.Register(domain.FieldEscalated, reducer.Append), reducer.ErrAppendOnScalar)
	assert.ErrorIs(t, r.Register("nope", reducer.Replace), reducer.ErrUnknownField)
	assert.Error(t, r.Register(domain.FieldMessages, "merge"))

	s := seed()
	next := r.Fold(s, domain.PartialState{ActiveReferences: domain.Set([]string{"kb-2"})})
	assert.Equal(t, []string{"ESC-0001", "kb-2"}, next.ActiveReferences)
}
