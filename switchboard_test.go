package switchboard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/switchboard"
	memstore "github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...switchboard.Option) *switchboard.Engine {
	t.Helper()
	eng, err := switchboard.New(opts...)
	require.NoError(t, err)
	return eng
}

func TestSubmit_NewSessionGetsAnswer(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	resp, err := eng.Submit(ctx, switchboard.SubmitRequest{Input: "I can't log in to my account", UserID: "u1"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID, "an id is generated for new sessions")
	assert.Contains(t, resp.Reply, "trouble signing in")
	assert.Equal(t, domain.IssueLogin, resp.StateSummary.IssueType)
	assert.True(t, resp.StateSummary.ResolutionAttempted)
	assert.False(t, resp.StateSummary.Escalated)
	assert.Equal(t, 2, resp.StateSummary.Messages)
	assert.Equal(t, domain.StepMemoryUpdate, resp.StateSummary.LastStep)

	state, err := eng.Inspect(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.SummaryCursor)
	assert.NotEmpty(t, state.RollingSummary)
}

func TestSubmit_EscalationFlow(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	first, err := eng.Submit(ctx, switchboard.SubmitRequest{Input: "I was charged twice this month", UserID: "u1"})
	require.NoError(t, err)

	second, err := eng.Submit(ctx, switchboard.SubmitRequest{
		SessionID: first.SessionID,
		Input:     "this didn't help, let me speak to a human",
		UserID:    "u1",
	})
	require.NoError(t, err)
	assert.Contains(t, second.Reply, "Ticket Reference:** ESC-")
	assert.True(t, second.StateSummary.Escalated)
	assert.True(t, second.StateSummary.EscalationRequested)

	third, err := eng.Submit(ctx, switchboard.SubmitRequest{SessionID: first.SessionID, Input: "hello?", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, switchboard.AlreadyEscalatedReply, third.Reply)
	assert.True(t, third.StateSummary.Escalated, "escalation is never reset")

	cases, err := eng.Cases(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, domain.CaseEscalated, cases[0].Outcome)
	assert.Equal(t, domain.IssueBilling, cases[0].IssueType)
}

func TestSubmit_SatisfiedUserRecordsResolvedCase(t *testing.T) {
	ctx := context.Background()
	cases := memstore.NewCaseStore()
	eng := newEngine(t, switchboard.WithCaseStore(cases))

	first, err := eng.Submit(ctx, switchboard.SubmitRequest{Input: "I can't log in to my account", UserID: "u1"})
	require.NoError(t, err)

	second, err := eng.Submit(ctx, switchboard.SubmitRequest{
		SessionID: first.SessionID,
		Input:     "thanks, that solved it",
		UserID:    "u1",
	})
	require.NoError(t, err)
	assert.True(t, second.StateSummary.UserSatisfied)
	assert.False(t, second.StateSummary.Escalated)
	assert.Contains(t, second.Reply, "glad")

	recorded, err := cases.Cases(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, domain.CaseResolved, recorded[0].Outcome)
	assert.Equal(t, first.SessionID, recorded[0].SessionID)

	// A later session for the same user sees the history.
	next, err := eng.Submit(ctx, switchboard.SubmitRequest{Input: "I can't log in again", UserID: "u1"})
	require.NoError(t, err)
	assert.Contains(t, next.Reply, "similar issue with you before")
}

func TestSubmit_EmptyInput(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.Submit(context.Background(), switchboard.SubmitRequest{SessionID: "s1", Input: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestSubmit_SerializesSameSession(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := eng.Submit(ctx, switchboard.SubmitRequest{
				SessionID: "shared",
				Input:     fmt.Sprintf("my app keeps crashing, attempt %d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	state, err := eng.Inspect(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 10, "every turn appends one user and one assistant message")
	assert.Equal(t, 5, state.Attempts(domain.StepResolution, domain.OutcomeSuccess))
}

func TestSessionsAndDelete(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	resp, err := eng.Submit(ctx, switchboard.SubmitRequest{SessionID: "s1", Input: "how do I cancel my subscription"})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)

	ids, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, eng.Delete(ctx, "s1"))
	_, err = eng.Inspect(ctx, "s1")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestHooksAccumulate(t *testing.T) {
	var mu sync.Mutex
	var a, b []string
	eng := newEngine(t,
		switchboard.WithLifecycleHooks(domain.LifecycleHooks{OnStep: func(_ context.Context, e *domain.StepEvent) {
			mu.Lock()
			defer mu.Unlock()
			a = append(a, e.Step)
		}}),
		switchboard.WithLifecycleHooks(domain.LifecycleHooks{OnStep: func(_ context.Context, e *domain.StepEvent) {
			mu.Lock()
			defer mu.Unlock()
			b = append(b, e.Step)
		}}),
	)

	_, err := eng.Submit(context.Background(), switchboard.SubmitRequest{Input: "I can't log in"})
	require.NoError(t, err)

	want := []string{domain.StepClassification, domain.StepResolution, domain.StepMemoryUpdate}
	assert.Equal(t, want, a)
	assert.Equal(t, want, b)
}

func TestTools(t *testing.T) {
	eng := newEngine(t)

	names := make([]string, 0)
	for _, info := range eng.Tools() {
		names = append(names, info.Name)
	}
	assert.Contains(t, names, tools.SearchKnowledgeTool)
	assert.Contains(t, names, tools.ProcessRefundTool)

	res := eng.InvokeTool(context.Background(), "missing", nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, domain.ToolNotFound, res.Error.Kind)
}

func TestNew_UnknownEntryStep(t *testing.T) {
	_, err := switchboard.New(switchboard.WithEntryStep("nope"))
	assert.ErrorIs(t, err, domain.ErrUnknownStep)
}
