package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := contractState(sessionID)

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assertStateEqual(t, state, loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		first := contractState(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, first))

		second := first.Snapshot()
		second.Escalated = true
		second.EscalationRequested = true
		second.Messages = append(second.Messages, domain.Message{ID: "m3", Role: domain.RoleAssistant, Content: "ticket ESC-0042"})
		require.NoError(t, store.Save(ctx, sessionID, second))
		require.NoError(t, store.Save(ctx, sessionID, second), "Save must be idempotent")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assertStateEqual(t, second, loaded)
	})

	t.Run("Loaded State Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractState(sessionID)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Messages[0].Content = "tampered"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEqual(t, "tampered", again.Messages[0].Content)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractState(sessionID)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractState(id1)))
		require.NoError(t, store.Save(ctx, id2, contractState(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Concurrent Sessions", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := sessionID + "-c" + string(rune('a'+i))
				assert.NoError(t, store.Save(ctx, id, contractState(id)))
			}(i)
		}
		wg.Wait()

		for i := 0; i < 5; i++ {
			id := sessionID + "-c" + string(rune('a'+i))
			loaded, err := store.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, loaded.SessionID)
			_ = store.Delete(ctx, id)
		}
	})
}

// RunCaseStoreContract verifies a CaseStore implementation.
func RunCaseStoreContract(t *testing.T, store CaseStore) {
	ctx := context.Background()
	user := "contract-user-" + time.Now().Format("20060102150405")
	base := time.Now().UTC().Truncate(time.Second)

	t.Run("Empty User", func(t *testing.T) {
		cases, err := store.Cases(ctx, user+"-nobody")
		require.NoError(t, err)
		assert.Empty(t, cases)
	})

	t.Run("Record and Order", func(t *testing.T) {
		require.NoError(t, store.Record(ctx, domain.CaseRecord{
			SessionID: user + "-s1", UserID: user, IssueType: domain.IssueLogin,
			Outcome: domain.CaseResolved, RecordedAt: base.Add(-time.Hour),
		}))
		require.NoError(t, store.Record(ctx, domain.CaseRecord{
			SessionID: user + "-s2", AccountID: "acme", UserID: user, IssueType: domain.IssueBilling,
			Outcome: domain.CaseEscalated, RecordedAt: base,
		}))

		cases, err := store.Cases(ctx, user)
		require.NoError(t, err)
		require.Len(t, cases, 2)
		assert.Equal(t, user+"-s2", cases[0].SessionID, "most recent first")
		assert.Equal(t, domain.IssueBilling, cases[0].IssueType)
		assert.Equal(t, "acme", cases[0].AccountID)
		assert.Empty(t, cases[1].AccountID)
		assert.Equal(t, domain.CaseResolved, cases[1].Outcome)
	})

	t.Run("Upsert By Session", func(t *testing.T) {
		require.NoError(t, store.Record(ctx, domain.CaseRecord{
			SessionID: user + "-s1", UserID: user, IssueType: domain.IssueLogin,
			Outcome: domain.CaseEscalated, RecordedAt: base.Add(time.Hour),
		}))

		cases, err := store.Cases(ctx, user)
		require.NoError(t, err)
		require.Len(t, cases, 2)
		assert.Equal(t, user+"-s1", cases[0].SessionID)
		assert.Equal(t, domain.CaseEscalated, cases[0].Outcome)
	})
}

// RunAccountStoreContract verifies an AccountStore implementation.
func RunAccountStoreContract(t *testing.T, store AccountStoreLoader) {
	ctx := context.Background()
	started := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.LoadAccount(ctx, "acme", domain.AccountData{
		Customers: []domain.Customer{
			{UserID: "a4ab87", FullName: "Alice Doe", Email: "alice@example.com",
				Subscription: &domain.Subscription{Tier: "premium", Status: "active", MonthlyQuota: 8, StartedAt: started}},
			{UserID: "b77f01", FullName: "Bob Roe", Email: "bob@example.com", Blocked: true},
		},
		Experiences: []domain.Experience{
			{ExperienceID: "exp1", Title: "Sunset Kayak Tour", Location: "Harbor", SlotsAvailable: 4, Premium: true},
			{ExperienceID: "exp2", Title: "City Food Walk", Location: "Old Town", SlotsAvailable: 0},
		},
		Reservations: []domain.Reservation{
			{ReservationID: "r2", UserID: "a4ab87", ExperienceID: "exp2", Status: domain.ReservationCancelled, CreatedAt: started.Add(48 * time.Hour)},
			{ReservationID: "r1", UserID: "a4ab87", ExperienceID: "exp1", Status: domain.ReservationReserved, CreatedAt: started.Add(24 * time.Hour)},
		},
	}))
	require.NoError(t, store.LoadAccount(ctx, "globex", domain.AccountData{
		Customers: []domain.Customer{{UserID: "a4ab87", FullName: "Alice Other", Email: "alice@globex.test"}},
	}))

	t.Run("Customer", func(t *testing.T) {
		c, err := store.Customer(ctx, "acme", "a4ab87")
		require.NoError(t, err)
		assert.Equal(t, "Alice Doe", c.FullName)
		require.NotNil(t, c.Subscription)
		assert.Equal(t, "premium", c.Subscription.Tier)
		assert.Equal(t, 8, c.Subscription.MonthlyQuota)
		assert.True(t, started.Equal(c.Subscription.StartedAt))

		bob, err := store.Customer(ctx, "acme", "b77f01")
		require.NoError(t, err)
		assert.True(t, bob.Blocked)
		assert.Nil(t, bob.Subscription)
	})

	t.Run("Scoped By Account", func(t *testing.T) {
		c, err := store.Customer(ctx, "globex", "a4ab87")
		require.NoError(t, err)
		assert.Equal(t, "Alice Other", c.FullName)

		_, err = store.Customer(ctx, "globex", "b77f01")
		assert.ErrorIs(t, err, domain.ErrAccountRecordNotFound)
		_, err = store.Customer(ctx, "initech", "a4ab87")
		assert.ErrorIs(t, err, domain.ErrAccountRecordNotFound)

		res, err := store.Reservations(ctx, "globex", "a4ab87", "")
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("Customer By Email", func(t *testing.T) {
		c, err := store.CustomerByEmail(ctx, "acme", "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, "b77f01", c.UserID)

		_, err = store.CustomerByEmail(ctx, "acme", "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrAccountRecordNotFound)
	})

	t.Run("Reservations", func(t *testing.T) {
		all, err := store.Reservations(ctx, "acme", "a4ab87", "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "r1", all[0].ReservationID, "oldest first")

		active, err := store.Reservations(ctx, "acme", "a4ab87", domain.ReservationReserved)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "exp1", active[0].ExperienceID)
	})

	t.Run("Experiences", func(t *testing.T) {
		exp, err := store.Experience(ctx, "acme", "exp1")
		require.NoError(t, err)
		assert.Equal(t, "Sunset Kayak Tour", exp.Title)
		assert.True(t, exp.Premium)

		_, err = store.Experience(ctx, "acme", "missing")
		assert.ErrorIs(t, err, domain.ErrAccountRecordNotFound)

		found, err := store.SearchExperiences(ctx, "acme", "kayak")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "exp1", found[0].ExperienceID)

		none, err := store.SearchExperiences(ctx, "globex", "kayak")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Load Replaces Account", func(t *testing.T) {
		require.NoError(t, store.LoadAccount(ctx, "globex", domain.AccountData{}))
		_, err := store.Customer(ctx, "globex", "a4ab87")
		assert.ErrorIs(t, err, domain.ErrAccountRecordNotFound)

		_, err = store.Customer(ctx, "acme", "a4ab87")
		assert.NoError(t, err, "other accounts are untouched")
	})
}

func contractState(sessionID string) *domain.State {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	state := domain.NewState(sessionID)
	state.UserID = "user-1"
	state.CreatedAt, state.UpdatedAt = ts, ts
	state.Messages = []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "I can't log in", Timestamp: ts},
		{ID: "m2", Role: domain.RoleAssistant, Content: "Try resetting your password", Timestamp: ts.Add(time.Second)},
	}
	state.Classification = &domain.Classification{
		IssueType: domain.IssueLogin, Urgency: domain.UrgencyHigh, Confidence: 0.85,
		Tags: []string{"password"}, Summary: "login failure",
	}
	state.ResolutionAttempted = true
	state.RollingSummary = "User cannot log in."
	state.SummaryCursor = 2
	state.ActiveReferences = []string{"kb-login-1"}
	state.ExecutionTrace = []domain.TraceEntry{
		{Step: domain.StepClassification, Outcome: domain.OutcomeSuccess, Duration: 3 * time.Millisecond, At: ts},
		{Step: domain.StepResolution, Outcome: domain.OutcomeSuccess, Duration: 5 * time.Millisecond, At: ts},
	}
	return state
}

// assertStateEqual compares states field by field; timestamps are compared by instant.
func assertStateEqual(t *testing.T, want, got *domain.State) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.SessionID, got.SessionID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Classification, got.Classification)
	assert.Equal(t, want.ResolutionAttempted, got.ResolutionAttempted)
	assert.Equal(t, want.EscalationRequested, got.EscalationRequested)
	assert.Equal(t, want.Escalated, got.Escalated)
	assert.Equal(t, want.Signals, got.Signals)
	assert.Equal(t, want.RollingSummary, got.RollingSummary)
	assert.Equal(t, want.SummaryCursor, got.SummaryCursor)
	assert.Equal(t, want.ActiveReferences, got.ActiveReferences)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	require.Len(t, got.Messages, len(want.Messages))
	for i := range want.Messages {
		assert.Equal(t, want.Messages[i].ID, got.Messages[i].ID)
		assert.Equal(t, want.Messages[i].Role, got.Messages[i].Role)
		assert.Equal(t, want.Messages[i].Content, got.Messages[i].Content)
		assert.True(t, want.Messages[i].Timestamp.Equal(got.Messages[i].Timestamp))
	}
	require.Len(t, got.ExecutionTrace, len(want.ExecutionTrace))
	for i := range want.ExecutionTrace {
		assert.Equal(t, want.ExecutionTrace[i].Step, got.ExecutionTrace[i].Step)
		assert.Equal(t, want.ExecutionTrace[i].Outcome, got.ExecutionTrace[i].Outcome)
		assert.Equal(t, want.ExecutionTrace[i].Duration, got.ExecutionTrace[i].Duration)
	}
}
