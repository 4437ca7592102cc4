package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := NewMockStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"
	state := domain.NewState(sessionID)
	state.Messages = append(state.Messages,
		domain.Message{Role: domain.RoleUser, Content: "my email is jdoe@example.com and ssn 999-99-9999"},
		domain.Message{Role: domain.RoleAssistant, Content: "thanks, checking your account"},
	)
	state.RollingSummary = "jdoe@example.com cannot log in"

	require.NoError(t, secureStore.Save(ctx, sessionID, state))

	// In-memory state is not modified.
	assert.Contains(t, state.Messages[0].Content, "jdoe@example.com")

	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "my email is *** and ssn ***", stored.Messages[0].Content)
	assert.Equal(t, "thanks, checking your account", stored.Messages[1].Content)
	assert.Equal(t, "*** cannot log in", stored.RollingSummary)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_PIIThenValidation(t *testing.T) {
	underlyingStore := NewMockStore()
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	store := middleware.Chain(underlyingStore, pii, middleware.NewValidationMiddleware())
	ctx := context.Background()

	bad := domain.NewState("s1")
	bad.Escalated = true
	err = store.Save(ctx, "s1", bad)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	_, err = underlyingStore.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	good := domain.NewState("s1")
	good.Messages = []domain.Message{{Role: domain.RoleUser, Content: "reach me at jdoe@example.com"}}
	require.NoError(t, store.Save(ctx, "s1", good))

	stored, err := underlyingStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "reach me at ***", stored.Messages[0].Content)
}
