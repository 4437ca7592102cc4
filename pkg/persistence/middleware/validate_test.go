package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationMiddleware(t *testing.T) {
	ctx := context.Background()
	underlying := NewMockStore()
	store := middleware.NewValidationMiddleware()(underlying)

	valid := domain.NewState("ok")
	require.NoError(t, store.Save(ctx, "ok", valid))

	broken := domain.NewState("broken")
	broken.Escalated = true
	err := store.Save(ctx, "broken", broken)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = underlying.Load(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "invalid state never reaches the store")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, ids)

	require.NoError(t, store.Delete(ctx, "ok"))
	_, err = store.Load(ctx, "ok")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChain_FirstIsOutermost(t *testing.T) {
	ctx := context.Background()
	underlying := NewMockStore()
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)

	store := middleware.Chain(underlying, middleware.NewValidationMiddleware(), pii)

	state := domain.NewState("s1")
	state.Messages = append(state.Messages, domain.Message{Role: domain.RoleUser, Content: "mail me at a@b.io"})
	require.NoError(t, store.Save(ctx, "s1", state))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Messages[0].Content, "a@b.io")

	broken := domain.NewState("s2")
	broken.SummaryCursor = 5
	assert.ErrorIs(t, store.Save(ctx, "s2", broken), domain.ErrInvariantViolation)
}
