package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

type validationMiddleware struct {
	next ports.CheckpointStore
}

// NewValidationMiddleware refuses to persist states that break the State invariants.
func NewValidationMiddleware() Middleware {
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &validationMiddleware{next: next}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("refusing to save session '%s': %w", sessionID, err)
	}
	return m.next.Save(ctx, sessionID, state)
}

func (m *validationMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *validationMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *validationMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
