package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
)

// CaseStore implements ports.CaseStore in memory.
type CaseStore struct {
	mu    sync.RWMutex
	cases map[string]domain.CaseRecord // keyed by session id
}

// NewCaseStore creates an empty case store.
func NewCaseStore() *CaseStore {
	return &CaseStore{cases: make(map[string]domain.CaseRecord)}
}

// Record upserts the case for rec.SessionID.
func (c *CaseStore) Record(ctx context.Context, rec domain.CaseRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cases[rec.SessionID] = rec
	return nil
}

// Cases returns the user's cases, most recent first.
func (c *CaseStore) Cases(ctx context.Context, userID string) ([]domain.CaseRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []domain.CaseRecord{}
	for _, rec := range c.cases {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}
