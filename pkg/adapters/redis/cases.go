package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/switchboard/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// CaseStore implements ports.CaseStore with one hash per user, keyed by session id.
type CaseStore struct {
	client *backend.Client
	prefix string
}

// NewCaseStore creates a Redis-backed case store.
func NewCaseStore(client *backend.Client, prefix string) *CaseStore {
	if prefix == "" {
		prefix = "switchboard:cases:"
	}
	return &CaseStore{client: client, prefix: prefix}
}

// Record upserts the case for rec.SessionID.
func (c *CaseStore) Record(ctx context.Context, rec domain.CaseRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal case: %w", err)
	}
	if err := c.client.HSet(ctx, c.prefix+rec.UserID, rec.SessionID, data).Err(); err != nil {
		return fmt.Errorf("failed to record case: %w", err)
	}
	return nil
}

// Cases returns the user's cases, most recent first.
func (c *CaseStore) Cases(ctx context.Context, userID string) ([]domain.CaseRecord, error) {
	vals, err := c.client.HVals(ctx, c.prefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}
	out := make([]domain.CaseRecord, 0, len(vals))
	for _, v := range vals {
		var rec domain.CaseRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal case: %w", err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}
