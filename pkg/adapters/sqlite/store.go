package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/switchboard/pkg/codec"
	"github.com/aretw0/switchboard/pkg/domain"
)

// Store implements ports.CheckpointStore on a SQLite table.
type Store struct {
	db    *sql.DB
	codec codec.Codec
}

// Option configures the Store.
type Option func(*Store)

// WithCodec overrides the checkpoint codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// NewStore creates a checkpoint store on an opened database (see Open).
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, codec: codec.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save upserts the checkpoint.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.State) error {
	data, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (session_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		sessionID, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM checkpoints WHERE session_id = ?`, sessionID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return s.codec.Decode(data)
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns session IDs ordered by id.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM checkpoints ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
