package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// CaseStore implements ports.CaseStore on the cases table.
type CaseStore struct {
	db *sql.DB
}

// NewCaseStore creates a case store on an opened database (see Open).
func NewCaseStore(db *sql.DB) *CaseStore {
	return &CaseStore{db: db}
}

// Record upserts the case for rec.SessionID.
func (c *CaseStore) Record(ctx context.Context, rec domain.CaseRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cases (session_id, account_id, user_id, issue_type, urgency, outcome, summary, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			account_id = excluded.account_id,
			user_id = excluded.user_id,
			issue_type = excluded.issue_type,
			urgency = excluded.urgency,
			outcome = excluded.outcome,
			summary = excluded.summary,
			recorded_at = excluded.recorded_at`,
		rec.SessionID, rec.AccountID, rec.UserID, string(rec.IssueType), string(rec.Urgency),
		string(rec.Outcome), rec.Summary, rec.RecordedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record case: %w", err)
	}
	return nil
}

// Cases returns the user's cases, most recent first.
func (c *CaseStore) Cases(ctx context.Context, userID string) ([]domain.CaseRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT session_id, account_id, user_id, issue_type, urgency, outcome, summary, recorded_at
		FROM cases WHERE user_id = ? ORDER BY recorded_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	return scanCases(rows)
}

func scanCases(rows *sql.Rows) ([]domain.CaseRecord, error) {
	out := []domain.CaseRecord{}
	for rows.Next() {
		var (
			rec                     domain.CaseRecord
			issue, urgency, outcome string
			recordedAt              int64
		)
		if err := rows.Scan(&rec.SessionID, &rec.AccountID, &rec.UserID, &issue, &urgency, &outcome, &rec.Summary, &recordedAt); err != nil {
			return nil, err
		}
		rec.IssueType = domain.IssueType(issue)
		rec.Urgency = domain.Urgency(urgency)
		rec.Outcome = domain.CaseOutcome(outcome)
		rec.RecordedAt = time.Unix(0, recordedAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
