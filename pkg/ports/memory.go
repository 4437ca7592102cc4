package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Summarizer folds new messages into the rolling summary.
// It must tolerate an empty previous summary and an empty message list.
type Summarizer interface {
	Summarize(ctx context.Context, previous string, messages []domain.Message) (summary string, references []string, err error)
}

// Recaller answers long-term questions about a user's past sessions within an account.
type Recaller interface {
	Recall(ctx context.Context, accountID, userID string, issue domain.IssueType) (domain.HistoricalContext, error)
}

// CaseStore persists long-term case records.
type CaseStore interface {
	// Record upserts the case for rec.SessionID.
	Record(ctx context.Context, rec domain.CaseRecord) error

	// Cases returns the user's cases, most recent first.
	Cases(ctx context.Context, userID string) ([]domain.CaseRecord, error)
}
