package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

const (
	historyWindow = 20
	recentWindow  = 3
)

// HistoryRecaller derives a HistoricalContext from a user's case records.
type HistoryRecaller struct {
	cases ports.CaseStore
}

// NewHistoryRecaller creates a recaller over cases.
func NewHistoryRecaller(cases ports.CaseStore) *HistoryRecaller {
	return &HistoryRecaller{cases: cases}
}

// Recall summarizes the user's last cases in accountID: how many of the same
// issue type were resolved, the most common issue type, and the number of
// recent interactions.
func (r *HistoryRecaller) Recall(ctx context.Context, accountID, userID string, issue domain.IssueType) (domain.HistoricalContext, error) {
	var hc domain.HistoricalContext
	if userID == "" {
		return hc, nil
	}

	all, err := r.cases.Cases(ctx, userID)
	if err != nil {
		return hc, fmt.Errorf("failed to load cases for user '%s': %w", userID, err)
	}
	cases := all[:0:0]
	for _, c := range all {
		if c.AccountID == accountID {
			cases = append(cases, c)
		}
	}
	if len(cases) > historyWindow {
		cases = cases[:historyWindow]
	}

	counts := make(map[domain.IssueType]int)
	for _, c := range cases {
		if c.Outcome == domain.CaseResolved && c.IssueType == issue {
			hc.SimilarResolved++
		}
		if c.IssueType != "" {
			counts[c.IssueType]++
		}
	}

	// Ties resolve to the first type in domain.IssueTypes order.
	for _, t := range domain.IssueTypes {
		if counts[t] > hc.CommonIssueCount {
			hc.CommonIssue, hc.CommonIssueCount = t, counts[t]
		}
	}

	hc.RecentInteractions = min(len(cases), recentWindow)
	return hc, nil
}

// SafeRecall calls r and degrades any failure to an empty context.
// A nil recaller yields an empty context.
func SafeRecall(ctx context.Context, r ports.Recaller, logger *slog.Logger, accountID, userID string, issue domain.IssueType) domain.HistoricalContext {
	if r == nil {
		return domain.HistoricalContext{}
	}
	hc, err := r.Recall(ctx, accountID, userID, issue)
	if err != nil {
		if logger != nil {
			logger.Warn("long-term recall failed", "account_id", accountID, "user_id", userID, "error", err)
		}
		return domain.HistoricalContext{}
	}
	return hc
}
