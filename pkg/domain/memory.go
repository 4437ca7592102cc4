package domain

import (
	"fmt"
	"strings"
	"time"
)

// CaseOutcome is how a past session ended.
type CaseOutcome string

const (
	CaseResolved  CaseOutcome = "resolved"
	CaseEscalated CaseOutcome = "escalated"
)

// CaseRecord is a long-term memory entry written when a session resolves or escalates.
type CaseRecord struct {
	SessionID  string      `json:"session_id"`
	AccountID  string      `json:"account_id,omitempty"`
	UserID     string      `json:"user_id"`
	IssueType  IssueType   `json:"issue_type"`
	Urgency    Urgency     `json:"urgency,omitempty"`
	Outcome    CaseOutcome `json:"outcome"`
	Summary    string      `json:"summary,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// HistoricalContext is what long-term recall returns for a user and issue type.
// The zero value means "nothing known".
type HistoricalContext struct {
	SimilarResolved    int       `json:"similar_resolved"`
	CommonIssue        IssueType `json:"common_issue,omitempty"`
	CommonIssueCount   int       `json:"common_issue_count"`
	RecentInteractions int       `json:"recent_interactions"`
}

// IsEmpty reports whether no history is known.
func (h HistoricalContext) IsEmpty() bool {
	return h.SimilarResolved == 0 && h.CommonIssue == "" && h.RecentInteractions == 0
}

// String renders the context as a short prose hint for responders.
func (h HistoricalContext) String() string {
	if h.IsEmpty() {
		return ""
	}
	var parts []string
	if h.SimilarResolved > 0 {
		parts = append(parts, fmt.Sprintf("User has had %d similar issues resolved before.", h.SimilarResolved))
	}
	if h.CommonIssue != "" {
		parts = append(parts, fmt.Sprintf("Most common issue: %s (%d times).", h.CommonIssue, h.CommonIssueCount))
	}
	if h.RecentInteractions > 0 {
		parts = append(parts, fmt.Sprintf("Recent interactions: %d.", h.RecentInteractions))
	}
	return strings.Join(parts, " ")
}
