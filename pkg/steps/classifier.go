package steps

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ErrUnclassifiable is returned by KeywordClassifier when no keyword matches.
var ErrUnclassifiable = errors.New("no classification keyword matched")

var issueKeywords = map[domain.IssueType][]string{
	domain.IssueLogin:        {"login", "log in", "sign in", "password", "locked out", "authentication", "2fa"},
	domain.IssueSubscription: {"subscription", "plan", "tier", "quota", "upgrade", "downgrade", "cancel my"},
	domain.IssueReservation:  {"reservation", "booking", "book", "reserve", "event", "experience"},
	domain.IssueBilling:      {"billing", "refund", "charge", "charged", "payment", "invoice", "card"},
	domain.IssueTechnical:    {"app", "crash", "error", "bug", "qr", "not loading", "broken"},
}

var urgencyKeywords = []struct {
	urgency  domain.Urgency
	keywords []string
}{
	{domain.UrgencyCritical, []string{"critical", "emergency", "fraud", "security breach", "hacked"}},
	{domain.UrgencyHigh, []string{"urgent", "asap", "immediately", "right now", "charged twice", "can't access"}},
	{domain.UrgencyLow, []string{"whenever", "no rush", "just wondering", "curious"}},
}

const maxSummaryRunes = 120

// KeywordClassifier is an offline Classifier driven by keyword tables.
type KeywordClassifier struct{}

// Classify categorizes the latest user message, using earlier user messages as
// tie-breaking context.
func (KeywordClassifier) Classify(ctx context.Context, messages []domain.Message) (domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return domain.Classification{}, err
	}

	var latest string
	var history []string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != domain.RoleUser {
			continue
		}
		if latest == "" {
			latest = messages[i].Content
			continue
		}
		history = append(history, messages[i].Content)
	}
	if strings.TrimSpace(latest) == "" {
		return domain.Classification{}, domain.ErrEmptyInput
	}

	text := strings.ToLower(latest)
	prior := strings.ToLower(strings.Join(history, " "))

	best, bestScore := domain.IssueOther, 0.0
	var tags []string
	for _, issue := range domain.IssueTypes {
		score := 0.0
		for _, k := range issueKeywords[issue] {
			if strings.Contains(text, k) {
				score++
				tags = append(tags, k)
			} else if strings.Contains(prior, k) {
				score += 0.25
			}
		}
		if score > bestScore {
			best, bestScore = issue, score
		}
	}
	if bestScore == 0 {
		return domain.Classification{}, ErrUnclassifiable
	}

	sort.Strings(tags)
	return domain.Classification{
		IssueType:  best,
		Urgency:    detectUrgency(text),
		Confidence: min(0.5+0.15*bestScore, 0.95),
		Tags:       tags,
		Summary:    truncate(latest, maxSummaryRunes),
	}, nil
}

func detectUrgency(text string) domain.Urgency {
	for _, u := range urgencyKeywords {
		if containsAny(text, u.keywords) {
			return u.urgency
		}
	}
	return domain.UrgencyMedium
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
