package steps_test

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(content string) domain.Message {
	return domain.Message{ID: content, Role: domain.RoleUser, Content: content}
}

func assistantMsg(content string) domain.Message {
	return domain.Message{ID: content, Role: domain.RoleAssistant, Content: content}
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		issue   domain.IssueType
		urgency domain.Urgency
	}{
		{"login", "I forgot my password and can't log in", domain.IssueLogin, domain.UrgencyMedium},
		{"billing urgent", "I was charged twice, please refund asap", domain.IssueBilling, domain.UrgencyHigh},
		{"reservation low", "Just wondering how to cancel a booking", domain.IssueReservation, domain.UrgencyLow},
		{"technical critical", "The app shows an error and I think I was hacked", domain.IssueTechnical, domain.UrgencyCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := steps.KeywordClassifier{}.Classify(context.Background(), []domain.Message{userMsg(tt.text)})
			require.NoError(t, err)
			assert.Equal(t, tt.issue, c.IssueType)
			assert.Equal(t, tt.urgency, c.Urgency)
			assert.NoError(t, c.Validate())
			assert.NotEmpty(t, c.Tags)
			assert.Equal(t, tt.text, c.Summary)
		})
	}
}

func TestKeywordClassifier_NoMatch(t *testing.T) {
	_, err := steps.KeywordClassifier{}.Classify(context.Background(), []domain.Message{userMsg("hello there")})
	assert.ErrorIs(t, err, steps.ErrUnclassifiable)

	_, err = steps.KeywordClassifier{}.Classify(context.Background(), []domain.Message{assistantMsg("hi")})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestDetectSignals(t *testing.T) {
	assert.Equal(t, domain.Signals{WantsEscalation: true}, steps.DetectSignals("Let me speak to a manager", false))
	assert.Equal(t, domain.Signals{WantsEscalation: true}, steps.DetectSignals("thanks but I want a human", true))
	assert.Equal(t, domain.Signals{UserSatisfied: true}, steps.DetectSignals("Thank you, that solved it", true))
	assert.Equal(t, domain.Signals{}, steps.DetectSignals("Thanks in advance, my login fails", false))
	assert.Equal(t, domain.Signals{}, steps.DetectSignals("it still fails", true))
}
