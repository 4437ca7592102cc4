package steps

import (
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

var escalationKeywords = []string{"escalate", "human", "agent", "manager", "supervisor", "speak to"}

var satisfactionKeywords = []string{"thanks", "thank you", "solved", "resolved", "helpful", "perfect", "great"}

// DetectSignals inspects a user message. followUp reports whether the assistant
// already replied earlier in the session; satisfaction only counts on follow-ups.
// An escalation request wins over satisfaction.
func DetectSignals(text string, followUp bool) domain.Signals {
	lower := strings.ToLower(text)
	if containsAny(lower, escalationKeywords) {
		return domain.Signals{WantsEscalation: true}
	}
	if followUp && containsAny(lower, satisfactionKeywords) {
		return domain.Signals{UserSatisfied: true}
	}
	return domain.Signals{}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
