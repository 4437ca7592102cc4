package steps

import (
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/google/uuid"
)

func assistantMessage(content string) domain.Message {
	return domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// hasPriorReply reports whether an assistant message precedes the latest user message.
func hasPriorReply(s *domain.State) bool {
	seenUser := false
	for i := len(s.Messages) - 1; i >= 0; i-- {
		switch s.Messages[i].Role {
		case domain.RoleUser:
			seenUser = true
		case domain.RoleAssistant:
			if seenUser {
				return true
			}
		}
	}
	return false
}
