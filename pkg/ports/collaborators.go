package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Classifier categorizes the conversation's issue.
type Classifier interface {
	Classify(ctx context.Context, messages []domain.Message) (domain.Classification, error)
}

// ResponseRequest carries what a Responder may use to draft a reply.
type ResponseRequest struct {
	Messages       []domain.Message
	Summary        string
	Classification *domain.Classification
	History        domain.HistoricalContext
	Knowledge      []string
	// Customer is the account profile of the user; nil when unknown.
	Customer       *domain.CustomerProfile
}

// Responder drafts the assistant reply for the latest user message.
type Responder interface {
	Respond(ctx context.Context, req ResponseRequest) (string, error)
}

// ToolInvoker invokes a named tool. It never returns an error: failures are
// reported in the result.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) domain.ToolResult
}
