package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/memory"
	"github.com/aretw0/switchboard/pkg/ports"
)

type classificationReply struct {
	IssueType  string   `json:"issue_type"`
	Urgency    string   `json:"urgency"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary"`
}

// Classify asks the model for a JSON classification. Unknown labels are
// mapped to other and medium; confidence is clamped to [0,1].
func (c *Client) Classify(ctx context.Context, messages []domain.Message) (domain.Classification, error) {
	if len(messages) == 0 {
		return domain.Classification{}, domain.ErrEmptyInput
	}
	text, err := c.complete(ctx, classifyPrompt(messages))
	if err != nil {
		return domain.Classification{}, err
	}

	var reply classificationReply
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil {
		return domain.Classification{}, fmt.Errorf("invalid classification reply: %w", err)
	}
	return domain.Classification{
		IssueType:  domain.ParseIssueType(reply.IssueType),
		Urgency:    domain.ParseUrgency(reply.Urgency),
		Confidence: min(max(reply.Confidence, 0), 1),
		Tags:       reply.Tags,
		Summary:    reply.Summary,
	}, nil
}

// Respond drafts the assistant reply.
func (c *Client) Respond(ctx context.Context, req ports.ResponseRequest) (string, error) {
	return c.complete(ctx, respondPrompt(req))
}

// Summarize folds messages into previous. References are extracted locally
// so that ticket and article ids survive paraphrasing.
func (c *Client) Summarize(ctx context.Context, previous string, messages []domain.Message) (string, []string, error) {
	if len(messages) == 0 {
		return previous, nil, nil
	}
	summary, err := c.complete(ctx, summarizePrompt(previous, messages))
	if err != nil {
		return "", nil, err
	}
	return summary, memory.ExtractReferences(messages), nil
}

// extractJSON strips markdown fences and surrounding prose from a JSON reply.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}
