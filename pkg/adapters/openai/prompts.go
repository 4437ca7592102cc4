package openai

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

const classifyInstructions = `You classify customer support requests.
Answer with a single JSON object and nothing else:
{"issue_type": one of login|subscription|reservation|billing|technical|other,
 "urgency": one of low|medium|high|critical,
 "confidence": number between 0 and 1,
 "tags": short keywords,
 "summary": one sentence}`

const respondInstructions = `You are a friendly customer support agent.
Answer the customer's latest message using the knowledge articles when they apply.
Be concise. If nothing applies, ask for details and offer to connect them with a human agent.`

const summarizeInstructions = `Update the running summary of a support conversation.
Keep issue, steps already tried, ticket references and article ids. Answer with the summary only, under 120 words.`

func transcript(messages []domain.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, strings.TrimSpace(m.Content))
	}
	return b.String()
}

func classifyPrompt(messages []domain.Message) string {
	return classifyInstructions + "\n\nConversation:\n" + transcript(messages)
}

func respondPrompt(req ports.ResponseRequest) string {
	var b strings.Builder
	b.WriteString(respondInstructions)
	if req.Classification != nil {
		fmt.Fprintf(&b, "\n\nIssue: %s (urgency %s)", req.Classification.IssueType, req.Classification.Urgency)
	}
	if req.Summary != "" {
		fmt.Fprintf(&b, "\n\nEarlier in this conversation:\n%s", req.Summary)
	}
	if req.Customer != nil {
		fmt.Fprintf(&b, "\n\nCustomer account: %s", req.Customer.String())
	}
	if !req.History.IsEmpty() {
		fmt.Fprintf(&b, "\n\nCustomer history: %s", req.History.String())
	}
	if len(req.Knowledge) > 0 {
		b.WriteString("\n\nKnowledge articles:\n")
		for _, k := range req.Knowledge {
			b.WriteString(k)
			b.WriteString("\n---\n")
		}
	}
	b.WriteString("\n\nConversation:\n")
	b.WriteString(transcript(req.Messages))
	return b.String()
}

func summarizePrompt(previous string, messages []domain.Message) string {
	var b strings.Builder
	b.WriteString(summarizeInstructions)
	if previous != "" {
		fmt.Fprintf(&b, "\n\nCurrent summary:\n%s", previous)
	}
	b.WriteString("\n\nNew messages:\n")
	b.WriteString(transcript(messages))
	return b.String()
}
