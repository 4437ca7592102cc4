package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// TemplateResponder is an offline Responder that answers from knowledge snippets.
type TemplateResponder struct{}

var openers = map[domain.IssueType]string{
	domain.IssueLogin:        "Sorry you're having trouble signing in.",
	domain.IssueSubscription: "Happy to help with your subscription.",
	domain.IssueReservation:  "Let's sort out your reservation.",
	domain.IssueBilling:      "I understand billing issues are frustrating.",
	domain.IssueTechnical:    "Sorry the app is giving you trouble.",
}

// Respond drafts a reply from the request's knowledge snippets.
func (TemplateResponder) Respond(ctx context.Context, req ports.ResponseRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	if req.Classification != nil {
		if opener, ok := openers[req.Classification.IssueType]; ok {
			b.WriteString(opener)
			b.WriteString(" ")
		}
	}
	if c := req.Customer; c != nil {
		b.WriteString(accountNote(req.Classification, c))
	}
	if req.History.SimilarResolved > 0 {
		fmt.Fprintf(&b, "I see we've solved a similar issue with you before (%d times). ", req.History.SimilarResolved)
	}

	if len(req.Knowledge) == 0 {
		b.WriteString("I couldn't find an article that covers this. ")
		b.WriteString("Could you share a few more details? If you prefer, ask to speak to a human agent.")
		return b.String(), nil
	}

	b.WriteString("Here's what should help:\n\n")
	for _, k := range req.Knowledge {
		b.WriteString(k)
		b.WriteString("\n\n")
	}
	b.WriteString("Let me know if this solves it.")
	return b.String(), nil
}

// accountNote points out the account facts relevant to the issue type.
func accountNote(c *domain.Classification, p *domain.CustomerProfile) string {
	if p.Blocked {
		return "I can see your account is currently blocked, which a human agent will need to lift. "
	}
	if c == nil {
		return ""
	}
	switch c.IssueType {
	case domain.IssueSubscription, domain.IssueBilling:
		if s := p.Subscription; s != nil {
			return fmt.Sprintf("Your %s plan is %s with a monthly quota of %d. ", s.Tier, s.Status, s.MonthlyQuota)
		}
		return "I don't see an active subscription on your account. "
	case domain.IssueReservation:
		return fmt.Sprintf("You have %d active reservation(s) on file. ", p.ActiveReservations)
	}
	return ""
}
