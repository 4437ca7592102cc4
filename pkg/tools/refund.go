package tools

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/ports"
)

// RefundRequest is the result of process_refund. Refunds are never executed
// automatically; they are logged for support lead approval.
type RefundRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount,omitempty"`
	Reason string  `json:"reason"`
	Status string  `json:"status"`
}

type refundArgs struct {
	UserID string  `mapstructure:"user_id"`
	Amount float64 `mapstructure:"amount"`
	Reason string  `mapstructure:"reason"`
}

func processRefund(_ context.Context, args map[string]any) (any, error) {
	var a refundArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.UserID == "" {
		return nil, &ArgsError{Msg: "user_id is required"}
	}
	if a.Reason == "" {
		return nil, &ArgsError{Msg: "reason is required; refunds need support lead approval"}
	}
	if a.Amount < 0 {
		return nil, &ArgsError{Msg: fmt.Sprintf("invalid amount %.2f", a.Amount)}
	}
	return RefundRequest{UserID: a.UserID, Amount: a.Amount, Reason: a.Reason, Status: "pending_approval"}, nil
}

// RegisterSupportTools registers the built-in support tools over kb. The
// account lookup tools are registered only when accounts is non-nil.
func RegisterSupportTools(r *Registry, kb *KnowledgeBase, accounts ports.AccountStore) {
	r.Register(SearchKnowledgeTool, searchTool(kb, SemanticSearch),
		WithDescription("Rank knowledge base articles by similarity to a query."))
	r.Register(KeywordSearchTool, searchTool(kb, KeywordSearch),
		WithDescription("Keyword match over article titles, content and tags."))
	r.Register(ProcessRefundTool, processRefund,
		WithDescription("Log a refund request for support lead approval."))
	if accounts != nil {
		registerAccountTools(r, accounts)
	}
}
