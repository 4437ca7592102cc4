package memory_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(role domain.Role, content string) domain.Message {
	return domain.Message{Role: role, Content: content}
}

func TestSummarizer_EmptyInput(t *testing.T) {
	s := memory.NewSummarizer()

	summary, refs, err := s.Summarize(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, summary)
	assert.Empty(t, refs)

	summary, _, err = s.Summarize(context.Background(), "user: hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "user: hello", summary)
}

func TestSummarizer_AppendsDigestLines(t *testing.T) {
	s := memory.NewSummarizer()

	summary, _, err := s.Summarize(context.Background(), "user: I can't log in", []domain.Message{
		msg(domain.RoleAssistant, "Try   resetting\nyour password"),
		msg(domain.RoleSystem, "internal note"),
		msg(domain.RoleUser, "   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "user: I can't log in\nassistant: Try resetting your password", summary)
}

func TestSummarizer_RespectsTokenBudget(t *testing.T) {
	counter := memory.NewTokenCounter()
	s := memory.NewSummarizer(memory.WithMaxTokens(40), memory.WithTokenCounter(counter))

	var msgs []domain.Message
	for i := 0; i < 30; i++ {
		msgs = append(msgs, msg(domain.RoleUser, fmt.Sprintf("message number %d about my reservation", i)))
	}

	summary, _, err := s.Summarize(context.Background(), "", msgs)
	require.NoError(t, err)
	assert.LessOrEqual(t, counter.Count(summary), 40)
	assert.True(t, strings.HasSuffix(summary, "message number 29 about my reservation"))
	assert.NotContains(t, summary, "message number 0 ")
}

func TestExtractReferences(t *testing.T) {
	refs := memory.ExtractReferences([]domain.Message{
		msg(domain.RoleAssistant, "Your ticket is ESC-0042, see kb-login-reset."),
		msg(domain.RoleUser, "About ESC-0042 again"),
		msg(domain.RoleUser, "ESC-12 is not a reference"),
	})
	assert.Equal(t, []string{"ESC-0042", "kb-login-reset"}, refs)
}

func TestLimitReferences(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, memory.LimitReferences([]string{"a", "b", "b", "c"}, 0))
	assert.Equal(t, []string{"b", "c"}, memory.LimitReferences([]string{"a", "b", "c"}, 2))
	assert.Equal(t, []string{}, memory.LimitReferences(nil, 5))
}

func TestTokenCounter_NilFallsBack(t *testing.T) {
	var tc *memory.TokenCounter
	assert.Equal(t, 2, tc.Count("12345678"))
	assert.Positive(t, memory.NewTokenCounter().Count("hello world"))
}
