package memory

import (
	"context"
	"regexp"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// DefaultSummaryTokens bounds the rolling summary.
const DefaultSummaryTokens = 256

// maxLineRunes caps a single digest line.
const maxLineRunes = 200

var referencePattern = regexp.MustCompile(`\b(ESC-\d{4}|kb-[a-z0-9][a-z0-9-]*)\b`)

// Summarizer builds an extractive rolling summary: one line per message, oldest
// lines dropped first once the token budget is exceeded.
type Summarizer struct {
	counter   *TokenCounter
	maxTokens int
}

// SummarizerOption configures the Summarizer.
type SummarizerOption func(*Summarizer)

// WithMaxTokens sets the token budget of the summary.
func WithMaxTokens(n int) SummarizerOption {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTokenCounter overrides the token counter.
func WithTokenCounter(tc *TokenCounter) SummarizerOption {
	return func(s *Summarizer) {
		s.counter = tc
	}
}

// NewSummarizer creates an extractive summarizer.
func NewSummarizer(opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{maxTokens: DefaultSummaryTokens}
	for _, opt := range opts {
		opt(s)
	}
	if s.counter == nil {
		s.counter = NewTokenCounter()
	}
	return s
}

// Summarize folds messages into previous and returns the new summary with the
// references mentioned in messages.
func (s *Summarizer) Summarize(_ context.Context, previous string, messages []domain.Message) (string, []string, error) {
	var lines []string
	if previous = strings.TrimSpace(previous); previous != "" {
		lines = strings.Split(previous, "\n")
	}
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		if line := digestLine(m); line != "" {
			lines = append(lines, line)
		}
	}

	for len(lines) > 1 && s.counter.Count(strings.Join(lines, "\n")) > s.maxTokens {
		lines = lines[1:]
	}

	return strings.Join(lines, "\n"), ExtractReferences(messages), nil
}

func digestLine(m domain.Message) string {
	content := strings.Join(strings.Fields(m.Content), " ")
	if content == "" {
		return ""
	}
	if r := []rune(content); len(r) > maxLineRunes {
		content = string(r[:maxLineRunes]) + "..."
	}
	return string(m.Role) + ": " + content
}

// ExtractReferences returns ticket references and knowledge article ids found in
// messages, in first-seen order and without duplicates.
func ExtractReferences(messages []domain.Message) []string {
	seen := make(map[string]bool)
	refs := []string{}
	for _, m := range messages {
		for _, ref := range referencePattern.FindAllString(m.Content, -1) {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

// LimitReferences drops duplicates from refs and keeps at most limit entries
// (the most recent ones).
func LimitReferences(refs []string, limit int) []string {
	seen := make(map[string]bool, len(refs))
	out := []string{}
	for _, ref := range refs {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
