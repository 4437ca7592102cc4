// Package openai implements the classifier, responder and summarizer
// collaborators over the OpenAI Responses API.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/switchboard/internal/logging"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultMaxOutputTokens bounds each completion.
	DefaultMaxOutputTokens = 512
)

// Client calls the Responses API. It satisfies ports.Classifier,
// ports.Responder and ports.Summarizer.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int
	reqOpts   []option.RequestOption
	logger    *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxOutputTokens bounds each completion.
func WithMaxOutputTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithRequestOptions passes options to the underlying SDK client (base URL, retries).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *Client) {
		c.reqOpts = append(c.reqOpts, opts...)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		model:     DefaultModel,
		maxTokens: DefaultMaxOutputTokens,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.reqOpts...)...)
	return c
}

// complete sends a single-text prompt and returns the output text.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: sdk.Int(int64(c.maxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: sdk.String(prompt)},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI Responses API failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from OpenAI Responses API")
	}

	text := strings.TrimSpace(resp.OutputText())
	c.logger.Debug("completion", "model", c.model, "chars", len(text))
	return text, nil
}
