package steps

import (
	"log/slog"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/ports"
)

// DefaultMaxReferences caps State.ActiveReferences.
const DefaultMaxReferences = 10

type config struct {
	logger        *slog.Logger
	tools         ports.ToolInvoker
	recaller      ports.Recaller
	cases         ports.CaseStore
	maxReferences int
}

// Option configures a step.
type Option func(*config)

// WithLogger sets the logger used for degraded paths.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTools sets the tool invoker used by the resolution step.
func WithTools(t ports.ToolInvoker) Option {
	return func(c *config) {
		c.tools = t
	}
}

// WithRecaller sets the long-term recaller used by the resolution step.
func WithRecaller(r ports.Recaller) Option {
	return func(c *config) {
		c.recaller = r
	}
}

// WithCaseStore sets where the memory update step records finished cases.
func WithCaseStore(cs ports.CaseStore) Option {
	return func(c *config) {
		c.cases = cs
	}
}

// WithMaxReferences caps the active references kept by the memory update step.
func WithMaxReferences(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxReferences = n
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{logger: logging.NewNop(), maxReferences: DefaultMaxReferences}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
