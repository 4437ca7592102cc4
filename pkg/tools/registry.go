// Package tools holds the tool registry used by the resolution step and the
// built-in support tools (knowledge search, refund requests and account lookups).
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 5 * time.Second

// ToolFunction defines the signature for a tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
// Returning an *ArgsError reports invalid arguments; any other error is a failure.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

// ArgsError marks invalid tool arguments.
type ArgsError struct {
	Msg string
}

func (e *ArgsError) Error() string { return e.Msg }

type tool struct {
	fn          ToolFunction
	description string
	timeout     time.Duration
}

// ToolOption configures a registered tool.
type ToolOption func(*tool)

// WithDescription sets the tool description shown by listings.
func WithDescription(desc string) ToolOption {
	return func(t *tool) {
		t.description = desc
	}
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) ToolOption {
	return func(t *tool) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// Registry manages the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*tool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*tool),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ToolFunction, opts ...ToolOption) {
	t := &tool{fn: fn, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = t
}

// Info describes a registered tool.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// List returns the registered tools sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.tools))
	for name, t := range r.tools {
		out = append(out, Info{Name: name, Description: t.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke looks up a tool by name and executes it under its timeout.
// It never panics and never returns an error: failures are carried in the result.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) domain.ToolResult {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return failed(name, domain.ToolNotFound, fmt.Sprintf("tool not found: %s", name))
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		v, err := t.fn(ctx, args)
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return failed(name, domain.ToolTimeout, ctx.Err().Error())
	case o := <-done:
		if o.err == nil {
			return domain.ToolResult{Name: name, Result: o.value}
		}
		var argsErr *ArgsError
		if errors.As(o.err, &argsErr) {
			return failed(name, domain.ToolInvalidArgs, argsErr.Msg)
		}
		var toolErr *domain.ToolError
		if errors.As(o.err, &toolErr) {
			return domain.ToolResult{Name: name, Error: toolErr}
		}
		if errors.Is(o.err, context.DeadlineExceeded) {
			return failed(name, domain.ToolTimeout, o.err.Error())
		}
		return failed(name, domain.ToolFailed, o.err.Error())
	}
}

func failed(name string, kind domain.ToolErrorKind, msg string) domain.ToolResult {
	return domain.ToolResult{Name: name, Error: &domain.ToolError{Kind: kind, Message: msg}}
}
