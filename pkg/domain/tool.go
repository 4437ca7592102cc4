package domain

import "fmt"

// ToolErrorKind categorizes tool failures.
type ToolErrorKind string

const (
	ToolNotFound    ToolErrorKind = "not_found"
	ToolInvalidArgs ToolErrorKind = "invalid_args"
	ToolFailed      ToolErrorKind = "failed"
	ToolTimeout     ToolErrorKind = "timeout"
)

// ToolError is a tool failure carried as data.
type ToolError struct {
	Kind    ToolErrorKind `json:"kind"`
	Message string        `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s", e.Kind, e.Message)
}

// ToolResult is the outcome of a tool invocation. Exactly one of Result and Error is meaningful.
type ToolResult struct {
	Name   string     `json:"name"`
	Result any        `json:"result,omitempty"`
	Error  *ToolError `json:"error,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r ToolResult) OK() bool {
	return r.Error == nil
}
