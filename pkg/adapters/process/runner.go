// Package process exposes allow-listed local commands as support tools.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/tools"
)

// ArgEnvPrefix prefixes the environment variables carrying tool arguments.
const ArgEnvPrefix = "SWITCHBOARD_ARG_"

var argKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Runner executes local processes from a strict allow-list.
type Runner struct {
	registry map[string]ToolConfig
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithTools populates the allow-list from a loaded config.
func WithTools(list []ToolConfig) RunnerOption {
	return func(r *Runner) {
		for _, tool := range list {
			r.registry[tool.Name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ToolConfig),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(tool ToolConfig) {
	r.registry[tool.Name] = tool
}

// RegisterAll adds every allow-listed command to the tool registry.
func (r *Runner) RegisterAll(reg *tools.Registry) {
	for name, tool := range r.registry {
		opts := []tools.ToolOption{tools.WithTimeout(tool.Timeout)}
		if tool.Description != "" {
			opts = append(opts, tools.WithDescription(tool.Description))
		}
		reg.Register(name, r.Tool(name), opts...)
	}
}

// Tool returns a tool function running the named command.
// Arguments are passed as SWITCHBOARD_ARG_<KEY> environment variables, never as
// command-line flags. JSON output is decoded; anything else is returned as text.
func (r *Runner) Tool(name string) tools.ToolFunction {
	return func(ctx context.Context, args map[string]any) (any, error) {
		proc, ok := r.registry[name]
		if !ok {
			return nil, fmt.Errorf("process tool not registered: %s", name)
		}

		env, err := argEnv(args)
		if err != nil {
			return nil, err
		}

		cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
		cmd.Dir = r.baseDir
		cmd.Env = cmd.Environ()
		for k, v := range proc.Environment {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		cmd.Env = append(cmd.Env, env...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		r.logger.Debug("running process tool", "tool", name, "command", proc.Command)
		if err := cmd.Run(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String()))
		}
		return decodeOutput(stdout.String()), nil
	}
}

func argEnv(args map[string]any) ([]string, error) {
	env := make([]string, 0, len(args))
	for k, v := range args {
		if !argKeyPattern.MatchString(k) {
			return nil, &tools.ArgsError{Msg: fmt.Sprintf("invalid argument name %q", k)}
		}
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if data, err := json.Marshal(v); err == nil {
				val = string(data)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, ArgEnvPrefix+strings.ToUpper(k)+"="+val)
	}
	return env, nil
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
