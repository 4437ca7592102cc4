package switchboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Runner drives an interactive chat against the Engine using the provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	Headless  bool
	Renderer  ContentRenderer
	SessionID string
	UserID    string
	AccountID string
}

// ContentRenderer transforms a reply before it is written (e.g. markdown to ANSI).
type ContentRenderer func(string) (string, error)

// Run reads one message per line and prints each reply until EOF, "exit" or
// "quit". It returns the session id used, which is generated when empty.
func (r *Runner) Run(ctx context.Context, engine *Engine) (string, error) {
	if r.Input == nil {
		return r.SessionID, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return r.SessionID, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)
	sessionID := r.SessionID

	for {
		if err := ctx.Err(); err != nil {
			return sessionID, err
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}

		text, err := lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return sessionID, fmt.Errorf("input error: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		input := strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return sessionID, nil
		}

		if input != "" {
			resp, err := engine.Submit(ctx, SubmitRequest{
				SessionID: sessionID,
				Input:     input,
				UserID:    r.UserID,
				AccountID: r.AccountID,
			})
			if err != nil {
				return sessionID, fmt.Errorf("submit error: %w", err)
			}
			sessionID = resp.SessionID
			r.print(resp.Reply)
		}

		if eof {
			return sessionID, nil
		}
	}
}

func (r *Runner) print(reply string) {
	if reply == "" {
		return
	}
	output := reply
	if r.Renderer != nil {
		if rendered, err := r.Renderer(reply); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}
