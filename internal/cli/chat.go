package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/presentation/tui"
	"golang.org/x/term"
)

// ChatOptions configures an interactive session.
type ChatOptions struct {
	SessionID string
	UserID    string
	AccountID string
	// Headless disables the banner, prompt and markdown rendering.
	Headless bool
}

// Chat runs a REPL against the engine on stdin/stdout. A non-terminal stdin
// implies headless mode.
func Chat(ctx context.Context, eng *switchboard.Engine, opts ChatOptions) error {
	headless := opts.Headless || !term.IsTerminal(int(os.Stdin.Fd()))
	return chat(ctx, eng, opts, os.Stdin, os.Stdout, headless)
}

func chat(ctx context.Context, eng *switchboard.Engine, opts ChatOptions, in io.Reader, out io.Writer, headless bool) error {
	r := &switchboard.Runner{
		Input:     in,
		Output:    out,
		Headless:  headless,
		SessionID: opts.SessionID,
		UserID:    opts.UserID,
		AccountID: opts.AccountID,
	}
	if !headless {
		tui.PrintBanner(out, switchboard.Version)
		r.Renderer = tui.NewRenderer()
	}

	sessionID, err := r.Run(ctx, eng)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if !headless && sessionID != "" {
		fmt.Fprintf(out, ">>> Session '%s' saved. Resume with --session %s\n", sessionID, sessionID)
	}
	return err
}
