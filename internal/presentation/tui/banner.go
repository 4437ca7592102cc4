package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the switchboard banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`               _ _       _     _                         _ `, "#38bdf8"},
		{` ___ __      _(_) |_ ___| |__ | |__   ___   __ _ _ __ __| |`, "#22d3ee"},
		{`/ __|\ \ /\ / / | __/ __| '_ \| '_ \ / _ \ / _' | '__/ _' |`, "#2dd4bf"},
		{`\__ \ \ V  V /| | || (__| | | | |_) | (_) | (_| | | | (_| |`, "#34d399"},
		{`|___/  \_/\_/ |_|\__\___|_| |_|_.__/ \___/ \__,_|_|  \__,_|`, "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "%s\n\n", termenv.String("  support desk "+strings.TrimSpace(version)+"  (type 'exit' to quit)").Faint())
}
