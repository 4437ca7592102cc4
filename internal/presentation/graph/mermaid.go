// Package graph renders the support workflow as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/router"
)

const (
	startID  = "START"
	routerID = "router"
	endID    = "END"
)

// Workflow is the static shape of an engine: its steps, routing rules and finalizer.
type Workflow struct {
	Steps     []domain.Step
	Rules     []router.Rule
	Finalizer domain.Step
}

// Overlay contains session data to highlight on the graph.
type Overlay struct {
	Visited []string
	Failed  []string
	Current string
}

// OverlayFromTrace builds an overlay from a session's execution trace.
func OverlayFromTrace(trace []domain.TraceEntry) *Overlay {
	o := &Overlay{}
	for _, e := range trace {
		if e.Outcome == domain.OutcomeSuccess {
			o.Visited = append(o.Visited, e.Step)
		} else {
			o.Failed = append(o.Failed, e.Step)
		}
	}
	if n := len(trace); n > 0 {
		o.Current = trace[n-1].Step
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart for the workflow.
// Shapes follow the step effect:
// - Start/End: ((Circle))
// - Router: {Diamond}
// - Tool-invoking: [[Subroutine]]
// - Terminal: ([Stadium])
// - Default: [Rectangle]
// Every step returns to the router; router edges are labelled with the rule name.
func GenerateMermaid(w Workflow, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %s((\"start\"))\n", startID)
	fmt.Fprintf(&sb, "    %s{\"%s\"}\n", routerID, routerID)
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", endID)

	for _, step := range w.Steps {
		writeStep(&sb, step)
	}
	if w.Finalizer != nil {
		writeStep(&sb, w.Finalizer)
	}

	fmt.Fprintf(&sb, "    %s --> %s\n", startID, routerID)
	for _, rule := range w.Rules {
		target := endID
		if rule.Next != domain.End {
			target = sanitizeMermaidID(rule.Next)
		}
		label := strings.ReplaceAll(rule.Name, "\"", "'")
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", routerID, label, target)
	}
	for _, step := range w.Steps {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(step.Name()), routerID)
	}
	if w.Finalizer != nil {
		// runs once after every run, outside the routed loop
		fmt.Fprintf(&sb, "    %s -.-> %s\n", endID, sanitizeMermaidID(w.Finalizer.Name()))
	}

	if overlay != nil {
		writeOverlay(&sb, overlay)
	}
	return sb.String()
}

func writeStep(sb *strings.Builder, step domain.Step) {
	opener, closer := "[", "]"
	switch step.Effect() {
	case domain.EffectToolInvoking:
		opener, closer = "[[", "]]"
	case domain.EffectTerminal:
		opener, closer = "([", "])"
	}
	fmt.Fprintf(sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(step.Name()), opener, step.Name(), closer)
}

func writeOverlay(sb *strings.Builder, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// black text keeps contrast on both light and dark themes
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	writeClass(sb, overlay.Visited, "visited")
	writeClass(sb, overlay.Failed, "failed")
	if overlay.Current != "" {
		fmt.Fprintf(sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
	}
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
