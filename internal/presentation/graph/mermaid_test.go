package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/router"
	"github.com/aretw0/switchboard/pkg/steps"
	"github.com/stretchr/testify/assert"
)

func supportWorkflow() graph.Workflow {
	workflow, finalizer := steps.Support(steps.Collaborators{})
	return graph.Workflow{Steps: workflow, Rules: router.DefaultRules(), Finalizer: finalizer}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		contains []string
	}{
		{
			name: "Fixed Nodes",
			contains: []string{
				"graph TD\n",
				`START(("start"))`,
				`router{"router"}`,
				`END(("end"))`,
				"START --> router",
			},
		},
		{
			name: "Step Shapes By Effect",
			contains: []string{
				`classification["classification"]`,
				`resolution[["resolution"]]`,
				`escalation(["escalation"])`,
				`memory_update[["memory_update"]]`,
			},
		},
		{
			name: "Rule Edges",
			contains: []string{
				`router -- "escalated" --> END`,
				`router -- "escalation_requested" --> escalation`,
				`router -- "steps_failing" --> escalation`,
				`router -- "unclassified" --> classification`,
				`router -- "retry" --> resolution`,
			},
		},
		{
			name: "Steps Return To Router",
			contains: []string{
				"classification --> router",
				"resolution --> router",
				"escalation --> router",
			},
		},
		{
			name:     "Finalizer After End",
			contains: []string{"END -.-> memory_update"},
		},
	}

	output := graph.GenerateMermaid(supportWorkflow(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, output, want)
			}
		})
	}
	assert.NotContains(t, output, "classDef", "no overlay styles without an overlay")
	assert.NotContains(t, output, "memory_update --> router")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	trace := []domain.TraceEntry{
		{Step: domain.StepClassification, Outcome: domain.OutcomeSuccess, At: time.Now()},
		{Step: domain.StepResolution, Outcome: domain.OutcomeFailure, At: time.Now()},
		{Step: domain.StepResolution, Outcome: domain.OutcomeSuccess, At: time.Now()},
		{Step: domain.StepResolution, Outcome: domain.OutcomeSuccess, At: time.Now()},
	}
	overlay := graph.OverlayFromTrace(trace)
	assert.Equal(t, domain.StepResolution, overlay.Current)
	assert.Equal(t, []string{domain.StepResolution}, overlay.Failed)

	output := graph.GenerateMermaid(supportWorkflow(), overlay)
	assert.Contains(t, output, "class classification visited;")
	assert.Contains(t, output, "class resolution failed;")
	assert.Contains(t, output, "class resolution current;")
	assert.Equal(t, 1, strings.Count(output, "class resolution visited;"), "visited steps are deduplicated")
}

func TestGenerateMermaid_SanitizesIDs(t *testing.T) {
	step := domain.StepFunc{StepName: "billing.refund-check", Class: domain.EffectReadOnly}
	r := []router.Rule{{Name: `say "hi"`, Next: "billing.refund-check"}}

	output := graph.GenerateMermaid(graph.Workflow{Steps: []domain.Step{step}, Rules: r}, nil)
	assert.Contains(t, output, `billing_refund_check["billing.refund-check"]`)
	assert.Contains(t, output, `router -- "say 'hi'" --> billing_refund_check`)
}
