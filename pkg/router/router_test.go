package router_test

import (
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classified() *domain.Classification {
	return &domain.Classification{IssueType: domain.IssueLogin, Urgency: domain.UrgencyMedium, Confidence: 0.8}
}

func TestDefault_RuleOrder(t *testing.T) {
	r := router.Default()

	tests := []struct {
		name  string
		setup func(s *domain.State)
		want  string
		rule  string
	}{
		{"fresh session classifies", func(s *domain.State) {}, domain.StepClassification, "unclassified"},
		{"escalated ends", func(s *domain.State) {
			s.Escalated, s.EscalationRequested = true, true
		}, domain.End, "escalated"},
		{"escalation request beats unclassified", func(s *domain.State) {
			s.EscalationRequested = true
		}, domain.StepEscalation, "escalation_requested"},
		{"escalation request beats unresolved", func(s *domain.State) {
			s.Classification = classified()
			s.EscalationRequested = true
		}, domain.StepEscalation, "escalation_requested"},
		{"repeated resolution failures escalate", func(s *domain.State) {
			s.Classification = classified()
			s.ExecutionTrace = []domain.TraceEntry{
				{Step: domain.StepClassification, Outcome: domain.OutcomeSuccess},
				{Step: domain.StepResolution, Outcome: domain.OutcomeTimeout},
				{Step: domain.StepResolution, Outcome: domain.OutcomeFailure},
			}
		}, domain.StepEscalation, "steps_failing"},
		{"repeated classification failures escalate", func(s *domain.State) {
			s.ExecutionTrace = []domain.TraceEntry{
				{Step: domain.StepClassification, Outcome: domain.OutcomeFailure},
				{Step: domain.StepClassification, Outcome: domain.OutcomeTimeout},
			}
		}, domain.StepEscalation, "steps_failing"},
		{"single failure retries", func(s *domain.State) {
			s.Classification = classified()
			s.ExecutionTrace = []domain.TraceEntry{
				{Step: domain.StepClassification, Outcome: domain.OutcomeSuccess},
				{Step: domain.StepResolution, Outcome: domain.OutcomeTimeout},
			}
		}, domain.StepResolution, "unresolved"},
		{"classified goes to resolution", func(s *domain.State) {
			s.Classification = classified()
		}, domain.StepResolution, "unresolved"},
		{"satisfied ends", func(s *domain.State) {
			s.Classification = classified()
			s.ResolutionAttempted = true
			s.Signals.UserSatisfied = true
		}, domain.End, "user_satisfied"},
		{"wants escalation", func(s *domain.State) {
			s.Classification = classified()
			s.ResolutionAttempted = true
			s.Signals.WantsEscalation = true
		}, domain.StepEscalation, "wants_escalation"},
		{"answered turn ends", func(s *domain.State) {
			s.Classification = classified()
			s.ResolutionAttempted = true
			s.Messages = []domain.Message{
				{Role: domain.RoleUser, Content: "my login fails"},
				{Role: domain.RoleAssistant, Content: "try resetting"},
			}
		}, domain.End, "turn_answered"},
		{"unanswered follow-up retries resolution", func(s *domain.State) {
			s.Classification = classified()
			s.ResolutionAttempted = true
			s.Messages = []domain.Message{
				{Role: domain.RoleUser, Content: "my login fails"},
				{Role: domain.RoleAssistant, Content: "try resetting"},
				{Role: domain.RoleUser, Content: "still broken"},
			}
		}, domain.StepResolution, "retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.NewState("s1")
			tt.setup(s)
			next, rule := r.Explain(s)
			assert.Equal(t, tt.want, next)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

// A classified, unresolved state with escalation requested goes to escalation, not resolution.
func TestDefault_EscalationPrecedence(t *testing.T) {
	s := domain.NewState("s1")
	s.Classification = classified()
	s.ResolutionAttempted = false
	s.EscalationRequested = true
	assert.Equal(t, domain.StepEscalation, router.Default().Decide(s))
}

func TestDefault_TotalAndDeterministic(t *testing.T) {
	r := router.Default()
	bools := []bool{false, true}
	valid := map[string]bool{
		domain.End:                true,
		domain.StepClassification: true,
		domain.StepResolution:     true,
		domain.StepEscalation:     true,
	}

	for _, escalated := range bools {
		for _, requested := range bools {
			for _, hasClass := range bools {
				for _, attempted := range bools {
					for _, satisfied := range bools {
						for _, wants := range bools {
							s := domain.NewState("s1")
							s.Escalated = escalated
							s.EscalationRequested = requested
							if hasClass {
								s.Classification = classified()
							}
							s.ResolutionAttempted = attempted
							s.Signals = domain.Signals{UserSatisfied: satisfied, WantsEscalation: wants}

							first := r.Decide(s)
							assert.True(t, valid[first], "unexpected decision %q", first)
							for i := 0; i < 3; i++ {
								assert.Equal(t, first, r.Decide(s.Snapshot()))
							}
						}
					}
				}
			}
		}
	}
}

func TestNew_RequiresUnconditionalLastRule(t *testing.T) {
	_, err := router.New()
	assert.ErrorIs(t, err, router.ErrNotTotal)

	_, err = router.New(router.Rule{Name: "only", When: func(*domain.State) bool { return true }, Next: "x"})
	assert.ErrorIs(t, err, router.ErrNotTotal)

	r, err := router.New(router.Rule{Name: "always", Next: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", r.Decide(domain.NewState("s1")))
}

func TestTargets(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{domain.StepEscalation, domain.StepClassification, domain.StepResolution},
		router.Default().Targets())
}

func TestRules_ReturnsCopy(t *testing.T) {
	r := router.Default()
	rules := r.Rules()
	require.Len(t, rules, len(router.DefaultRules()))
	rules[0].Next = "tampered"
	assert.Equal(t, domain.End, r.Rules()[0].Next)
	assert.Equal(t, "retry", rules[len(rules)-1].Name)
}
