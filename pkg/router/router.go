// Package router decides which step runs next from the session State alone.
//
// A Router is an ordered list of rules evaluated top to bottom; the first rule
// whose predicate holds names the next step (or domain.End). The final rule
// must be unconditional so that every State maps to exactly one decision.
package router

import (
	"errors"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ErrNotTotal is returned by New when the rule list has no unconditional final rule.
var ErrNotTotal = errors.New("router: last rule must be unconditional")

// Predicate is a pure boolean function over the State.
type Predicate func(s *domain.State) bool

// Rule maps a predicate to the next step.
type Rule struct {
	Name string
	// When is nil for the unconditional rule.
	When Predicate
	Next string
}

// Router evaluates rules in order.
type Router struct {
	rules []Rule
}

// New builds a router from an ordered rule list.
func New(rules ...Rule) (*Router, error) {
	if len(rules) == 0 || rules[len(rules)-1].When != nil {
		return nil, ErrNotTotal
	}
	return &Router{rules: append([]Rule(nil), rules...)}, nil
}

// MaxStepFailures is how many consecutive classification or resolution
// failures escalate the session.
const MaxStepFailures = 2

// Default returns the canonical support-desk router.
func Default() *Router {
	r, _ := New(DefaultRules()...)
	return r
}

// DefaultRules returns the canonical rule order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "escalated", When: func(s *domain.State) bool { return s.Escalated }, Next: domain.End},
		{Name: "escalation_requested", When: func(s *domain.State) bool { return s.EscalationRequested }, Next: domain.StepEscalation},
		{Name: "steps_failing", When: stepsFailing, Next: domain.StepEscalation},
		{Name: "unclassified", When: func(s *domain.State) bool { return s.Classification == nil }, Next: domain.StepClassification},
		{Name: "unresolved", When: func(s *domain.State) bool { return !s.ResolutionAttempted }, Next: domain.StepResolution},
		{Name: "user_satisfied", When: func(s *domain.State) bool { return s.Signals.UserSatisfied }, Next: domain.End},
		{Name: "wants_escalation", When: func(s *domain.State) bool { return s.Signals.WantsEscalation }, Next: domain.StepEscalation},
		{Name: "turn_answered", When: func(s *domain.State) bool { return s.TurnAnswered() }, Next: domain.End},
		{Name: "retry", Next: domain.StepResolution},
	}
}

func stepsFailing(s *domain.State) bool {
	return s.TrailingFailures(domain.StepClassification, domain.StepResolution) >= MaxStepFailures
}

// Decide returns the next step name or domain.End.
func (r *Router) Decide(s *domain.State) string {
	next, _ := r.Explain(s)
	return next
}

// Explain returns the decision and the name of the rule that produced it.
func (r *Router) Explain(s *domain.State) (next string, rule string) {
	for _, rl := range r.rules {
		if rl.When == nil || rl.When(s) {
			return rl.Next, rl.Name
		}
	}
	// unreachable: New guarantees an unconditional last rule
	last := r.rules[len(r.rules)-1]
	return last.Next, last.Name
}

// Rules returns a copy of the ordered rule list.
func (r *Router) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Targets lists the distinct step names the router can select, excluding End.
func (r *Router) Targets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rl := range r.rules {
		if rl.Next == domain.End || seen[rl.Next] {
			continue
		}
		seen[rl.Next] = true
		out = append(out, rl.Next)
	}
	return out
}
