package steps

import (
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/memory"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Collaborators groups the pluggable parts of the support workflow.
// Nil Classifier, Responder or Summarizer fall back to the offline implementations.
type Collaborators struct {
	Classifier ports.Classifier
	Responder  ports.Responder
	Summarizer ports.Summarizer
}

// Support returns the four workflow steps wired to c and opts.
// The memory update step is returned separately because it runs as the run finalizer.
func Support(c Collaborators, opts ...Option) (steps []domain.Step, finalizer domain.Step) {
	if c.Classifier == nil {
		c.Classifier = KeywordClassifier{}
	}
	if c.Responder == nil {
		c.Responder = TemplateResponder{}
	}
	if c.Summarizer == nil {
		c.Summarizer = memory.NewSummarizer()
	}
	return []domain.Step{
		Classification(c.Classifier, opts...),
		Resolution(c.Responder, opts...),
		Escalation(opts...),
	}, MemoryUpdate(c.Summarizer, opts...)
}
