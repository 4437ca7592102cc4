package steps

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

type classificationStep struct {
	classifier ports.Classifier
	cfg        *config
}

// Classification returns the step that categorizes the issue. A classifier
// error or an invalid result degrades to domain.FallbackClassification.
func Classification(classifier ports.Classifier, opts ...Option) domain.Step {
	return &classificationStep{classifier: classifier, cfg: newConfig(opts)}
}

func (s *classificationStep) Name() string          { return domain.StepClassification }
func (s *classificationStep) Effect() domain.Effect { return domain.EffectReadOnly }
func (s *classificationStep) Writes() domain.FieldSet {
	return domain.Fields(domain.FieldClassification)
}

func (s *classificationStep) Invoke(ctx context.Context, state *domain.State) (domain.PartialState, error) {
	c, err := s.classifier.Classify(ctx, state.Messages)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.PartialState{}, ctxErr
	}
	if err != nil {
		s.cfg.logger.Warn("classification failed, using fallback", "session_id", state.SessionID, "error", err)
		c = domain.FallbackClassification()
	} else {
		c = normalize(c)
		if verr := c.Validate(); verr != nil {
			s.cfg.logger.Warn("invalid classification, using fallback", "session_id", state.SessionID, "error", verr)
			c = domain.FallbackClassification()
		}
	}
	return domain.PartialState{Classification: domain.Set(&c)}, nil
}

// normalize maps free-form labels onto the fixed sets and clamps confidence.
// A NaN confidence is kept so that Validate rejects it.
func normalize(c domain.Classification) domain.Classification {
	c.IssueType = domain.ParseIssueType(string(c.IssueType))
	c.Urgency = domain.ParseUrgency(string(c.Urgency))
	c.Confidence = max(0, min(1, c.Confidence))
	return c
}
