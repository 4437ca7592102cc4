package domain

import (
	"fmt"
	"math"
	"strings"
)

// IssueType is the category of a support request.
type IssueType string

const (
	IssueLogin        IssueType = "login"
	IssueSubscription IssueType = "subscription"
	IssueReservation  IssueType = "reservation"
	IssueBilling      IssueType = "billing"
	IssueTechnical    IssueType = "technical"
	IssueOther        IssueType = "other"
)

// IssueTypes lists every valid issue type.
var IssueTypes = []IssueType{
	IssueLogin,
	IssueSubscription,
	IssueReservation,
	IssueBilling,
	IssueTechnical,
	IssueOther,
}

// Valid reports whether t is one of the fixed issue types.
func (t IssueType) Valid() bool {
	for _, v := range IssueTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseIssueType maps free text onto the fixed set, defaulting to IssueOther.
func ParseIssueType(s string) IssueType {
	t := IssueType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return IssueOther
}

// Urgency is an ordered severity level.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Rank returns the ordinal of u (low=0 .. critical=3), or -1 if u is unknown.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyCritical:
		return 3
	}
	return -1
}

// ParseUrgency maps free text onto the ordered set, defaulting to UrgencyMedium.
func ParseUrgency(s string) Urgency {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	if u.Rank() >= 0 {
		return u
	}
	return UrgencyMedium
}

// Classification is the categorization of the session's issue.
type Classification struct {
	IssueType  IssueType `json:"issue_type"`
	Urgency    Urgency   `json:"urgency"`
	Confidence float64   `json:"confidence"`
	Tags       []string  `json:"tags,omitempty"`
	Summary    string    `json:"summary,omitempty"`
}

// FallbackClassification is used when automatic classification is not possible.
func FallbackClassification() Classification {
	return Classification{
		IssueType:  IssueOther,
		Urgency:    UrgencyMedium,
		Confidence: 0.5,
		Summary:    "Unable to classify automatically",
	}
}

// Clone returns a copy that does not share the tag slice.
func (c Classification) Clone() Classification {
	c.Tags = cloneSlice(c.Tags)
	return c
}

// Validate checks the classification invariants.
func (c Classification) Validate() error {
	if !c.IssueType.Valid() {
		return fmt.Errorf("unknown issue type %q", c.IssueType)
	}
	if c.Urgency.Rank() < 0 {
		return fmt.Errorf("unknown urgency %q", c.Urgency)
	}
	if math.IsNaN(c.Confidence) || c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of [0,1]", c.Confidence)
	}
	return nil
}
