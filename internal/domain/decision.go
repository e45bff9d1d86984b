package domain

import (
	"fmt"
	"strings"
)

// ReviewNotes are the free-text notes an admin attaches to a decision
type ReviewNotes struct {
	Notes      string `json:"review_notes,omitempty"`
	AdminNotes string `json:"admin_notes,omitempty"`
}

// SponsorshipUpdates are admin adjustments applied to the intent before conversion
type SponsorshipUpdates struct {
	Description *string  `json:"description,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
}

// Decision is one admin review decision. The set of variants is closed.
type Decision interface {
	Token() ReviewDecision
	ReviewNotes() ReviewNotes
	decision()
}

type Approve struct{ Notes ReviewNotes }

type Reject struct{ Notes ReviewNotes }

type RequestChanges struct{ Notes ReviewNotes }

type ConvertToSponsorship struct {
	Notes            ReviewNotes
	Updates          *SponsorshipUpdates
	ManualConversion bool
}

type DeleteSponsorship struct{ Notes ReviewNotes }

type SuspendSponsorship struct {
	Notes  ReviewNotes
	Reason string
}

type ReactivateSponsorship struct{ Notes ReviewNotes }

func (d Approve) Token() ReviewDecision               { return ReviewDecisionApprove }
func (d Reject) Token() ReviewDecision                { return ReviewDecisionReject }
func (d RequestChanges) Token() ReviewDecision        { return ReviewDecisionRequestChanges }
func (d ConvertToSponsorship) Token() ReviewDecision  { return ReviewDecisionConvertToSponsorship }
func (d DeleteSponsorship) Token() ReviewDecision     { return ReviewDecisionDeleteSponsorship }
func (d SuspendSponsorship) Token() ReviewDecision    { return ReviewDecisionSuspendSponsorship }
func (d ReactivateSponsorship) Token() ReviewDecision { return ReviewDecisionReactivateSponsorship }

func (d Approve) ReviewNotes() ReviewNotes               { return d.Notes }
func (d Reject) ReviewNotes() ReviewNotes                { return d.Notes }
func (d RequestChanges) ReviewNotes() ReviewNotes        { return d.Notes }
func (d ConvertToSponsorship) ReviewNotes() ReviewNotes  { return d.Notes }
func (d DeleteSponsorship) ReviewNotes() ReviewNotes     { return d.Notes }
func (d SuspendSponsorship) ReviewNotes() ReviewNotes    { return d.Notes }
func (d ReactivateSponsorship) ReviewNotes() ReviewNotes { return d.Notes }

func (Approve) decision()               {}
func (Reject) decision()                {}
func (RequestChanges) decision()        {}
func (ConvertToSponsorship) decision()  {}
func (DeleteSponsorship) decision()     {}
func (SuspendSponsorship) decision()    {}
func (ReactivateSponsorship) decision() {}

// DecisionPayload is the wire form of a review request
type DecisionPayload struct {
	Decision           string              `json:"decision"`
	ReviewNotes        string              `json:"reviewNotes"`
	AdminNotes         string              `json:"adminNotes"`
	SponsorshipUpdates *SponsorshipUpdates `json:"sponsorshipUpdates,omitempty"`
	ManualConversion   bool                `json:"manualConversion"`
	Reason             string              `json:"reason"`
}

// ParseDecision builds the decision variant named by p.Decision
func ParseDecision(p DecisionPayload) (Decision, error) {
	notes := ReviewNotes{Notes: p.ReviewNotes, AdminNotes: p.AdminNotes}
	switch ReviewDecision(strings.ToLower(strings.TrimSpace(p.Decision))) {
	case ReviewDecisionApprove:
		return Approve{Notes: notes}, nil
	case ReviewDecisionReject:
		return Reject{Notes: notes}, nil
	case ReviewDecisionRequestChanges:
		return RequestChanges{Notes: notes}, nil
	case ReviewDecisionConvertToSponsorship:
		if u := p.SponsorshipUpdates; u != nil && u.Value != nil && *u.Value < 0 {
			return nil, fmt.Errorf("%w: sponsorship value must not be negative", ErrValidation)
		}
		return ConvertToSponsorship{Notes: notes, Updates: p.SponsorshipUpdates, ManualConversion: p.ManualConversion}, nil
	case ReviewDecisionDeleteSponsorship:
		return DeleteSponsorship{Notes: notes}, nil
	case ReviewDecisionSuspendSponsorship:
		reason := p.Reason
		if reason == "" {
			reason = p.ReviewNotes
		}
		return SuspendSponsorship{Notes: notes, Reason: reason}, nil
	case ReviewDecisionReactivateSponsorship:
		return ReactivateSponsorship{Notes: notes}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDecision, p.Decision)
}
