package domain

import "time"

type IntentStatus string

const (
	IntentStatusPending          IntentStatus = "pending"
	IntentStatusUnderReview      IntentStatus = "under_review"
	IntentStatusApproved         IntentStatus = "approved"
	IntentStatusRejected         IntentStatus = "rejected"
	IntentStatusChangesRequested IntentStatus = "changes_requested"
	IntentStatusConverted        IntentStatus = "converted"
)

type SponsorshipType string

const (
	SponsorshipTypeMonetary SponsorshipType = "monetary"
	SponsorshipTypeGoods    SponsorshipType = "goods"
	SponsorshipTypeService  SponsorshipType = "service"
	SponsorshipTypeMedia    SponsorshipType = "media"
)

func (t SponsorshipType) Valid() bool {
	switch t {
	case SponsorshipTypeMonetary, SponsorshipTypeGoods, SponsorshipTypeService, SponsorshipTypeMedia:
		return true
	}
	return false
}

type SponsorType string

const (
	SponsorTypeIndividual   SponsorType = "individual"
	SponsorTypeBusiness     SponsorType = "business"
	SponsorTypeOrganization SponsorType = "organization"
)

type BusinessInfo struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
	GSTNumber   string `json:"gst_number,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
}

type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// SponsorSnapshot is the contact information captured on the intent at submission time.
// Email and phone are always present, linked account or not.
type SponsorSnapshot struct {
	UserID   *int32        `json:"user_id,omitempty"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Phone    string        `json:"phone"`
	Type     SponsorType   `json:"type"`
	Business *BusinessInfo `json:"business,omitempty"`
	Location Location      `json:"location"`
}

// SponsorshipDetails holds the type-specific part of an offer
type SponsorshipDetails struct {
	Items          []string `json:"items,omitempty"`           // goods
	ServiceScope   string   `json:"service_scope,omitempty"`   // service
	MediaChannels  []string `json:"media_channels,omitempty"`  // media
	DeliveryWindow string   `json:"delivery_window,omitempty"` // goods, service
}

type SponsorshipOffer struct {
	Type           SponsorshipType    `json:"type"`
	Description    string             `json:"description"`
	EstimatedValue float64            `json:"estimated_value"`
	Currency       string             `json:"currency"`
	Details        SponsorshipDetails `json:"details"`
}

type ReviewDecision string

const (
	ReviewDecisionApprove               ReviewDecision = "approve"
	ReviewDecisionReject                ReviewDecision = "reject"
	ReviewDecisionRequestChanges        ReviewDecision = "request_changes"
	ReviewDecisionConvertToSponsorship  ReviewDecision = "convert_to_sponsorship"
	ReviewDecisionDeleteSponsorship     ReviewDecision = "delete_sponsorship"
	ReviewDecisionSuspendSponsorship    ReviewDecision = "suspend_sponsorship"
	ReviewDecisionReactivateSponsorship ReviewDecision = "reactivate_sponsorship"
)

// Review is the last admin decision; overwritten on each re-review
type Review struct {
	Decision   ReviewDecision `json:"decision,omitempty"`
	ReviewedBy *int32         `json:"reviewed_by,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	AdminNotes string         `json:"admin_notes,omitempty"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
}

type SponsorshipIntent struct {
	ID                 int32            `json:"id"`
	OrgID              int32            `json:"org_id"`
	EventID            *int32           `json:"event_id,omitempty"`
	Sponsor            SponsorSnapshot  `json:"sponsor"`
	Sponsorship        SponsorshipOffer `json:"sponsorship"`
	Status             IntentStatus     `json:"status"`
	Review             Review           `json:"review"`
	Payment            Payment          `json:"payment"`
	ConvertedTo        *int32           `json:"converted_to,omitempty"`
	SponsorshipDeleted bool             `json:"sponsorship_deleted"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (i *SponsorshipIntent) IsMonetary() bool {
	return i.Sponsorship.Type == SponsorshipTypeMonetary
}

func (i *SponsorshipIntent) IsPaid() bool {
	return i.Payment.Status == PaymentStatusCompleted
}

// RequiresPayment reports whether conversion is blocked on a gateway or manual payment
func (i *SponsorshipIntent) RequiresPayment() bool {
	return i.IsMonetary() && !i.IsPaid()
}

// IsOwnedBy reports whether the intent's linked account is userID
func (i *SponsorshipIntent) IsOwnedBy(userID int32) bool {
	return i.Sponsor.UserID != nil && *i.Sponsor.UserID == userID
}

// IsEditableByOwner reports whether the sponsor may still edit the intent
func (i *SponsorshipIntent) IsEditableByOwner() bool {
	return i.Status != IntentStatusConverted && i.Status != IntentStatusRejected
}
