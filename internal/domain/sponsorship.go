package domain

import "time"

type SponsorshipStatus string

const (
	SponsorshipStatusPending   SponsorshipStatus = "pending"
	SponsorshipStatusApproved  SponsorshipStatus = "approved"
	SponsorshipStatusRejected  SponsorshipStatus = "rejected"
	SponsorshipStatusActive    SponsorshipStatus = "active"
	SponsorshipStatusCompleted SponsorshipStatus = "completed"
	SponsorshipStatusCancelled SponsorshipStatus = "cancelled"
	SponsorshipStatusSuspended SponsorshipStatus = "suspended"
)

// CountsTowardStats reports whether the sponsorship contributes to sponsor statistics
func (s SponsorshipStatus) CountsTowardStats() bool {
	return s == SponsorshipStatusActive || s == SponsorshipStatusCompleted
}

// CountsTowardRollups reports whether the sponsorship is included in organization and event totals
func (s SponsorshipStatus) CountsTowardRollups() bool {
	return s != SponsorshipStatusCancelled
}

type TierName string

const (
	TierCommunity TierName = "community"
	TierSilver    TierName = "silver"
	TierGold      TierName = "gold"
	TierPlatinum  TierName = "platinum"
)

// Rank orders tiers: community < silver < gold < platinum
func (t TierName) Rank() int {
	switch t {
	case TierSilver:
		return 1
	case TierGold:
		return 2
	case TierPlatinum:
		return 3
	}
	return 0
}

type Tier struct {
	Name           TierName  `json:"name"`
	CalculatedFrom float64   `json:"calculated_from"`
	CalculatedAt   time.Time `json:"calculated_at"`
	ManualOverride bool      `json:"manual_override"`
}

type Contribution struct {
	Type        SponsorshipType `json:"type"`
	Description string          `json:"description"`
	Value       float64         `json:"value"`
	Currency    string          `json:"currency"`
	Delivered   bool            `json:"delivered"`
}

type Recognition struct {
	DisplayName string `json:"display_name"`
	LogoURL     string `json:"logo_url,omitempty"`
	Website     string `json:"website,omitempty"`
}

type Suspension struct {
	SuspendedBy   *int32     `json:"suspended_by,omitempty"`
	SuspendedAt   *time.Time `json:"suspended_at,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	ReactivatedBy *int32     `json:"reactivated_by,omitempty"`
	ReactivatedAt *time.Time `json:"reactivated_at,omitempty"`
}

type Sponsorship struct {
	ID           int32             `json:"id"`
	SponsorID    int32             `json:"sponsor_id"`
	OrgID        int32             `json:"org_id"`
	EventID      *int32            `json:"event_id,omitempty"`
	IntentID     *int32            `json:"intent_id,omitempty"`
	Contribution Contribution      `json:"contribution"`
	Tier         Tier              `json:"tier"`
	Recognition  Recognition       `json:"recognition"`
	Status       SponsorshipStatus `json:"status"`
	Payment      Payment           `json:"payment"`
	Suspension   Suspension        `json:"suspension"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
