package domain

import "time"

// SponsorStats is derived data; it is always recomputed from sponsorship rows
type SponsorStats struct {
	TotalContribution      float64    `json:"total_contribution"`
	SponsorshipCount       int32      `json:"sponsorship_count"`
	MaxContribution        float64    `json:"max_contribution"`
	OrganizationsSupported int32      `json:"organizations_supported"`
	EventsSupported        int32      `json:"events_supported"`
	Tier                   TierName   `json:"tier"`
	UpdatedAt              *time.Time `json:"updated_at,omitempty"`
}

// Sponsor is the sponsor profile of a user account; there is at most one per account
type Sponsor struct {
	ID        int32         `json:"id"`
	UserID    int32         `json:"user_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Type      SponsorType   `json:"type"`
	Business  *BusinessInfo `json:"business,omitempty"`
	Location  Location      `json:"location"`
	Stats     SponsorStats  `json:"stats"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PatchFrom copies newer non-empty contact fields from an intent snapshot.
// It reports whether anything changed.
func (s *Sponsor) PatchFrom(snap SponsorSnapshot) bool {
	changed := false
	if snap.Name != "" && snap.Name != s.Name {
		s.Name = snap.Name
		changed = true
	}
	if snap.Email != "" && snap.Email != s.Email {
		s.Email = snap.Email
		changed = true
	}
	if snap.Phone != "" && snap.Phone != s.Phone {
		s.Phone = snap.Phone
		changed = true
	}
	if snap.Type != "" && snap.Type != s.Type {
		s.Type = snap.Type
		changed = true
	}
	if snap.Business != nil && (s.Business == nil || *snap.Business != *s.Business) {
		b := *snap.Business
		s.Business = &b
		changed = true
	}
	if snap.Location != (Location{}) && snap.Location != s.Location {
		s.Location = snap.Location
		changed = true
	}
	return changed
}
