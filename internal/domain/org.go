package domain

import "time"

type Organization struct {
	ID               int32     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	AdminEmail       string    `json:"admin_email"`
	CreatedBy        int32     `json:"created_by"`
	SponsorshipCount int32     `json:"sponsorship_count"`
	SponsorshipTotal float64   `json:"sponsorship_total"`
	CreatedOn        time.Time `json:"created_on"`
}

type Event struct {
	ID               int32     `json:"id"`
	OrgID            int32     `json:"org_id"`
	Name             string    `json:"name"`
	StartsOn         time.Time `json:"starts_on"`
	SponsorshipCount int32     `json:"sponsorship_count"`
	SponsorshipTotal float64   `json:"sponsorship_total"`
}
