package model

import "time"

// DonationSection is a named category donations are filed under.
//
// Slug is derived from Name at creation and never changes afterwards, so code
// that needs to recognize a section keys on Slug (or FestiveCampaignID) rather
// than on the editable display name.
type DonationSection struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description"`
	IsActive          bool      `json:"isActive"`
	FestiveCampaignID *string   `json:"festiveCampaignId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsFestive reports whether the section was created for a festive campaign.
func (s *DonationSection) IsFestive() bool {
	return s.FestiveCampaignID != nil && *s.FestiveCampaignID != ""
}
