package model

import "time"

// FestiveCampaign is a time-boxed themed donation drive.
//
// Each campaign is paired with a DonationSection created alongside it.
// SectionID stays nil when that paired creation failed.
type FestiveCampaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   Date      `json:"startDate"`
	EndDate     Date      `json:"endDate"`
	IsEnabled   bool      `json:"isEnabled"`
	Icon        string    `json:"icon"`
	Gradient    string    `json:"gradient"`
	BgGradient  string    `json:"bgGradient"`
	Items       []string  `json:"items"` // suggested items, in display order
	SectionID   *string   `json:"sectionId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsRunning reports whether the campaign is enabled and now falls inside its date range.
func (c *FestiveCampaign) IsRunning(now time.Time) bool {
	return c.IsEnabled && c.StartDate.Contains(c.EndDate, now)
}
