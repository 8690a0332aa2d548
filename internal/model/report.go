package model

import "time"

// Overview holds the headline counts of the admin dashboard.
type Overview struct {
	TotalUsers          int                    `json:"totalUsers"`
	AdminUsers          int                    `json:"adminUsers"`
	MemberUsers         int                    `json:"memberUsers"`
	ActiveActivities    int                    `json:"activeActivities"`
	TotalActivities     int                    `json:"totalActivities"`
	TotalDonations      int                    `json:"totalDonations"`
	DonationsByStatus   map[DonationStatus]int `json:"donationsByStatus"`
	TotalDonationAmount float64                `json:"totalDonationAmount"`
	TotalNotifications  int                    `json:"totalNotifications"`
	ActiveNotifications int                    `json:"activeNotifications"`
}

// SeriesPoint is one bucket of a chart series.
type SeriesPoint struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount,omitempty"`
}

// DonationFact is the minimal projection the reporting code buckets by month
// and section.
type DonationFact struct {
	Amount      float64
	Status      DonationStatus
	SectionName string
	CreatedAt   time.Time
}

// Activity status buckets of the activities-by-status chart. Upcoming and
// past activities are active ones on either side of now.
const (
	ActivityUpcoming = "upcoming"
	ActivityPast     = "past"
	ActivityInactive = "inactive"
)
