package model

import "time"

// DonationStatus is the review state of a donation.
//
// STATE MACHINE:
//
//	Pending ──► Confirmed
//	   └──────► Rejected
//
// Pending is the only creation state. Administrators set the status directly;
// any of the three values may be written at any time.
type DonationStatus string

const (
	StatusPending   DonationStatus = "Pending"
	StatusConfirmed DonationStatus = "Confirmed"
	StatusRejected  DonationStatus = "Rejected"
)

// DonationStatuses lists every status in display order.
var DonationStatuses = []DonationStatus{StatusPending, StatusConfirmed, StatusRejected}

// Valid reports whether s is one of the three known statuses.
func (s DonationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// DonationKind tells monetary donations apart from in-kind (goods) donations.
type DonationKind string

const (
	KindMonetary DonationKind = "monetary"
	KindInKind   DonationKind = "in_kind"
)

// Valid reports whether k is a known kind.
func (k DonationKind) Valid() bool {
	return k == KindMonetary || k == KindInKind
}

// AnonymousDonor replaces the donor name of anonymous donations on every read path.
const AnonymousDonor = "Anonymous"

// Donation is a single self-reported contribution.
//
// Amount is in the local currency unit. An amount of zero denotes an in-kind
// donation whose goods are described in Description; see Kind.
type Donation struct {
	ID          string
	Amount      float64
	Description string
	IsAnonymous bool
	Status      DonationStatus
	UserID      string
	SectionID   string
	DonorName   string // captured at submission, independent of User.Name
	DonorEmail  string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// SectionName is joined in on reads; it is not stored with the donation.
	SectionName string
}

// Kind derives the donation kind from the amount.
func (d *Donation) Kind() DonationKind {
	if d.Amount > 0 {
		return KindMonetary
	}
	return KindInKind
}

// DonationView is the read projection of a Donation. It is the only shape in
// which donations leave the service layer.
type DonationView struct {
	ID          string         `json:"id"`
	Amount      float64        `json:"amount"`
	Kind        DonationKind   `json:"kind"`
	Description string         `json:"description"`
	IsAnonymous bool           `json:"isAnonymous"`
	Status      DonationStatus `json:"status"`
	UserID      string         `json:"userId"`
	SectionID   string         `json:"sectionId"`
	SectionName string         `json:"sectionName,omitempty"`
	DonorName   string         `json:"donorName"`
	DonorEmail  string         `json:"donorEmail,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// View projects the donation for display. Anonymous donations always render
// as AnonymousDonor with no email, whatever was stored.
func (d *Donation) View() DonationView {
	v := DonationView{
		ID:          d.ID,
		Amount:      d.Amount,
		Kind:        d.Kind(),
		Description: d.Description,
		IsAnonymous: d.IsAnonymous,
		Status:      d.Status,
		UserID:      d.UserID,
		SectionID:   d.SectionID,
		SectionName: d.SectionName,
		DonorName:   d.DonorName,
		DonorEmail:  d.DonorEmail,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.IsAnonymous {
		v.DonorName = AnonymousDonor
		v.DonorEmail = ""
	}
	return v
}

// Views projects a slice of donations.
func Views(donations []Donation) []DonationView {
	out := make([]DonationView, 0, len(donations))
	for i := range donations {
		out = append(out, donations[i].View())
	}
	return out
}

// DonationStats aggregates a set of donations.
//
// TotalAmount sums every amount regardless of kind; MonetaryAmount and
// InKindCount split the two kinds apart.
type DonationStats struct {
	TotalCount     int                    `json:"totalCount"`
	TotalAmount    float64                `json:"totalAmount"`
	MonetaryAmount float64                `json:"monetaryAmount"`
	InKindCount    int                    `json:"inKindCount"`
	CountByStatus  map[DonationStatus]int `json:"countByStatus"`
}

// NewDonationStats returns empty stats with every status present.
func NewDonationStats() DonationStats {
	counts := make(map[DonationStatus]int, len(DonationStatuses))
	for _, s := range DonationStatuses {
		counts[s] = 0
	}
	return DonationStats{CountByStatus: counts}
}
