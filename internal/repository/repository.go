// Package repository declares the storage contracts the service layer depends on.
//
// Services accept these interfaces; internal/repository/sqlite provides the
// implementation. Every method takes a context so a cancelled request aborts
// its store round trip.
package repository

import (
	"context"
	"time"

	"github.com/caridad-unsta/caridad/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// UserFilter narrows a user listing. Zero values mean "no filter".
type UserFilter struct {
	Role   model.Role
	Search string // case-insensitive substring of name or email
}

// UserSort orders a user listing. Field is one of name, email, role, createdAt.
type UserSort struct {
	Field     string
	Direction SortDirection
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, sort UserSort) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type SectionRepository interface {
	Create(ctx context.Context, section *model.DonationSection) error
	GetByID(ctx context.Context, id string) (*model.DonationSection, error)
	GetBySlug(ctx context.Context, slug string) (*model.DonationSection, error)
	List(ctx context.Context, activeOnly bool) ([]model.DonationSection, error)
	Update(ctx context.Context, section *model.DonationSection) error
	Delete(ctx context.Context, id string) error
	CountDonations(ctx context.Context, id string) (int, error)
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *model.FestiveCampaign) error
	GetByID(ctx context.Context, id string) (*model.FestiveCampaign, error)
	List(ctx context.Context) ([]model.FestiveCampaign, error)
	Update(ctx context.Context, campaign *model.FestiveCampaign) error
	Delete(ctx context.Context, id string) error
}

// DonationFilter narrows a donation listing. Empty fields mean "no filter".
type DonationFilter struct {
	SectionID string
	Status    model.DonationStatus
	UserID    string
	ListOptions
}

type DonationRepository interface {
	Create(ctx context.Context, donation *model.Donation) error
	GetByID(ctx context.Context, id string) (*model.Donation, error)
	List(ctx context.Context, filter DonationFilter) ([]model.Donation, error)
	Update(ctx context.Context, donation *model.Donation) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, sectionID string) (model.DonationStats, error)
	Facts(ctx context.Context) ([]model.DonationFact, error)
}

// ActivityFilter narrows an activity listing. Zero times leave that end open.
// Results are ordered by date ascending unless NewestFirst is set, which
// orders by creation time descending.
type ActivityFilter struct {
	From        time.Time
	To          time.Time
	ActiveOnly  bool
	NewestFirst bool
	ListOptions
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	GetByID(ctx context.Context, id string) (*model.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]model.Activity, error)
	ListJoinedBy(ctx context.Context, userID string) ([]model.Activity, error)
	Update(ctx context.Context, activity *model.Activity) error
	Delete(ctx context.Context, id string) error

	// Join registers the user. When enforceCap is true the participant count
	// is checked against MaxParticipants in the same transaction as the insert.
	Join(ctx context.Context, userID, activityID string, enforceCap bool) (*model.ActivityParticipant, error)
	Leave(ctx context.Context, userID, activityID string) error
	Participants(ctx context.Context, activityID string) ([]model.Participant, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	ListFor(ctx context.Context, userID string) ([]model.Notification, error)
	ListAll(ctx context.Context) ([]model.Notification, error)
	Deactivate(ctx context.Context, id string) error
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// ReportRepository serves the read-only dashboard queries.
type ReportRepository interface {
	Overview(ctx context.Context) (model.Overview, error)
	UserCreationTimes(ctx context.Context) ([]time.Time, error)
	ActivityStatusCounts(ctx context.Context, now time.Time) (map[string]int, error)
}
