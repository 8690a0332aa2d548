package model

import "time"

// Notification types used by the system itself. Administrators may use any tag.
const (
	NotificationGeneral  = "General"
	NotificationActivity = "Activity"
	NotificationDonation = "Donation"
)

// Notification is a message shown in users' feeds.
//
// Global notifications have a nil UserID and reach everyone; the others reach
// only their target user.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsGlobal  bool      `json:"isGlobal"`
	UserID    *string   `json:"userId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`

	// Read is computed per viewing user from NotificationRead rows.
	Read bool `json:"read"`
}

// NotificationRead records that a user has read a notification.
type NotificationRead struct {
	UserID         string    `json:"userId"`
	NotificationID string    `json:"notificationId"`
	ReadAt         time.Time `json:"readAt"`
}
