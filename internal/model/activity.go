package model

import "time"

// Activity is a scheduled volunteer or charity event.
//
// An activity stays active past its date until an administrator deactivates it.
type Activity struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location"`
	MaxParticipants *int      `json:"maxParticipants"` // nil means unlimited
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// ParticipantCount is computed on reads.
	ParticipantCount int `json:"participantCount"`
}

// IsFull reports whether the activity has reached its participant cap.
func (a *Activity) IsFull() bool {
	return a.MaxParticipants != nil && a.ParticipantCount >= *a.MaxParticipants
}

// ActivityParticipant is the registration of one user for one activity.
// (UserID, ActivityID) is unique.
type ActivityParticipant struct {
	UserID     string    `json:"userId"`
	ActivityID string    `json:"activityId"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// Participant is a roster entry: the registration joined with the user's profile.
type Participant struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joinedAt"`
}
