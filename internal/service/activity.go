package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

const (
	MaxActivityTitleLength       = 150
	MaxActivityDescriptionLength = 2000
	MaxActivityLocationLength    = 200
)

// ActivityService manages activities and their registrations.
//
// With enforceCap set, Join refuses registrations once MaxParticipants is
// reached; the count and the insert run in one store transaction. Without it
// the cap is informational and joins past it are accepted.
type ActivityService struct {
	activities repository.ActivityRepository
	notifier   Notifier
	enforceCap bool
	logger     *slog.Logger
}

func NewActivityService(activities repository.ActivityRepository, notifier Notifier, enforceCap bool, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		notifier:   notifier,
		enforceCap: enforceCap,
		logger:     logger,
	}
}

// ActivityInput creates an activity. A nil MaxParticipants means unlimited;
// IsActive defaults to true.
type ActivityInput struct {
	Title           string
	Description     string
	Date            time.Time
	Location        string
	MaxParticipants *int
	IsActive        *bool
}

// ActivityPatch is a partial update. ClearMaxParticipants removes the cap.
type ActivityPatch struct {
	Title                *string
	Description          *string
	Date                 *time.Time
	Location             *string
	MaxParticipants      *int
	ClearMaxParticipants bool
	IsActive             *bool
}

// Create schedules an activity and announces it to everyone.
func (s *ActivityService) Create(ctx context.Context, in ActivityInput) (*model.Activity, error) {
	title, err := validateActivityTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperror.ValidationFailed("date", "activity date is required")
	}
	if err := validateCapacity(in.MaxParticipants); err != nil {
		return nil, err
	}
	description, location, err := validateActivityText(in.Description, in.Location)
	if err != nil {
		return nil, err
	}

	activity := &model.Activity{
		Title:           title,
		Description:     description,
		Date:            in.Date,
		Location:        location,
		MaxParticipants: in.MaxParticipants,
		IsActive:        true,
	}
	if in.IsActive != nil {
		activity.IsActive = *in.IsActive
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	s.logger.Info("activity created",
		slog.String("activityID", activity.ID),
		slog.String("title", activity.Title),
	)

	if activity.IsActive {
		notifyBestEffort(ctx, s.notifier, s.logger, &model.Notification{
			Title:    "New activity: " + activity.Title,
			Message:  fmt.Sprintf("%s on %s. Registration is open.", activity.Title, activity.Date.Format("2006-01-02 15:04")),
			Type:     model.NotificationActivity,
			IsGlobal: true,
			IsActive: true,
		})
	}
	return activity, nil
}

func (s *ActivityService) Get(ctx context.Context, id string) (*model.Activity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "activity ID is required")
	}
	return s.activities.GetByID(ctx, id)
}

// ListByDateRange returns activities whose date lies in [from, to], by date.
// A zero bound leaves that end open.
func (s *ActivityService) ListByDateRange(ctx context.Context, from, to time.Time, activeOnly bool) ([]model.Activity, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperror.ValidationFailed("end", "end of range must not be before its start")
	}
	activities, err := s.activities.List(ctx, repository.ActivityFilter{
		From:       from,
		To:         to,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		s.logger.Error("failed to list activities", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	return activities, nil
}

// Recent returns the most recently created activities.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]model.Activity, error) {
	activities, err := s.activities.List(ctx, repository.ActivityFilter{
		NewestFirst: true,
		ListOptions: repository.ListOptions{Limit: clampRecent(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("listing recent activities: %w", err)
	}
	return activities, nil
}

func (s *ActivityService) Update(ctx context.Context, id string, patch ActivityPatch) (*model.Activity, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if activity.Title, err = validateActivityTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	description, location := activity.Description, activity.Location
	if patch.Description != nil {
		description = *patch.Description
	}
	if patch.Location != nil {
		location = *patch.Location
	}
	if activity.Description, activity.Location, err = validateActivityText(description, location); err != nil {
		return nil, err
	}
	if patch.Date != nil {
		if patch.Date.IsZero() {
			return nil, apperror.ValidationFailed("date", "activity date is required")
		}
		activity.Date = *patch.Date
	}
	switch {
	case patch.ClearMaxParticipants:
		activity.MaxParticipants = nil
	case patch.MaxParticipants != nil:
		if err := validateCapacity(patch.MaxParticipants); err != nil {
			return nil, err
		}
		if *patch.MaxParticipants < activity.ParticipantCount {
			return nil, apperror.ValidationFailed("maxParticipants",
				fmt.Sprintf("activity already has %d participants", activity.ParticipantCount))
		}
		activity.MaxParticipants = patch.MaxParticipants
	}
	if patch.IsActive != nil {
		activity.IsActive = *patch.IsActive
	}

	if err := s.activities.Update(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// Delete removes the activity together with its registrations.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "activity ID is required")
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("activity deleted", slog.String("activityID", id))
	return nil
}

// Join registers the user. Joining twice is a ConflictError, as is joining an
// inactive activity or, when capacity is enforced, a full one.
func (s *ActivityService) Join(ctx context.Context, userID, activityID string) (*model.ActivityParticipant, error) {
	userID, activityID = strings.TrimSpace(userID), strings.TrimSpace(activityID)
	if userID == "" || activityID == "" {
		return nil, apperror.ValidationFailed("activityId", "user and activity are required")
	}

	participant, err := s.activities.Join(ctx, userID, activityID, s.enforceCap)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("registration refused",
				slog.String("activityID", activityID),
				slog.String("userID", userID),
				slog.String("reason", err.Error()),
			)
		}
		return nil, err
	}
	return participant, nil
}

// Leave cancels a registration. NotFoundError when there is none.
func (s *ActivityService) Leave(ctx context.Context, userID, activityID string) error {
	userID, activityID = strings.TrimSpace(userID), strings.TrimSpace(activityID)
	if userID == "" || activityID == "" {
		return apperror.ValidationFailed("activityId", "user and activity are required")
	}
	return s.activities.Leave(ctx, userID, activityID)
}

// Participants returns the roster of an existing activity.
func (s *ActivityService) Participants(ctx context.Context, activityID string) ([]model.Participant, error) {
	activity, err := s.Get(ctx, activityID)
	if err != nil {
		return nil, err
	}
	participants, err := s.activities.Participants(ctx, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("listing participants of %s: %w", activity.ID, err)
	}
	return participants, nil
}

// JoinedBy returns the activities a user is registered for.
func (s *ActivityService) JoinedBy(ctx context.Context, userID string) ([]model.Activity, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	activities, err := s.activities.ListJoinedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities joined by %s: %w", userID, err)
	}
	return activities, nil
}

func validateActivityTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "activity title is required")
	}
	if len(title) > MaxActivityTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("activity title must be %d characters or less", MaxActivityTitleLength))
	}
	return title, nil
}

func validateActivityText(description, location string) (string, string, error) {
	description, location = strings.TrimSpace(description), strings.TrimSpace(location)
	if len(description) > MaxActivityDescriptionLength {
		return "", "", apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxActivityDescriptionLength))
	}
	if len(location) > MaxActivityLocationLength {
		return "", "", apperror.ValidationFailed("location",
			fmt.Sprintf("location must be %d characters or less", MaxActivityLocationLength))
	}
	return description, location, nil
}

func validateCapacity(capacity *int) error {
	if capacity != nil && *capacity <= 0 {
		return apperror.ValidationFailed("maxParticipants", "maximum participants must be a positive number")
	}
	return nil
}
