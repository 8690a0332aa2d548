package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

const (
	MaxNotificationTitleLength   = 150
	MaxNotificationMessageLength = 2000
	MaxNotificationTypeLength    = 32
)

// NotificationService is the notification feed. It also implements Notifier
// for the services that emit system notifications.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

var _ Notifier = (*NotificationService)(nil)

func NewNotificationService(notifications repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// Create posts a notification. An empty userID makes it global; an empty
// type defaults to General.
func (s *NotificationService) Create(ctx context.Context, title, message, kind, userID string) (*model.Notification, error) {
	n := &model.Notification{
		Title:    title,
		Message:  message,
		Type:     kind,
		IsActive: true,
	}
	if userID = strings.TrimSpace(userID); userID == "" {
		n.IsGlobal = true
	} else {
		n.UserID = &userID
	}
	if err := s.Publish(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Publish validates and stores n as given.
func (s *NotificationService) Publish(ctx context.Context, n *model.Notification) error {
	n.Title = strings.TrimSpace(n.Title)
	n.Message = strings.TrimSpace(n.Message)
	n.Type = strings.TrimSpace(n.Type)

	switch {
	case n.Title == "":
		return apperror.ValidationFailed("title", "title is required")
	case len(n.Title) > MaxNotificationTitleLength:
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxNotificationTitleLength))
	case n.Message == "":
		return apperror.ValidationFailed("message", "message is required")
	case len(n.Message) > MaxNotificationMessageLength:
		return apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxNotificationMessageLength))
	case len(n.Type) > MaxNotificationTypeLength:
		return apperror.ValidationFailed("type",
			fmt.Sprintf("type must be %d characters or less", MaxNotificationTypeLength))
	}
	if n.Type == "" {
		n.Type = model.NotificationGeneral
	}
	if n.IsGlobal == (n.UserID != nil) {
		return apperror.ValidationFailed("userId", "a notification is either global or targeted at one user")
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}
	s.logger.Debug("notification created",
		slog.String("notificationID", n.ID),
		slog.Bool("global", n.IsGlobal),
	)
	return nil
}

// ListFor returns the active global notifications plus the ones targeted at
// userID, newest first, each with the user's read flag.
func (s *NotificationService) ListFor(ctx context.Context, userID string) ([]model.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	notifications, err := s.notifications.ListFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications of %s: %w", userID, err)
	}
	return notifications, nil
}

// ListAll returns every notification, deactivated ones included.
func (s *NotificationService) ListAll(ctx context.Context) ([]model.Notification, error) {
	notifications, err := s.notifications.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}

// Get returns one notification, deactivated or not.
func (s *NotificationService) Get(ctx context.Context, id string) (*model.Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "notification ID is required")
	}
	return s.notifications.GetByID(ctx, id)
}

// Deactivate hides a notification from every feed. Deactivating twice is a no-op.
func (s *NotificationService) Deactivate(ctx context.Context, id string) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !n.IsActive {
		return nil
	}
	if err := s.notifications.Deactivate(ctx, n.ID); err != nil {
		return err
	}
	s.logger.Info("notification deactivated",
		slog.String("notificationID", n.ID),
		slog.String("title", n.Title),
	)
	return nil
}

// MarkRead records a read receipt. Marking twice is harmless; a notification
// the user cannot see is NotFound.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if strings.TrimSpace(notificationID) == "" {
		return apperror.ValidationFailed("id", "notification ID is required")
	}
	return s.notifications.MarkRead(ctx, userID, strings.TrimSpace(notificationID))
}

// MarkAllRead marks the whole visible feed read and reports how many
// receipts were added.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications of %s read: %w", userID, err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications of %s: %w", userID, err)
	}
	return n, nil
}
