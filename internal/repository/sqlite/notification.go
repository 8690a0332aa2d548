package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// NotificationDB stores notifications and per-user read receipts.
// Obtain one with DB.Notifications().
type NotificationDB struct {
	db *DB
}

var _ repository.NotificationRepository = (*NotificationDB)(nil)

const notificationColumns = `n.id, n.title, n.message, n.type, n.is_global, n.user_id, n.is_active, n.created_at`

// visibleTo restricts n to the active notifications a user can see.
// It takes the user id as its single parameter.
const visibleTo = `n.is_active = 1 AND (n.is_global = 1 OR n.user_id = ?)`

func scanNotification(s scanner, withRead bool) (*model.Notification, error) {
	var (
		n      model.Notification
		userID sql.NullString
	)
	dest := []any{
		&n.ID,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.IsGlobal,
		&userID,
		&n.IsActive,
		&n.CreatedAt,
	}
	if withRead {
		dest = append(dest, &n.Read)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	n.UserID = stringPtr(userID)
	return &n, nil
}

// Create inserts a notification. Global notifications must have no target
// user; targeted ones must name an existing user.
func (r *NotificationDB) Create(ctx context.Context, n *model.Notification) error {
	n.ID = xid.New().String()
	n.CreatedAt = time.Now().UTC()

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO notifications (id, title, message, type, is_global, user_id, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.Title,
		n.Message,
		n.Type,
		n.IsGlobal,
		nullStringPtr(n.UserID),
		n.IsActive,
		n.CreatedAt,
	)
	if err != nil {
		if constraintError(err, "notification", n.ID) != nil {
			return apperror.ValidationFailed("userId", "notification target user does not exist")
		}
		return fmt.Errorf("sqlite: inserting notification: %w", err)
	}
	return nil
}

func (r *NotificationDB) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.id = ?`, id)

	n, err := scanNotification(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("notification", id)
		}
		return nil, fmt.Errorf("sqlite: getting notification %s: %w", id, err)
	}
	return n, nil
}

// ListFor returns the active global notifications plus those targeted at
// userID, newest first, each flagged with the user's read state.
func (r *NotificationDB) ListFor(ctx context.Context, userID string) ([]model.Notification, error) {
	return r.query(ctx, true,
		`SELECT `+notificationColumns+`,
		        EXISTS (SELECT 1 FROM notification_reads rd
		                WHERE rd.notification_id = n.id AND rd.user_id = ?)
		 FROM notifications n
		 WHERE `+visibleTo+`
		 ORDER BY n.created_at DESC, n.id DESC`,
		userID, userID)
}

// ListAll returns every notification, including deactivated ones.
func (r *NotificationDB) ListAll(ctx context.Context) ([]model.Notification, error) {
	return r.query(ctx, false,
		`SELECT `+notificationColumns+` FROM notifications n ORDER BY n.created_at DESC, n.id DESC`)
}

func (r *NotificationDB) query(ctx context.Context, withRead bool, query string, args ...any) ([]model.Notification, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows, withRead)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning notification row: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notification rows: %w", err)
	}
	return notifications, nil
}

// Deactivate hides a notification from every feed. Notifications are
// otherwise never modified.
func (r *NotificationDB) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE notifications SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deactivating notification %s: %w", id, err)
	}
	return checkAffected(result, "notification", id)
}

// MarkRead records a read receipt. Marking an already-read notification is a
// no-op; a notification the user cannot see is NotFound.
func (r *NotificationDB) MarkRead(ctx context.Context, userID, notificationID string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		var visible bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM notifications n WHERE n.id = ? AND `+visibleTo+`)`,
			notificationID, userID,
		).Scan(&visible)
		if err != nil {
			return fmt.Errorf("sqlite: checking notification visibility: %w", err)
		}
		if !visible {
			return apperror.NotFound("notification", notificationID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO notification_reads (user_id, notification_id, read_at)
			 VALUES (?, ?, ?)`,
			userID, notificationID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting read receipt: %w", err)
		}
		return nil
	})
}

// MarkAllRead records receipts for every visible unread notification and
// returns how many were added.
func (r *NotificationDB) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := r.db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO notification_reads (user_id, notification_id, read_at)
		 SELECT ?, n.id, ? FROM notifications n WHERE `+visibleTo,
		userID, time.Now().UTC(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: marking notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return int(n), nil
}

// UnreadCount counts the visible notifications the user has no receipt for.
func (r *NotificationDB) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications n
		 WHERE `+visibleTo+`
		   AND NOT EXISTS (SELECT 1 FROM notification_reads rd
		                   WHERE rd.notification_id = n.id AND rd.user_id = ?)`,
		userID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting unread notifications: %w", err)
	}
	return count, nil
}
