package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// ActivityDB stores activities and their participant rows. Obtain one with
// DB.Activities().
type ActivityDB struct {
	db *DB
}

var _ repository.ActivityRepository = (*ActivityDB)(nil)

// activitySelect computes the participant count alongside each row.
const activitySelect = `
	SELECT a.id, a.title, a.description, a.date, a.location, a.max_participants, a.is_active,
	       a.created_at, a.updated_at,
	       (SELECT COUNT(*) FROM activity_participants p WHERE p.activity_id = a.id)
	FROM activities a`

func scanActivity(s scanner) (*model.Activity, error) {
	var (
		a        model.Activity
		capacity sql.NullInt64
	)
	err := s.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Date,
		&a.Location,
		&capacity,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ParticipantCount,
	)
	if err != nil {
		return nil, err
	}
	if capacity.Valid {
		n := int(capacity.Int64)
		a.MaxParticipants = &n
	}
	return &a, nil
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

// Create inserts an activity. Titles are unique, case-insensitively.
func (a *ActivityDB) Create(ctx context.Context, activity *model.Activity) error {
	now := time.Now().UTC()
	activity.ID = xid.New().String()
	activity.Date = activity.Date.UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now

	_, err := a.db.conn.ExecContext(ctx,
		`INSERT INTO activities (id, title, description, date, location, max_participants,
		                         is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.Title,
		activity.Description,
		activity.Date,
		activity.Location,
		nullInt(activity.MaxParticipants),
		activity.IsActive,
		activity.CreatedAt,
		activity.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, "activity", activity.Title); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting activity %q: %w", activity.Title, err)
	}
	return nil
}

func (a *ActivityDB) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	row := a.db.conn.QueryRowContext(ctx, activitySelect+` WHERE a.id = ?`, id)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("activity", id)
		}
		return nil, fmt.Errorf("sqlite: getting activity %s: %w", id, err)
	}
	return activity, nil
}

// List returns activities matching filter. From and To are inclusive bounds
// on the activity date.
func (a *ActivityDB) List(ctx context.Context, filter repository.ActivityFilter) ([]model.Activity, error) {
	var (
		conds []string
		args  []any
	)
	if !filter.From.IsZero() {
		conds = append(conds, "a.date >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		conds = append(conds, "a.date <= ?")
		args = append(args, filter.To.UTC())
	}
	if filter.ActiveOnly {
		conds = append(conds, "a.is_active = 1")
	}

	query := activitySelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if filter.NewestFirst {
		query += ` ORDER BY a.created_at DESC, a.id DESC`
	} else {
		query += ` ORDER BY a.date ASC, a.title COLLATE NOCASE ASC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	return a.query(ctx, query, args...)
}

// ListJoinedBy returns the activities the user is registered for, by date.
func (a *ActivityDB) ListJoinedBy(ctx context.Context, userID string) ([]model.Activity, error) {
	return a.query(ctx,
		activitySelect+`
		 JOIN activity_participants me ON me.activity_id = a.id AND me.user_id = ?
		 ORDER BY a.date ASC`,
		userID)
}

func (a *ActivityDB) query(ctx context.Context, query string, args ...any) ([]model.Activity, error) {
	rows, err := a.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activities: %w", err)
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning activity row: %w", err)
		}
		activities = append(activities, *activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating activity rows: %w", err)
	}
	return activities, nil
}

func (a *ActivityDB) Update(ctx context.Context, activity *model.Activity) error {
	activity.Date = activity.Date.UTC()
	activity.UpdatedAt = time.Now().UTC()

	result, err := a.db.conn.ExecContext(ctx,
		`UPDATE activities
		 SET title = ?, description = ?, date = ?, location = ?, max_participants = ?,
		     is_active = ?, updated_at = ?
		 WHERE id = ?`,
		activity.Title,
		activity.Description,
		activity.Date,
		activity.Location,
		nullInt(activity.MaxParticipants),
		activity.IsActive,
		activity.UpdatedAt,
		activity.ID,
	)
	if err != nil {
		if cerr := constraintError(err, "activity", activity.Title); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: updating activity %s: %w", activity.ID, err)
	}
	return checkAffected(result, "activity", activity.ID)
}

// Delete removes the activity; its participant rows go with it.
func (a *ActivityDB) Delete(ctx context.Context, id string) error {
	result, err := a.db.conn.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting activity %s: %w", id, err)
	}
	return checkAffected(result, "activity", id)
}

// Join registers userID for activityID.
//
// The duplicate check, the capacity check and the insert share one
// transaction. The connection string opens transactions with BEGIN IMMEDIATE,
// so two joins for the last seat cannot both observe a free slot.
func (a *ActivityDB) Join(ctx context.Context, userID, activityID string, enforceCap bool) (*model.ActivityParticipant, error) {
	participant := &model.ActivityParticipant{
		UserID:     userID,
		ActivityID: activityID,
		JoinedAt:   time.Now().UTC(),
	}

	err := a.db.withTx(ctx, func(tx *sql.Tx) error {
		var (
			capacity sql.NullInt64
			isActive bool
			count    int
		)
		err := tx.QueryRowContext(ctx,
			`SELECT a.max_participants, a.is_active,
			        (SELECT COUNT(*) FROM activity_participants p WHERE p.activity_id = a.id)
			 FROM activities a WHERE a.id = ?`,
			activityID,
		).Scan(&capacity, &isActive, &count)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("activity", activityID)
			}
			return fmt.Errorf("sqlite: loading activity %s: %w", activityID, err)
		}

		var joined bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM activity_participants WHERE user_id = ? AND activity_id = ?)`,
			userID, activityID,
		).Scan(&joined)
		if err != nil {
			return fmt.Errorf("sqlite: checking participation: %w", err)
		}
		if joined {
			return apperror.ConflictMessage("user has already joined this activity")
		}

		if !isActive {
			return apperror.ConflictMessage("activity is not open for registration")
		}
		if enforceCap && capacity.Valid && int64(count) >= capacity.Int64 {
			return apperror.ConflictMessage("activity is full")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO activity_participants (user_id, activity_id, joined_at) VALUES (?, ?, ?)`,
			participant.UserID, participant.ActivityID, participant.JoinedAt,
		)
		if err != nil {
			if constraintError(err, "participation", userID) != nil {
				return apperror.NotFound("user", userID)
			}
			return fmt.Errorf("sqlite: inserting participation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// Leave removes the registration. NotFound when the user was not registered.
func (a *ActivityDB) Leave(ctx context.Context, userID, activityID string) error {
	result, err := a.db.conn.ExecContext(ctx,
		`DELETE FROM activity_participants WHERE user_id = ? AND activity_id = ?`,
		userID, activityID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting participation: %w", err)
	}
	return checkAffected(result, "participation for activity", activityID)
}

// Participants returns the roster in registration order.
func (a *ActivityDB) Participants(ctx context.Context, activityID string) ([]model.Participant, error) {
	rows, err := a.db.conn.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, p.joined_at
		 FROM activity_participants p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.activity_id = ?
		 ORDER BY p.joined_at ASC, u.name ASC`,
		activityID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing participants of %s: %w", activityID, err)
	}
	defer rows.Close()

	participants := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating participant rows: %w", err)
	}
	return participants, nil
}
