package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// ReportDB answers the read-only dashboard queries. Obtain one with DB.Reports().
type ReportDB struct {
	db *DB
}

var _ repository.ReportRepository = (*ReportDB)(nil)

// Overview computes the dashboard headline counts. Nothing is cached.
func (r *ReportDB) Overview(ctx context.Context) (model.Overview, error) {
	var o model.Overview

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = 'Admin'),
			(SELECT COUNT(*) FROM activities WHERE is_active = 1),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM notifications),
			(SELECT COUNT(*) FROM notifications WHERE is_active = 1)`,
	).Scan(
		&o.TotalUsers,
		&o.AdminUsers,
		&o.ActiveActivities,
		&o.TotalActivities,
		&o.TotalNotifications,
		&o.ActiveNotifications,
	)
	if err != nil {
		return o, fmt.Errorf("sqlite: computing overview: %w", err)
	}
	o.MemberUsers = o.TotalUsers - o.AdminUsers

	stats, err := r.db.Donations().Stats(ctx, "")
	if err != nil {
		return o, err
	}
	o.TotalDonations = stats.TotalCount
	o.DonationsByStatus = stats.CountByStatus
	o.TotalDonationAmount = stats.TotalAmount

	return o, nil
}

// UserCreationTimes returns every user's creation time, oldest first.
func (r *ReportDB) UserCreationTimes(ctx context.Context) ([]time.Time, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT created_at FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing user creation times: %w", err)
	}
	defer rows.Close()

	times := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning creation time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating creation times: %w", err)
	}
	return times, nil
}

// ActivityStatusCounts splits activities into upcoming, past (both active)
// and inactive, relative to now.
func (r *ReportDB) ActivityStatusCounts(ctx context.Context, now time.Time) (map[string]int, error) {
	var upcoming, past, inactive int
	now = now.UTC()

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN is_active = 1 AND date >= ? THEN 1 END),
			COUNT(CASE WHEN is_active = 1 AND date <  ? THEN 1 END),
			COUNT(CASE WHEN is_active = 0 THEN 1 END)
		 FROM activities`,
		now, now,
	).Scan(&upcoming, &past, &inactive)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting activities by status: %w", err)
	}

	return map[string]int{
		model.ActivityUpcoming: upcoming,
		model.ActivityPast:     past,
		model.ActivityInactive: inactive,
	}, nil
}
