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

// DonationDB stores donations. Obtain one with DB.Donations().
type DonationDB struct {
	db *DB
}

var _ repository.DonationRepository = (*DonationDB)(nil)

// donationSelect joins the section so reads carry its display name.
const donationSelect = `
	SELECT d.id, d.amount, d.description, d.is_anonymous, d.status, d.user_id, d.section_id,
	       d.donor_name, d.donor_email, d.created_at, d.updated_at, s.name
	FROM donations d
	JOIN donation_sections s ON s.id = d.section_id`

func scanDonation(s scanner) (*model.Donation, error) {
	var d model.Donation
	err := s.Scan(
		&d.ID,
		&d.Amount,
		&d.Description,
		&d.IsAnonymous,
		&d.Status,
		&d.UserID,
		&d.SectionID,
		&d.DonorName,
		&d.DonorEmail,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.SectionName,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a donation, filling in ID and timestamps. A user or section
// id that does not resolve yields a ValidationError.
func (d *DonationDB) Create(ctx context.Context, donation *model.Donation) error {
	now := time.Now().UTC()
	donation.ID = xid.New().String()
	donation.CreatedAt = now
	donation.UpdatedAt = now

	_, err := d.db.conn.ExecContext(ctx,
		`INSERT INTO donations (id, amount, description, is_anonymous, status, user_id, section_id,
		                        donor_name, donor_email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		donation.ID,
		donation.Amount,
		donation.Description,
		donation.IsAnonymous,
		donation.Status,
		donation.UserID,
		donation.SectionID,
		donation.DonorName,
		donation.DonorEmail,
		donation.CreatedAt,
		donation.UpdatedAt,
	)
	if err != nil {
		if constraintError(err, "donation", donation.ID) != nil {
			return apperror.ValidationFailed("sectionId", "donation references an unknown user or section")
		}
		return fmt.Errorf("sqlite: inserting donation: %w", err)
	}
	return nil
}

func (d *DonationDB) GetByID(ctx context.Context, id string) (*model.Donation, error) {
	row := d.db.conn.QueryRowContext(ctx, donationSelect+` WHERE d.id = ?`, id)

	donation, err := scanDonation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("donation", id)
		}
		return nil, fmt.Errorf("sqlite: getting donation %s: %w", id, err)
	}
	return donation, nil
}

// List returns donations matching filter, newest first.
func (d *DonationDB) List(ctx context.Context, filter repository.DonationFilter) ([]model.Donation, error) {
	where, args := donationWhere(filter.SectionID, filter.Status, filter.UserID)

	query := donationSelect + where + ` ORDER BY d.created_at DESC, d.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := d.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing donations: %w", err)
	}
	defer rows.Close()

	donations := []model.Donation{}
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning donation row: %w", err)
		}
		donations = append(donations, *donation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating donation rows: %w", err)
	}
	return donations, nil
}

func donationWhere(sectionID string, status model.DonationStatus, userID string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if sectionID != "" {
		conds = append(conds, "d.section_id = ?")
		args = append(args, sectionID)
	}
	if status != "" {
		conds = append(conds, "d.status = ?")
		args = append(args, status)
	}
	if userID != "" {
		conds = append(conds, "d.user_id = ?")
		args = append(args, userID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Update writes the mutable columns and bumps UpdatedAt.
func (d *DonationDB) Update(ctx context.Context, donation *model.Donation) error {
	donation.UpdatedAt = time.Now().UTC()

	result, err := d.db.conn.ExecContext(ctx,
		`UPDATE donations
		 SET amount = ?, description = ?, is_anonymous = ?, status = ?, section_id = ?,
		     donor_name = ?, donor_email = ?, updated_at = ?
		 WHERE id = ?`,
		donation.Amount,
		donation.Description,
		donation.IsAnonymous,
		donation.Status,
		donation.SectionID,
		donation.DonorName,
		donation.DonorEmail,
		donation.UpdatedAt,
		donation.ID,
	)
	if err != nil {
		if constraintError(err, "donation", donation.ID) != nil {
			return apperror.ValidationFailed("sectionId", "donation references an unknown section")
		}
		return fmt.Errorf("sqlite: updating donation %s: %w", donation.ID, err)
	}
	return checkAffected(result, "donation", donation.ID)
}

func (d *DonationDB) Delete(ctx context.Context, id string) error {
	result, err := d.db.conn.ExecContext(ctx, `DELETE FROM donations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting donation %s: %w", id, err)
	}
	return checkAffected(result, "donation", id)
}

// Stats aggregates donations, optionally restricted to one section.
// Every status appears in CountByStatus, zero or not.
func (d *DonationDB) Stats(ctx context.Context, sectionID string) (model.DonationStats, error) {
	stats := model.NewDonationStats()

	query := `
		SELECT status,
		       COUNT(*),
		       COALESCE(SUM(amount), 0.0),
		       COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0.0 END), 0.0),
		       COUNT(CASE WHEN amount = 0 THEN 1 END)
		FROM donations`
	var args []any
	if sectionID != "" {
		query += ` WHERE section_id = ?`
		args = append(args, sectionID)
	}
	query += ` GROUP BY status`

	rows, err := d.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return stats, fmt.Errorf("sqlite: aggregating donations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   model.DonationStatus
			count    int
			total    float64
			monetary float64
			inKind   int
		)
		if err := rows.Scan(&status, &count, &total, &monetary, &inKind); err != nil {
			return stats, fmt.Errorf("sqlite: scanning donation stats: %w", err)
		}
		stats.CountByStatus[status] = count
		stats.TotalCount += count
		stats.TotalAmount += total
		stats.MonetaryAmount += monetary
		stats.InKindCount += inKind
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("sqlite: iterating donation stats: %w", err)
	}
	return stats, nil
}

// Facts returns the minimal projection of every donation, oldest first.
func (d *DonationDB) Facts(ctx context.Context) ([]model.DonationFact, error) {
	rows, err := d.db.conn.QueryContext(ctx,
		`SELECT d.amount, d.status, s.name, d.created_at
		 FROM donations d
		 JOIN donation_sections s ON s.id = d.section_id
		 ORDER BY d.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing donation facts: %w", err)
	}
	defer rows.Close()

	facts := []model.DonationFact{}
	for rows.Next() {
		var f model.DonationFact
		if err := rows.Scan(&f.Amount, &f.Status, &f.SectionName, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning donation fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating donation facts: %w", err)
	}
	return facts, nil
}
