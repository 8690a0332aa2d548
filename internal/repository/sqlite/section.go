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

// SectionDB stores donation sections. Obtain one with DB.Sections().
type SectionDB struct {
	db *DB
}

var _ repository.SectionRepository = (*SectionDB)(nil)

const sectionColumns = `id, name, slug, description, is_active, festive_campaign_id, created_at, updated_at`

func scanSection(s scanner) (*model.DonationSection, error) {
	var (
		sec        model.DonationSection
		campaignID sql.NullString
	)
	err := s.Scan(
		&sec.ID,
		&sec.Name,
		&sec.Slug,
		&sec.Description,
		&sec.IsActive,
		&campaignID,
		&sec.CreatedAt,
		&sec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sec.FestiveCampaignID = stringPtr(campaignID)
	return &sec, nil
}

// Create inserts a section. Name (case-insensitive) and slug are unique.
func (s *SectionDB) Create(ctx context.Context, section *model.DonationSection) error {
	now := time.Now().UTC()
	section.ID = xid.New().String()
	section.CreatedAt = now
	section.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO donation_sections (`+sectionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		section.ID,
		section.Name,
		section.Slug,
		section.Description,
		section.IsActive,
		nullStringPtr(section.FestiveCampaignID),
		section.CreatedAt,
		section.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, "donation section", section.Name); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting section %q: %w", section.Name, err)
	}
	return nil
}

func (s *SectionDB) GetByID(ctx context.Context, id string) (*model.DonationSection, error) {
	return s.getBy(ctx, "id", id)
}

func (s *SectionDB) GetBySlug(ctx context.Context, slug string) (*model.DonationSection, error) {
	return s.getBy(ctx, "slug", slug)
}

func (s *SectionDB) getBy(ctx context.Context, column, value string) (*model.DonationSection, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM donation_sections WHERE `+column+` = ?`, value)

	sec, err := scanSection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("donation section", value)
		}
		return nil, fmt.Errorf("sqlite: getting section by %s: %w", column, err)
	}
	return sec, nil
}

// List returns sections ordered by name.
func (s *SectionDB) List(ctx context.Context, activeOnly bool) ([]model.DonationSection, error) {
	query := `SELECT ` + sectionColumns + ` FROM donation_sections`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE ASC`

	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sections: %w", err)
	}
	defer rows.Close()

	sections := []model.DonationSection{}
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning section row: %w", err)
		}
		sections = append(sections, *sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating section rows: %w", err)
	}
	return sections, nil
}

// Update writes the editable columns. The slug is never rewritten.
func (s *SectionDB) Update(ctx context.Context, section *model.DonationSection) error {
	section.UpdatedAt = time.Now().UTC()

	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE donation_sections
		 SET name = ?, description = ?, is_active = ?, festive_campaign_id = ?, updated_at = ?
		 WHERE id = ?`,
		section.Name,
		section.Description,
		section.IsActive,
		nullStringPtr(section.FestiveCampaignID),
		section.UpdatedAt,
		section.ID,
	)
	if err != nil {
		if cerr := constraintError(err, "donation section", section.Name); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: updating section %s: %w", section.ID, err)
	}
	return checkAffected(result, "donation section", section.ID)
}

// Delete removes a section. Sections that donations still reference are kept
// and a ConflictError is returned. A campaign pointing at the section has its
// link cleared.
func (s *SectionDB) Delete(ctx context.Context, id string) error {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM donation_sections WHERE id = ?`, id)
	if err != nil {
		if constraintError(err, "donation section", id) != nil {
			return apperror.ConflictMessage("donation section still has donations and cannot be deleted")
		}
		return fmt.Errorf("sqlite: deleting section %s: %w", id, err)
	}
	return checkAffected(result, "donation section", id)
}

// CountDonations reports how many donations reference the section.
func (s *SectionDB) CountDonations(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM donations WHERE section_id = ?`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting donations of section %s: %w", id, err)
	}
	return n, nil
}
