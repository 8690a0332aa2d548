package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// CampaignDB stores festive campaigns. Obtain one with DB.Campaigns().
//
// The ordered item list is kept as a JSON array in a TEXT column; it is only
// ever read and written as a whole.
type CampaignDB struct {
	db *DB
}

var _ repository.CampaignRepository = (*CampaignDB)(nil)

const campaignColumns = `id, name, description, start_date, end_date, is_enabled, icon, gradient,
	bg_gradient, items, section_id, created_at, updated_at`

func scanCampaign(s scanner) (*model.FestiveCampaign, error) {
	var (
		c         model.FestiveCampaign
		items     string
		sectionID sql.NullString
	)
	err := s.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.StartDate,
		&c.EndDate,
		&c.IsEnabled,
		&c.Icon,
		&c.Gradient,
		&c.BgGradient,
		&items,
		&sectionID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &c.Items); err != nil {
		return nil, fmt.Errorf("decoding items of campaign %s: %w", c.ID, err)
	}
	if c.Items == nil {
		c.Items = []string{}
	}
	c.SectionID = stringPtr(sectionID)
	return &c, nil
}

func encodeItems(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding campaign items: %w", err)
	}
	return string(b), nil
}

// Create inserts a campaign, filling in ID and timestamps.
func (c *CampaignDB) Create(ctx context.Context, campaign *model.FestiveCampaign) error {
	items, err := encodeItems(campaign.Items)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	campaign.ID = xid.New().String()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	_, err = c.db.conn.ExecContext(ctx,
		`INSERT INTO festive_campaigns (`+campaignColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		campaign.ID,
		campaign.Name,
		campaign.Description,
		campaign.StartDate,
		campaign.EndDate,
		campaign.IsEnabled,
		campaign.Icon,
		campaign.Gradient,
		campaign.BgGradient,
		items,
		nullStringPtr(campaign.SectionID),
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, "festive campaign", campaign.Name); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting campaign %q: %w", campaign.Name, err)
	}
	return nil
}

func (c *CampaignDB) GetByID(ctx context.Context, id string) (*model.FestiveCampaign, error) {
	row := c.db.conn.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM festive_campaigns WHERE id = ?`, id)

	campaign, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("festive campaign", id)
		}
		return nil, fmt.Errorf("sqlite: getting campaign %s: %w", id, err)
	}
	return campaign, nil
}

// List returns every campaign, the latest-starting first.
func (c *CampaignDB) List(ctx context.Context) ([]model.FestiveCampaign, error) {
	rows, err := c.db.conn.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM festive_campaigns
		 ORDER BY start_date DESC, name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []model.FestiveCampaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning campaign row: %w", err)
		}
		campaigns = append(campaigns, *campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating campaign rows: %w", err)
	}
	return campaigns, nil
}

func (c *CampaignDB) Update(ctx context.Context, campaign *model.FestiveCampaign) error {
	items, err := encodeItems(campaign.Items)
	if err != nil {
		return err
	}
	campaign.UpdatedAt = time.Now().UTC()

	result, err := c.db.conn.ExecContext(ctx,
		`UPDATE festive_campaigns
		 SET name = ?, description = ?, start_date = ?, end_date = ?, is_enabled = ?,
		     icon = ?, gradient = ?, bg_gradient = ?, items = ?, section_id = ?, updated_at = ?
		 WHERE id = ?`,
		campaign.Name,
		campaign.Description,
		campaign.StartDate,
		campaign.EndDate,
		campaign.IsEnabled,
		campaign.Icon,
		campaign.Gradient,
		campaign.BgGradient,
		items,
		nullStringPtr(campaign.SectionID),
		campaign.UpdatedAt,
		campaign.ID,
	)
	if err != nil {
		if cerr := constraintError(err, "festive campaign", campaign.Name); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: updating campaign %s: %w", campaign.ID, err)
	}
	return checkAffected(result, "festive campaign", campaign.ID)
}

func (c *CampaignDB) Delete(ctx context.Context, id string) error {
	result, err := c.db.conn.ExecContext(ctx, `DELETE FROM festive_campaigns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting campaign %s: %w", id, err)
	}
	return checkAffected(result, "festive campaign", id)
}
