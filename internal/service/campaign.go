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
	MaxCampaignNameLength = 100
	MaxCampaignItems      = 50
	MaxCampaignItemLength = 100
)

// CampaignService is the registry of festive campaigns.
//
// PAIRED SECTION:
// Creating a campaign also creates a donation section for it, and deleting
// the campaign deletes that section. Both section writes are best effort: a
// failure is logged as a DependencyError and the campaign operation still
// succeeds. A campaign whose section could not be created keeps a nil SectionID.
//
// The paired section goes through the section registry, so it gets the same
// validation and slug rules as any other section. Its FestiveCampaignID points
// back at the campaign; a section linked later by an update carries the same
// back-reference. Only a section whose back-reference is this campaign is
// deleted with it.
type CampaignService struct {
	campaigns repository.CampaignRepository
	sections  repository.SectionRepository
	registry  *SectionService
	logger    *slog.Logger
}

func NewCampaignService(campaigns repository.CampaignRepository, sections repository.SectionRepository, logger *slog.Logger) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		sections:  sections,
		registry:  NewSectionService(sections, logger),
		logger:    logger,
	}
}

// CampaignInput is the data needed to create a campaign. IsEnabled defaults to true.
type CampaignInput struct {
	Name        string
	Description string
	StartDate   model.Date
	EndDate     model.Date
	Icon        string
	Gradient    string
	BgGradient  string
	Items       []string
	IsEnabled   *bool
}

// CampaignPatch carries a partial update. Nil fields are left alone.
// SectionID set to "" unlinks the section.
type CampaignPatch struct {
	Name        *string
	Description *string
	StartDate   *model.Date
	EndDate     *model.Date
	IsEnabled   *bool
	Icon        *string
	Gradient    *string
	BgGradient  *string
	Items       []string // nil leaves the list alone; empty clears it
	SectionID   *string
}

func (s *CampaignService) Create(ctx context.Context, in CampaignInput) (*model.FestiveCampaign, error) {
	name, err := validateCampaignName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := validateCampaignDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	items, err := normaliseItems(in.Items)
	if err != nil {
		return nil, err
	}

	campaign := &model.FestiveCampaign{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsEnabled:   true,
		Icon:        strings.TrimSpace(in.Icon),
		Gradient:    strings.TrimSpace(in.Gradient),
		BgGradient:  strings.TrimSpace(in.BgGradient),
		Items:       items,
	}
	if in.IsEnabled != nil {
		campaign.IsEnabled = *in.IsEnabled
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}
	s.logger.Info("festive campaign created",
		slog.String("campaignID", campaign.ID),
		slog.String("name", campaign.Name),
	)

	s.pairSection(ctx, campaign)
	return campaign, nil
}

// pairSection creates the campaign's donation section and links it. On any
// failure the campaign is left without a section.
func (s *CampaignService) pairSection(ctx context.Context, campaign *model.FestiveCampaign) {
	campaignID := campaign.ID
	section := &model.DonationSection{
		Name:              campaign.Name,
		Description:       "Donations for " + campaign.Name,
		IsActive:          true,
		FestiveCampaignID: &campaignID,
	}
	// Names without letters or digits ("🎄") have no slug of their own.
	if Slugify(campaign.Name) == "" {
		section.Slug = "campaign-" + campaign.ID
	}
	if _, err := s.registry.create(ctx, section); err != nil {
		s.logDependency("creating paired donation section", campaign.ID, err)
		return
	}

	campaign.SectionID = &section.ID
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		campaign.SectionID = nil
		s.logDependency("linking paired donation section", campaign.ID, err)
		return
	}
	s.logger.Info("paired donation section created",
		slog.String("campaignID", campaign.ID),
		slog.String("sectionID", section.ID),
	)
}

func (s *CampaignService) logDependency(operation, campaignID string, cause error) {
	err := apperror.Dependency(operation, cause)
	s.logger.Warn("festive campaign side effect skipped",
		slog.String("campaignID", campaignID),
		slog.String("error", err.Error()),
	)
}

func (s *CampaignService) Get(ctx context.Context, id string) (*model.FestiveCampaign, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "campaign ID is required")
	}
	return s.campaigns.GetByID(ctx, id)
}

// List returns every campaign, latest start date first.
func (s *CampaignService) List(ctx context.Context) ([]model.FestiveCampaign, error) {
	campaigns, err := s.campaigns.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return campaigns, nil
}

// ListRunning returns the enabled campaigns whose date range contains now.
func (s *CampaignService) ListRunning(ctx context.Context, now time.Time) ([]model.FestiveCampaign, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	running := make([]model.FestiveCampaign, 0, len(all))
	for i := range all {
		if all[i].IsRunning(now) {
			running = append(running, all[i])
		}
	}
	return running, nil
}

func (s *CampaignService) Update(ctx context.Context, id string, patch CampaignPatch) (*model.FestiveCampaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if campaign.Name, err = validateCampaignName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		campaign.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartDate != nil {
		campaign.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		campaign.EndDate = *patch.EndDate
	}
	if err := validateCampaignDates(campaign.StartDate, campaign.EndDate); err != nil {
		return nil, err
	}
	if patch.IsEnabled != nil {
		campaign.IsEnabled = *patch.IsEnabled
	}
	if patch.Icon != nil {
		campaign.Icon = strings.TrimSpace(*patch.Icon)
	}
	if patch.Gradient != nil {
		campaign.Gradient = strings.TrimSpace(*patch.Gradient)
	}
	if patch.BgGradient != nil {
		campaign.BgGradient = strings.TrimSpace(*patch.BgGradient)
	}
	if patch.Items != nil {
		if campaign.Items, err = normaliseItems(patch.Items); err != nil {
			return nil, err
		}
	}
	if patch.SectionID != nil {
		if err := s.relink(ctx, campaign, strings.TrimSpace(*patch.SectionID)); err != nil {
			return nil, err
		}
	}

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// relink points the campaign at sectionID ("" unlinks) and moves the
// section back-reference with it.
func (s *CampaignService) relink(ctx context.Context, campaign *model.FestiveCampaign, sectionID string) error {
	if campaign.SectionID != nil && *campaign.SectionID == sectionID {
		return nil
	}

	var next *model.DonationSection
	if sectionID != "" {
		section, err := s.sections.GetByID(ctx, sectionID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.ValidationFailed("sectionId", "section "+sectionID+" does not exist")
			}
			return fmt.Errorf("loading section %s: %w", sectionID, err)
		}
		if section.FestiveCampaignID != nil && *section.FestiveCampaignID != campaign.ID {
			return apperror.ConflictMessage(
				fmt.Sprintf("donation section %q already belongs to another campaign", section.Name))
		}
		next = section
	}

	if campaign.SectionID != nil {
		if err := s.releaseSection(ctx, campaign.ID, *campaign.SectionID); err != nil {
			return err
		}
	}

	if next == nil {
		campaign.SectionID = nil
		return nil
	}
	campaignID := campaign.ID
	next.FestiveCampaignID = &campaignID
	if err := s.sections.Update(ctx, next); err != nil {
		return fmt.Errorf("linking section %s: %w", next.ID, err)
	}
	campaign.SectionID = &next.ID
	return nil
}

// releaseSection clears the back-reference of a section the campaign owns.
// A section that is already gone, or owned by nobody, is left alone.
func (s *CampaignService) releaseSection(ctx context.Context, campaignID, sectionID string) error {
	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading section %s: %w", sectionID, err)
	}
	if section.FestiveCampaignID == nil || *section.FestiveCampaignID != campaignID {
		return nil
	}
	section.FestiveCampaignID = nil
	if err := s.sections.Update(ctx, section); err != nil {
		return fmt.Errorf("releasing section %s: %w", sectionID, err)
	}
	return nil
}

// Delete removes the campaign, then tries to remove its paired section. A
// section that cannot go (it holds donations, say) stays as a plain section
// and the failure is only logged. A section whose back-reference names
// another campaign, or none, is never deleted.
func (s *CampaignService) Delete(ctx context.Context, id string) error {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var owned *model.DonationSection
	if campaign.SectionID != nil {
		section, err := s.sections.GetByID(ctx, *campaign.SectionID)
		switch {
		case err == nil:
			if section.FestiveCampaignID != nil && *section.FestiveCampaignID == campaign.ID {
				owned = section
			}
		case !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("loading section of campaign %s: %w", campaign.ID, err)
		}
	}

	if err := s.campaigns.Delete(ctx, campaign.ID); err != nil {
		return err
	}
	s.logger.Info("festive campaign deleted", slog.String("campaignID", campaign.ID))

	if owned == nil {
		return nil
	}
	if err := s.sections.Delete(ctx, owned.ID); err != nil {
		s.logDependency("deleting paired donation section", campaign.ID, err)
		owned.FestiveCampaignID = nil
		if err := s.sections.Update(ctx, owned); err != nil {
			s.logDependency("releasing paired donation section", campaign.ID, err)
		}
	}
	return nil
}

func validateCampaignName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "campaign name is required")
	}
	if len(name) > MaxCampaignNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("campaign name must be %d characters or less", MaxCampaignNameLength))
	}
	return name, nil
}

func validateCampaignDates(start, end model.Date) error {
	if start.IsZero() {
		return apperror.ValidationFailed("startDate", "start date is required")
	}
	if end.IsZero() {
		return apperror.ValidationFailed("endDate", "end date is required")
	}
	if start.After(end) {
		return apperror.ValidationFailed("endDate", "end date must not be before start date")
	}
	return nil
}

// normaliseItems trims the suggested items and drops blanks, keeping order.
func normaliseItems(items []string) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if len(item) > MaxCampaignItemLength {
			return nil, apperror.ValidationFailed("items",
				fmt.Sprintf("each item must be %d characters or less", MaxCampaignItemLength))
		}
		out = append(out, item)
	}
	if len(out) > MaxCampaignItems {
		return nil, apperror.ValidationFailed("items",
			fmt.Sprintf("a campaign can suggest at most %d items", MaxCampaignItems))
	}
	return out, nil
}
