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
	MaxSectionNameLength        = 100
	MaxSectionDescriptionLength = 1000
)

// SectionService is the registry of donation sections.
type SectionService struct {
	sections repository.SectionRepository
	logger   *slog.Logger
}

func NewSectionService(sections repository.SectionRepository, logger *slog.Logger) *SectionService {
	return &SectionService{sections: sections, logger: logger}
}

// SectionPatch carries the fields of a partial update. Nil fields are left alone.
type SectionPatch struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// Create adds an active section. Names are unique regardless of case; the
// slug is derived from the name here and never changes afterwards.
func (s *SectionService) Create(ctx context.Context, name, description string) (*model.DonationSection, error) {
	return s.create(ctx, &model.DonationSection{Name: name, Description: description, IsActive: true})
}

// create validates and stores section. A preset Slug (paired campaign
// sections whose name has no letters or digits) is normalised instead of
// being derived from the name.
func (s *SectionService) create(ctx context.Context, section *model.DonationSection) (*model.DonationSection, error) {
	name, err := validateSectionName(section.Name)
	if err != nil {
		return nil, err
	}
	description, err := validateSectionDescription(section.Description)
	if err != nil {
		return nil, err
	}
	slug := Slugify(section.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, apperror.ValidationFailed("name", "name must contain at least one letter or digit")
	}

	section.Name = name
	section.Description = description
	section.Slug = slug

	if err := s.sections.Create(ctx, section); err != nil {
		return nil, err
	}

	s.logger.Info("donation section created",
		slog.String("sectionID", section.ID),
		slog.String("slug", section.Slug),
	)
	return section, nil
}

func (s *SectionService) Get(ctx context.Context, id string) (*model.DonationSection, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "section ID is required")
	}
	return s.sections.GetByID(ctx, id)
}

func (s *SectionService) GetBySlug(ctx context.Context, slug string) (*model.DonationSection, error) {
	return s.sections.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// List returns sections ordered by name.
func (s *SectionService) List(ctx context.Context, activeOnly bool) ([]model.DonationSection, error) {
	sections, err := s.sections.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	return sections, nil
}

// Update renames, re-describes or toggles a section. Renaming keeps the slug.
func (s *SectionService) Update(ctx context.Context, id string, patch SectionPatch) (*model.DonationSection, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if section.Name, err = validateSectionName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		if section.Description, err = validateSectionDescription(*patch.Description); err != nil {
			return nil, err
		}
	}
	if patch.IsActive != nil {
		section.IsActive = *patch.IsActive
	}

	if err := s.sections.Update(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

// Delete removes a section. Sections that still hold donations are kept and
// a ConflictError reports how many.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	section, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.sections.CountDonations(ctx, section.ID)
	if err != nil {
		return fmt.Errorf("counting donations of section %s: %w", section.ID, err)
	}
	if count > 0 {
		return apperror.ConflictMessage(
			fmt.Sprintf("donation section %q still has %d donations and cannot be deleted", section.Name, count))
	}

	if err := s.sections.Delete(ctx, section.ID); err != nil {
		return err
	}
	s.logger.Info("donation section deleted", slog.String("sectionID", section.ID))
	return nil
}

func validateSectionName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "section name is required")
	}
	if len(name) > MaxSectionNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("section name must be %d characters or less", MaxSectionNameLength))
	}
	return name, nil
}

func validateSectionDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if len(description) > MaxSectionDescriptionLength {
		return "", apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxSectionDescriptionLength))
	}
	return description, nil
}
