package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

const (
	MaxDonationDescriptionLength = 1000
	MaxDonorNameLength           = 100
)

// DonationService manages the donation lifecycle.
//
// Every donation is created Pending. Administrators move it to Confirmed or
// Rejected with SetStatus; any of the three statuses may be set from any
// other. Donations only leave this service as model.DonationView, so the
// anonymity rule is applied on every read path.
type DonationService struct {
	donations repository.DonationRepository
	sections  repository.SectionRepository
	notifier  Notifier
	logger    *slog.Logger
}

func NewDonationService(
	donations repository.DonationRepository,
	sections repository.SectionRepository,
	notifier Notifier,
	logger *slog.Logger,
) *DonationService {
	return &DonationService{
		donations: donations,
		sections:  sections,
		notifier:  notifier,
		logger:    logger,
	}
}

// DonationInput is a submission. Kind is optional: when empty it is derived
// from Amount. KindInKind forces the amount to zero; KindMonetary requires a
// positive amount.
type DonationInput struct {
	UserID      string
	SectionID   string
	Amount      float64
	Kind        model.DonationKind
	Description string
	IsAnonymous bool
	DonorName   string
	DonorEmail  string
}

// DonationPatch is an administrative edit. Nil fields are left alone.
type DonationPatch struct {
	Amount      *float64
	Description *string
	IsAnonymous *bool
	Status      *model.DonationStatus
	SectionID   *string
}

// DonationQuery filters a listing. Limit and Offset are clamped.
type DonationQuery struct {
	SectionID string
	Status    model.DonationStatus
	UserID    string
	Limit     int
	Offset    int
}

// Submit records a new Pending donation.
func (s *DonationService) Submit(ctx context.Context, in DonationInput) (*model.DonationView, error) {
	// === VALIDATION ===
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "donor user is required")
	}
	amount, err := resolveAmount(in.Kind, in.Amount)
	if err != nil {
		return nil, err
	}
	description, err := validateDonationDescription(in.Description)
	if err != nil {
		return nil, err
	}
	if amount == 0 && description == "" {
		return nil, apperror.ValidationFailed("description", "in-kind donations must describe the goods donated")
	}
	donorName := strings.TrimSpace(in.DonorName)
	if donorName == "" && !in.IsAnonymous {
		return nil, apperror.ValidationFailed("donorName", "donor name is required unless the donation is anonymous")
	}
	if len(donorName) > MaxDonorNameLength {
		return nil, apperror.ValidationFailed("donorName",
			fmt.Sprintf("donor name must be %d characters or less", MaxDonorNameLength))
	}
	donorEmail := strings.TrimSpace(in.DonorEmail)
	if donorEmail != "" {
		if donorEmail, err = normaliseEmail(donorEmail); err != nil {
			return nil, apperror.ValidationFailed("donorEmail", "invalid donor email format")
		}
	}

	section, err := s.openSection(ctx, in.SectionID)
	if err != nil {
		return nil, err
	}

	donation := &model.Donation{
		Amount:      amount,
		Description: description,
		IsAnonymous: in.IsAnonymous,
		Status:      model.StatusPending,
		UserID:      userID,
		SectionID:   section.ID,
		DonorName:   donorName,
		DonorEmail:  donorEmail,
		SectionName: section.Name,
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	s.logger.Info("donation submitted",
		slog.String("donationID", donation.ID),
		slog.String("sectionID", section.ID),
		slog.String("kind", string(donation.Kind())),
	)
	view := donation.View()
	return &view, nil
}

// openSection resolves a section that accepts donations. An unknown section
// is a validation problem of the submission, not a missing resource.
func (s *DonationService) openSection(ctx context.Context, sectionID string) (*model.DonationSection, error) {
	sectionID = strings.TrimSpace(sectionID)
	if sectionID == "" {
		return nil, apperror.ValidationFailed("sectionId", "donation section is required")
	}
	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("sectionId", "donation section "+sectionID+" does not exist")
		}
		return nil, fmt.Errorf("loading section %s: %w", sectionID, err)
	}
	if !section.IsActive {
		return nil, apperror.ValidationFailed("sectionId", "donation section "+section.Name+" is not accepting donations")
	}
	return section, nil
}

// Get returns one donation. Members may only read their own.
func (s *DonationService) Get(ctx context.Context, id string, viewer *model.User) (*model.DonationView, error) {
	donation, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer == nil || (!viewer.IsAdmin() && donation.UserID != viewer.ID) {
		return nil, apperror.Forbidden("you can only view your own donations")
	}
	view := donation.View()
	return &view, nil
}

func (s *DonationService) get(ctx context.Context, id string) (*model.Donation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "donation ID is required")
	}
	return s.donations.GetByID(ctx, id)
}

// List returns donations newest first.
func (s *DonationService) List(ctx context.Context, q DonationQuery) ([]model.DonationView, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperror.ValidationFailed("status", "status must be Pending, Confirmed or Rejected")
	}
	donations, err := s.donations.List(ctx, repository.DonationFilter{
		SectionID:   strings.TrimSpace(q.SectionID),
		Status:      q.Status,
		UserID:      strings.TrimSpace(q.UserID),
		ListOptions: clampPage(q.Limit, q.Offset),
	})
	if err != nil {
		s.logger.Error("failed to list donations", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	return model.Views(donations), nil
}

// ListMine returns the caller's own donations.
func (s *DonationService) ListMine(ctx context.Context, userID string, limit, offset int) ([]model.DonationView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	return s.List(ctx, DonationQuery{UserID: userID, Limit: limit, Offset: offset})
}

// SetStatus moves a donation to status and tells the donor.
func (s *DonationService) SetStatus(ctx context.Context, id string, status model.DonationStatus) (*model.DonationView, error) {
	return s.Update(ctx, id, DonationPatch{Status: &status})
}

// Update applies an administrative edit. A status change is logged and the
// donor gets a notification.
func (s *DonationService) Update(ctx context.Context, id string, patch DonationPatch) (*model.DonationView, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperror.ValidationFailed("status", "status must be Pending, Confirmed or Rejected")
	}

	donation, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := donation.Status

	if patch.Amount != nil {
		if *patch.Amount < 0 {
			return nil, apperror.ValidationFailed("amount", "amount must not be negative")
		}
		donation.Amount = *patch.Amount
	}
	if patch.Description != nil {
		if donation.Description, err = validateDonationDescription(*patch.Description); err != nil {
			return nil, err
		}
	}
	if patch.IsAnonymous != nil {
		donation.IsAnonymous = *patch.IsAnonymous
	}
	if patch.SectionID != nil && strings.TrimSpace(*patch.SectionID) != donation.SectionID {
		section, err := s.openSection(ctx, *patch.SectionID)
		if err != nil {
			return nil, err
		}
		donation.SectionID = section.ID
		donation.SectionName = section.Name
	}
	if patch.Status != nil {
		donation.Status = *patch.Status
	}

	if err := s.donations.Update(ctx, donation); err != nil {
		return nil, err
	}

	if donation.Status != previous {
		s.logger.Info("donation status changed",
			slog.String("donationID", donation.ID),
			slog.String("from", string(previous)),
			slog.String("to", string(donation.Status)),
		)
		s.notifyDonor(ctx, donation)
	}

	view := donation.View()
	return &view, nil
}

func (s *DonationService) notifyDonor(ctx context.Context, donation *model.Donation) {
	userID := donation.UserID
	notifyBestEffort(ctx, s.notifier, s.logger, &model.Notification{
		Title:    "Donation " + strings.ToLower(string(donation.Status)),
		Message:  fmt.Sprintf("Your donation to %s is now %s.", donation.SectionName, donation.Status),
		Type:     model.NotificationDonation,
		UserID:   &userID,
		IsActive: true,
	})
}

func (s *DonationService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "donation ID is required")
	}
	if err := s.donations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("donation deleted", slog.String("donationID", id))
	return nil
}

// Stats aggregates all donations, or those of one section when sectionID is set.
func (s *DonationService) Stats(ctx context.Context, sectionID string) (model.DonationStats, error) {
	sectionID = strings.TrimSpace(sectionID)
	if sectionID != "" {
		if _, err := s.sections.GetByID(ctx, sectionID); err != nil {
			return model.DonationStats{}, err
		}
	}
	stats, err := s.donations.Stats(ctx, sectionID)
	if err != nil {
		return model.DonationStats{}, fmt.Errorf("aggregating donations: %w", err)
	}
	return stats, nil
}

// resolveAmount reconciles an explicit kind with the amount.
func resolveAmount(kind model.DonationKind, amount float64) (float64, error) {
	if amount < 0 {
		return 0, apperror.ValidationFailed("amount", "amount must not be negative")
	}
	switch kind {
	case "":
		return amount, nil
	case model.KindInKind:
		return 0, nil
	case model.KindMonetary:
		if amount <= 0 {
			return 0, apperror.ValidationFailed("amount", "monetary donations need a positive amount")
		}
		return amount, nil
	default:
		return 0, apperror.ValidationFailed("kind", "kind must be monetary or in_kind")
	}
}

func validateDonationDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if len(description) > MaxDonationDescriptionLength {
		return "", apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDonationDescriptionLength))
	}
	return description, nil
}
