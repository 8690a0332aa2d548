package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
	"github.com/caridad-unsta/caridad/internal/repository/sqlite"
)

// failingSections wraps the real section store and fails the writes it is told to.
type failingSections struct {
	repository.SectionRepository
	createErr error
	deleteErr error
}

func (f *failingSections) Create(ctx context.Context, s *model.DonationSection) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.SectionRepository.Create(ctx, s)
}

func (f *failingSections) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.SectionRepository.Delete(ctx, id)
}

func winterDrive() CampaignInput {
	return CampaignInput{
		Name:      "Winter Drive",
		StartDate: model.NewDate(2026, time.June, 1),
		EndDate:   model.NewDate(2026, time.August, 31),
		Items:     []string{"A", "B"},
	}
}

func newTestCampaignService(t *testing.T) (*CampaignService, *sqlite.DB) {
	t.Helper()
	db := newTestStore(t)
	return NewCampaignService(db.Campaigns(), db.Sections(), discardLogger()), db
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCampaignCreate_PairsSection(t *testing.T) {
	svc, db := newTestCampaignService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, winterDrive())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !c.IsEnabled {
		t.Error("new campaign is not enabled")
	}
	if c.SectionID == nil {
		t.Fatal("SectionID = nil, want the paired section")
	}

	section, err := db.Sections().GetByID(ctx, *c.SectionID)
	if err != nil {
		t.Fatalf("paired section: %v", err)
	}
	if section.Description != "Donations for Winter Drive" || section.Slug != "winter-drive" {
		t.Errorf("paired section = %+v", section)
	}
	if section.FestiveCampaignID == nil || *section.FestiveCampaignID != c.ID {
		t.Errorf("section back-reference = %v, want %s", section.FestiveCampaignID, c.ID)
	}

	stored, _ := svc.Get(ctx, c.ID)
	if !slices.Equal(stored.Items, []string{"A", "B"}) {
		t.Errorf("Items = %v, want [A B]", stored.Items)
	}
	if stored.SectionID == nil || *stored.SectionID != section.ID {
		t.Errorf("stored SectionID = %v, want %s", stored.SectionID, section.ID)
	}
}

func TestCampaignCreate_SectionFailureIsNotFatal(t *testing.T) {
	db := newTestStore(t)
	sections := &failingSections{SectionRepository: db.Sections(), createErr: errors.New("section store down")}
	svc := NewCampaignService(db.Campaigns(), sections, discardLogger())
	ctx := context.Background()

	c, err := svc.Create(ctx, winterDrive())
	if err != nil {
		t.Fatalf("Create() error = %v, want success despite the section failure", err)
	}
	if c.SectionID != nil {
		t.Errorf("SectionID = %v, want nil", *c.SectionID)
	}

	stored, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.SectionID != nil {
		t.Errorf("stored SectionID = %v, want nil", *stored.SectionID)
	}
}

func TestCampaignCreate_NameWithoutSlug(t *testing.T) {
	svc, db := newTestCampaignService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for _, name := range []string{"🎄", "🎅"} {
		in := winterDrive()
		in.Name = name
		c, err := svc.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
		if c.SectionID == nil {
			t.Fatalf("Create(%q) left the campaign without a section", name)
		}
		section, err := db.Sections().GetByID(ctx, *c.SectionID)
		if err != nil {
			t.Fatalf("paired section of %q: %v", name, err)
		}
		if section.Slug != "campaign-"+c.ID {
			t.Errorf("slug = %q, want %q", section.Slug, "campaign-"+c.ID)
		}
		if seen[section.Slug] {
			t.Errorf("slug %q reused", section.Slug)
		}
		seen[section.Slug] = true
	}
}

func TestCampaignCreate_PairedSectionNameTaken(t *testing.T) {
	svc, db := newTestCampaignService(t)
	ctx := context.Background()

	existing := seedSection(t, db, "Winter Drive")

	c, err := svc.Create(ctx, winterDrive())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.SectionID != nil {
		t.Errorf("SectionID = %v, want nil when the section name is taken", *c.SectionID)
	}
	kept, _ := db.Sections().GetByID(ctx, existing.ID)
	if kept.FestiveCampaignID != nil {
		t.Errorf("existing section was claimed by the campaign")
	}
}

func TestCampaignCreate_Validation(t *testing.T) {
	svc, _ := newTestCampaignService(t)
	ctx := context.Background()

	reversed := winterDrive()
	reversed.StartDate, reversed.EndDate = reversed.EndDate, reversed.StartDate

	noName := winterDrive()
	noName.Name = " "

	noEnd := winterDrive()
	noEnd.EndDate = model.Date{}

	for name, in := range map[string]CampaignInput{"reversed dates": reversed, "no name": noName, "no end": noEnd} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assertIs(t, err, apperror.ErrValidation)
		})
	}

	oneDay := winterDrive()
	oneDay.EndDate = oneDay.StartDate
	if _, err := svc.Create(ctx, oneDay); err != nil {
		t.Errorf("single-day campaign rejected: %v", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestCampaignUpdate(t *testing.T) {
	svc, db := newTestCampaignService(t)
	ctx := context.Background()

	c, _ := svc.Create(ctx, winterDrive())

	updated, err := svc.Update(ctx, c.ID, CampaignPatch{IsEnabled: boolPtr(false), SectionID: strPtr("")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.IsEnabled || updated.SectionID != nil {
		t.Errorf("Update() = %+v", updated)
	}

	other := seedSection(t, db, "Clothing")
	updated, err = svc.Update(ctx, c.ID, CampaignPatch{SectionID: &other.ID})
	if err != nil || updated.SectionID == nil || *updated.SectionID != other.ID {
		t.Errorf("relink: %+v, %v", updated, err)
	}

	_, err = svc.Update(ctx, c.ID, CampaignPatch{SectionID: strPtr("nope")})
	assertIs(t, err, apperror.ErrValidation)

	early := model.NewDate(2026, time.May, 1)
	_, err = svc.Update(ctx, c.ID, CampaignPatch{EndDate: &early})
	assertIs(t, err, apperror.ErrValidation)

	_, err = svc.Update(ctx, "missing", CampaignPatch{})
	assertIs(t, err, apperror.ErrNotFound)
}

func TestCampaignUpdate_RelinkMovesBackReference(t *testing.T) {
	svc, db := newTestCampaignService(t)
	ctx := context.Background()

	c, _ := svc.Create(ctx, winterDrive())
	paired := *c.SectionID
	clothing := seedSection(t, db, "Clothing")

	if _, err := svc.Update(ctx, c.ID, CampaignPatch{SectionID: &clothing.ID}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	old, _ := db.Sections().GetByID(ctx, paired)
	if old.FestiveCampaignID != nil {
		t.Errorf("old section still points at %s", *old.FestiveCampaignID)
	}
	linked, _ := db.Sections().GetByID(ctx, clothing.ID)
	if linked.FestiveCampaignID == nil || *linked.FestiveCampaignID != c.ID {
		t.Errorf("linked section back-reference = %v, want %s", linked.FestiveCampaignID, c.ID)
	}

	other, _ := svc.Create(ctx, CampaignInput{
		Name:      "Navidad",
		StartDate: model.NewDate(2026, time.December, 1),
		EndDate:   model.NewDate(2026, time.December, 25),
	})
	_, err := svc.Update(ctx, other.ID, CampaignPatch{SectionID: &clothing.ID})
	assertIs(t, err, apperror.ErrConflict)

	if _, err := svc.Update(ctx, c.ID, CampaignPatch{SectionID: strPtr("")}); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	linked, _ = db.Sections().GetByID(ctx, clothing.ID)
	if linked.FestiveCampaignID != nil {
		t.Errorf("unlinked section still points at %s", *linked.FestiveCampaignID)
	}
}

func TestCampaignListRunning(t *testing.T) {
	svc, _ := newTestCampaignService(t)
	ctx := context.Background()

	summer, _ := svc.Create(ctx, winterDrive())
	xmas := CampaignInput{
		Name:      "Navidad",
		StartDate: model.NewDate(2026, time.December, 1),
		EndDate:   model.NewDate(2026, time.December, 25),
	}
	if _, err := svc.Create(ctx, xmas); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	running, err := svc.ListRunning(ctx, time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListRunning() error = %v", err)
	}
	if len(running) != 1 || running[0].ID != summer.ID {
		t.Errorf("ListRunning() = %d campaigns, want only %s", len(running), summer.Name)
	}

	all, _ := svc.List(ctx)
	if len(all) != 2 {
		t.Errorf("List() = %d campaigns, want 2", len(all))
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestCampaignDelete_RemovesPairedSection(t *testing.T) {
	svc, db := newTestCampaignService(t)
	ctx := context.Background()

	c, _ := svc.Create(ctx, winterDrive())
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := db.Sections().GetByID(ctx, *c.SectionID)
	assertIs(t, err, apperror.ErrNotFound)
}

func TestCampaignDelete_OnlyOwnedSection(t *testing.T) {
	svc, db := newTestCampaignService(t)
	ctx := context.Background()

	c, _ := svc.Create(ctx, winterDrive())
	released := *c.SectionID
	clothing := seedSection(t, db, "Clothing")
	if _, err := svc.Update(ctx, c.ID, CampaignPatch{SectionID: &clothing.ID}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// A second campaign pointing at a section it does not own.
	other, _ := svc.Create(ctx, CampaignInput{
		Name:      "Navidad",
		StartDate: model.NewDate(2026, time.December, 1),
		EndDate:   model.NewDate(2026, time.December, 25),
	})
	stray := seedSection(t, db, "Monetary")
	other.SectionID = &stray.ID
	if err := db.Campaigns().Update(ctx, other); err != nil {
		t.Fatalf("pointing campaign at stray section: %v", err)
	}

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Sections().GetByID(ctx, released); err != nil {
		t.Errorf("released section was deleted with the campaign: %v", err)
	}
	_, err := db.Sections().GetByID(ctx, clothing.ID)
	assertIs(t, err, apperror.ErrNotFound)

	if err := svc.Delete(ctx, other.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Sections().GetByID(ctx, stray.ID); err != nil {
		t.Errorf("section without back-reference was deleted: %v", err)
	}
}

func TestCampaignDelete_SectionFailureIsNotFatal(t *testing.T) {
	db := newTestStore(t)
	sections := &failingSections{SectionRepository: db.Sections()}
	svc := NewCampaignService(db.Campaigns(), sections, discardLogger())
	ctx := context.Background()

	c, _ := svc.Create(ctx, winterDrive())
	sections.deleteErr = errors.New("section store down")

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v, want success", err)
	}
	_, err := svc.Get(ctx, c.ID)
	assertIs(t, err, apperror.ErrNotFound)

	kept, err := db.Sections().GetByID(ctx, *c.SectionID)
	if err != nil {
		t.Fatalf("paired section should survive the failed delete: %v", err)
	}
	if kept.FestiveCampaignID != nil {
		t.Errorf("surviving section still points at deleted campaign %s", *kept.FestiveCampaignID)
	}
}
