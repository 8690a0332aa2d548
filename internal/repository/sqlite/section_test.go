package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
)

func TestSectionCreate_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	createTestSection(t, db, "Clothing")

	dup := &model.DonationSection{Name: "clothing", Slug: "clothing-2"}
	err := db.Sections().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestSectionCreate_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	createTestSection(t, db, "Clothing")

	dup := &model.DonationSection{Name: "Clothes", Slug: "clothing"}
	err := db.Sections().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestSectionGetBySlug(t *testing.T) {
	db := newTestDB(t)
	created := createTestSection(t, db, "Study Materials")

	found, err := db.Sections().GetBySlug(context.Background(), "study-materials")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("GetBySlug().ID = %q, want %q", found.ID, created.ID)
	}
	if found.FestiveCampaignID != nil {
		t.Errorf("FestiveCampaignID = %v, want nil", *found.FestiveCampaignID)
	}
}

func TestSectionList_ActiveOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestSection(t, db, "Monetary")
	hidden := createTestSection(t, db, "Clothing")
	hidden.IsActive = false
	if err := db.Sections().Update(ctx, hidden); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	all, err := db.Sections().List(ctx, false)
	if err != nil {
		t.Fatalf("List(false) error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List(false) returned %d sections, want 2", len(all))
	}
	if all[0].Name != "Clothing" {
		t.Errorf("List(false)[0] = %q, want sections ordered by name", all[0].Name)
	}

	active, err := db.Sections().List(ctx, true)
	if err != nil {
		t.Fatalf("List(true) error = %v", err)
	}
	if len(active) != 1 || active[0].Name != "Monetary" {
		t.Errorf("List(true) = %+v, want only Monetary", active)
	}
}

func TestSectionUpdate_KeepsSlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	section := createTestSection(t, db, "Clothing")

	section.Name = "Winter Clothing"
	section.Slug = "something-else"
	if err := db.Sections().Update(ctx, section); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.Sections().GetByID(ctx, section.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Winter Clothing" {
		t.Errorf("Name = %q, want %q", found.Name, "Winter Clothing")
	}
	if found.Slug != "clothing" {
		t.Errorf("Slug = %q, want it unchanged", found.Slug)
	}
}

func TestSectionDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	section := createTestSection(t, db, "Clothing")

	if err := db.Sections().Delete(ctx, section.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Sections().GetByID(ctx, section.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.Sections().Delete(ctx, section.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSectionDelete_BlockedByDonations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "ana@unsta.edu.ar", "Ana")
	section := createTestSection(t, db, "Clothing")
	createTestDonation(t, db, user.ID, section.ID, 0)

	n, err := db.Sections().CountDonations(ctx, section.ID)
	if err != nil {
		t.Fatalf("CountDonations() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountDonations() = %d, want 1", n)
	}

	err = db.Sections().Delete(ctx, section.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Delete() error = %v, want ErrConflict", err)
	}
}
