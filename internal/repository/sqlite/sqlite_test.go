package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/caridad-unsta/caridad/internal/model"
)

// newTestDB opens a fresh in-memory database. Each test gets its own, and
// t.Cleanup closes it when the test (and its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email, name string) *model.User {
	t.Helper()
	user := &model.User{
		ExternalID: "google:" + strings.Split(email, "@")[0],
		Email:      email,
		Name:       name,
		Role:       model.RoleMember,
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestSection(t *testing.T, db *DB, name string) *model.DonationSection {
	t.Helper()
	section := &model.DonationSection{
		Name:     name,
		Slug:     strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		IsActive: true,
	}
	if err := db.Sections().Create(context.Background(), section); err != nil {
		t.Fatalf("failed to create test section: %v", err)
	}
	return section
}

func createTestDonation(t *testing.T, db *DB, userID, sectionID string, amount float64) *model.Donation {
	t.Helper()
	donation := &model.Donation{
		Amount:      amount,
		Description: "test donation",
		Status:      model.StatusPending,
		UserID:      userID,
		SectionID:   sectionID,
		DonorName:   "Jane",
		DonorEmail:  "jane@example.com",
	}
	if err := db.Donations().Create(context.Background(), donation); err != nil {
		t.Fatalf("failed to create test donation: %v", err)
	}
	return donation
}

func createTestActivity(t *testing.T, db *DB, title string, date time.Time, capacity *int) *model.Activity {
	t.Helper()
	activity := &model.Activity{
		Title:           title,
		Date:            date,
		MaxParticipants: capacity,
		IsActive:        true,
	}
	if err := db.Activities().Create(context.Background(), activity); err != nil {
		t.Fatalf("failed to create test activity: %v", err)
	}
	return activity
}

func intPtr(n int) *int { return &n }

// =========================================================================
// CONNECTION TESTS
// =========================================================================

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var enabled int
	if err := db.conn.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		t.Fatalf("reading foreign_keys pragma: %v", err)
	}
	if enabled != 1 {
		t.Errorf("foreign_keys = %d, want 1", enabled)
	}
}

func TestDSN(t *testing.T) {
	mem := dsn(":memory:")
	if strings.Contains(mem, "journal_mode") {
		t.Errorf("in-memory dsn should not request WAL: %s", mem)
	}

	file := dsn("data/caridad.db")
	for _, want := range []string{"foreign_keys(1)", "_txlock=immediate", "_time_format=sqlite", "journal_mode(WAL)"} {
		if !strings.Contains(file, want) {
			t.Errorf("dsn %q missing %q", file, want)
		}
	}
}

func TestTimesRoundTripInUTC(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "utc@example.com", "UTC")

	found, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !found.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, user.CreatedAt)
	}
}
