package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/caridad-unsta/caridad/internal/apperror"
)

func TestExport(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	svc := NewExportService(db.Users(), db.Donations(), db.Activities())

	donor := seedUser(t, db, "jane@unsta.edu.ar", "Doe, Jane")
	section := seedSection(t, db, "Clothing")
	donations := NewDonationService(db.Donations(), db.Sections(), nil, discardLogger())
	if _, err := donations.Submit(ctx, DonationInput{
		UserID: donor.ID, SectionID: section.ID, Description: "coats, scarves\nand gloves",
		DonorName: "Jane", DonorEmail: "jane@unsta.edu.ar", IsAnonymous: true,
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	activities := NewActivityService(db.Activities(), nil, true, discardLogger())
	if _, err := activities.Create(ctx, ActivityInput{Title: "Cleanup", Date: wednesday, MaxParticipants: intPtr(10)}); err != nil {
		t.Fatalf("Create activity: %v", err)
	}

	tests := []struct {
		dataset string
		check   func(t *testing.T, records [][]string)
	}{
		{ExportUsers, func(t *testing.T, records [][]string) {
			if records[1][1] != "Doe, Jane" {
				t.Errorf("name column = %q, want the comma preserved", records[1][1])
			}
		}},
		{ExportDonations, func(t *testing.T, records [][]string) {
			row := records[1]
			if row[3] != "in_kind" || row[5] != "coats, scarves\nand gloves" {
				t.Errorf("donation row = %q", row)
			}
			if row[7] != "Anonymous" || row[8] != "" {
				t.Errorf("donor columns = %q, %q, want anonymised", row[7], row[8])
			}
		}},
		{ExportActivities, func(t *testing.T, records [][]string) {
			if records[1][1] != "Cleanup" || records[1][4] != "10" || records[1][6] != "true" {
				t.Errorf("activity row = %q", records[1])
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.dataset, func(t *testing.T) {
			var buf bytes.Buffer
			if err := svc.Write(ctx, tt.dataset, &buf); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			records, err := csv.NewReader(&buf).ReadAll()
			if err != nil {
				t.Fatalf("output is not valid CSV: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("got %d records, want header + 1", len(records))
			}
			tt.check(t, records)
		})
	}

	assertIs(t, svc.Write(ctx, "passwords", &bytes.Buffer{}), apperror.ErrNotFound)
}
