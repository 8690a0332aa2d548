package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// Export datasets.
const (
	ExportUsers      = "users"
	ExportDonations  = "donations"
	ExportActivities = "activities"
)

// ExportService writes administrative CSV exports. Fields are quoted by
// encoding/csv, so commas and newlines inside values survive.
type ExportService struct {
	users      repository.UserRepository
	donations  repository.DonationRepository
	activities repository.ActivityRepository
}

func NewExportService(users repository.UserRepository, donations repository.DonationRepository, activities repository.ActivityRepository) *ExportService {
	return &ExportService{users: users, donations: donations, activities: activities}
}

// Write streams dataset as CSV into w. Unknown datasets are a NotFoundError.
func (s *ExportService) Write(ctx context.Context, dataset string, w io.Writer) error {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch dataset {
	case ExportUsers:
		header, rows, err = s.userRows(ctx)
	case ExportDonations:
		header, rows, err = s.donationRows(ctx)
	case ExportActivities:
		header, rows, err = s.activityRows(ctx)
	default:
		return apperror.NotFound("export", dataset)
	}
	if err != nil {
		return fmt.Errorf("exporting %s: %w", dataset, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s csv: %w", dataset, err)
	}
	return nil
}

func (s *ExportService) userRows(ctx context.Context) ([]string, [][]string, error) {
	users, err := s.users.List(ctx, repository.UserFilter{}, repository.UserSort{Field: "name", Direction: repository.SortAsc})
	if err != nil {
		return nil, nil, err
	}
	header := []string{"id", "name", "email", "role", "memberCode", "createdAt"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.ID, u.Name, u.Email, string(u.Role), u.MemberCode, formatTime(u.CreatedAt),
		})
	}
	return header, rows, nil
}

// donationRows goes through the view projection so anonymous donors stay anonymous.
func (s *ExportService) donationRows(ctx context.Context) ([]string, [][]string, error) {
	donations, err := s.donations.List(ctx, repository.DonationFilter{})
	if err != nil {
		return nil, nil, err
	}
	header := []string{"id", "createdAt", "section", "kind", "amount", "description", "status", "donorName", "donorEmail"}
	rows := make([][]string, 0, len(donations))
	for _, v := range model.Views(donations) {
		rows = append(rows, []string{
			v.ID,
			formatTime(v.CreatedAt),
			v.SectionName,
			string(v.Kind),
			strconv.FormatFloat(v.Amount, 'f', 2, 64),
			v.Description,
			string(v.Status),
			v.DonorName,
			v.DonorEmail,
		})
	}
	return header, rows, nil
}

func (s *ExportService) activityRows(ctx context.Context) ([]string, [][]string, error) {
	activities, err := s.activities.List(ctx, repository.ActivityFilter{})
	if err != nil {
		return nil, nil, err
	}
	header := []string{"id", "title", "date", "location", "maxParticipants", "participants", "isActive"}
	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		capacity := ""
		if a.MaxParticipants != nil {
			capacity = strconv.Itoa(*a.MaxParticipants)
		}
		rows = append(rows, []string{
			a.ID,
			a.Title,
			formatTime(a.Date),
			a.Location,
			capacity,
			strconv.Itoa(a.ParticipantCount),
			strconv.FormatBool(a.IsActive),
		})
	}
	return header, rows, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
