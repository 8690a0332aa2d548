package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// Chart windows, in months.
const (
	DefaultChartMonths = 12
	MaxChartMonths     = 36
)

// monthLabel formats a chart bucket.
const monthLabel = "2006-01"

// ReportService serves the admin dashboard. It owns no state: every figure
// is recomputed from the store on each call.
type ReportService struct {
	reports    repository.ReportRepository
	donations  repository.DonationRepository
	activities repository.ActivityRepository
	logger     *slog.Logger

	now func() time.Time
}

func NewReportService(
	reports repository.ReportRepository,
	donations repository.DonationRepository,
	activities repository.ActivityRepository,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reports:    reports,
		donations:  donations,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ReportService) Overview(ctx context.Context) (model.Overview, error) {
	o, err := s.reports.Overview(ctx)
	if err != nil {
		return o, fmt.Errorf("computing overview: %w", err)
	}
	return o, nil
}

// RecentActivities returns the newest activities by creation time.
func (s *ReportService) RecentActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	activities, err := s.activities.List(ctx, repository.ActivityFilter{
		NewestFirst: true,
		ListOptions: repository.ListOptions{Limit: clampRecent(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("listing recent activities: %w", err)
	}
	return activities, nil
}

// RecentDonations returns the newest donations with the anonymity rule applied.
func (s *ReportService) RecentDonations(ctx context.Context, limit int) ([]model.DonationView, error) {
	donations, err := s.donations.List(ctx, repository.DonationFilter{
		ListOptions: repository.ListOptions{Limit: clampRecent(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("listing recent donations: %w", err)
	}
	return model.Views(donations), nil
}

// DonationsByMonth buckets donation counts and amounts by creation month over
// the last months months, current month included. Empty months are present.
func (s *ReportService) DonationsByMonth(ctx context.Context, months int) ([]model.SeriesPoint, error) {
	facts, err := s.donations.Facts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading donation facts: %w", err)
	}

	points, index := s.monthSeries(months)
	for _, f := range facts {
		if i, ok := index[f.CreatedAt.UTC().Format(monthLabel)]; ok {
			points[i].Count++
			points[i].Amount += f.Amount
		}
	}
	return points, nil
}

// UserGrowth reports the cumulative number of users at the end of each month.
func (s *ReportService) UserGrowth(ctx context.Context, months int) ([]model.SeriesPoint, error) {
	created, err := s.reports.UserCreationTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading user creation times: %w", err)
	}

	points, _ := s.monthSeries(months)
	// created is oldest first, so one pass fills the running total.
	j := 0
	for i := range points {
		start, _ := time.Parse(monthLabel, points[i].Label)
		end := start.AddDate(0, 1, 0)
		for j < len(created) && created[j].UTC().Before(end) {
			j++
		}
		points[i].Count = j
	}
	return points, nil
}

// ActivitiesByStatus counts upcoming, past and inactive activities.
func (s *ReportService) ActivitiesByStatus(ctx context.Context) ([]model.SeriesPoint, error) {
	counts, err := s.reports.ActivityStatusCounts(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("counting activities by status: %w", err)
	}
	return []model.SeriesPoint{
		{Label: model.ActivityUpcoming, Count: counts[model.ActivityUpcoming]},
		{Label: model.ActivityPast, Count: counts[model.ActivityPast]},
		{Label: model.ActivityInactive, Count: counts[model.ActivityInactive]},
	}, nil
}

// DonationsBySection totals donations per section, largest amount first.
func (s *ReportService) DonationsBySection(ctx context.Context) ([]model.SeriesPoint, error) {
	facts, err := s.donations.Facts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading donation facts: %w", err)
	}

	bySection := make(map[string]*model.SeriesPoint)
	for _, f := range facts {
		p, ok := bySection[f.SectionName]
		if !ok {
			p = &model.SeriesPoint{Label: f.SectionName}
			bySection[f.SectionName] = p
		}
		p.Count++
		p.Amount += f.Amount
	}

	points := make([]model.SeriesPoint, 0, len(bySection))
	for _, p := range bySection {
		points = append(points, *p)
	}
	slices.SortFunc(points, func(a, b model.SeriesPoint) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return points, nil
}

// monthSeries returns one empty point per month, oldest first, ending with
// the current month, plus the position of each label.
func (s *ReportService) monthSeries(months int) ([]model.SeriesPoint, map[string]int) {
	if months <= 0 {
		months = DefaultChartMonths
	}
	if months > MaxChartMonths {
		months = MaxChartMonths
	}

	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1-months, 0)

	points := make([]model.SeriesPoint, months)
	index := make(map[string]int, months)
	for i := range points {
		label := first.AddDate(0, i, 0).Format(monthLabel)
		points[i].Label = label
		index[label] = i
	}
	return points, index
}
