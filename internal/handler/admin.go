package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/service"
)

// AdminHandler serves the dashboard: totals, recent lists, chart series and
// CSV exports. All routes sit behind RequireAdmin.
type AdminHandler struct {
	reports *service.ReportService
	exports *service.ExportService
	logger  *slog.Logger
}

func NewAdminHandler(reports *service.ReportService, exports *service.ExportService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{reports: reports, exports: exports, logger: logger}
}

// HandleOverview answers GET /api/admin/overview
func (h *AdminHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.reports.Overview(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// HandleRecentActivities answers GET /api/admin/recent-activities?limit=N
func (h *AdminHandler) HandleRecentActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	activities, err := h.reports.RecentActivities(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// HandleRecentDonations answers GET /api/admin/recent-donations?limit=N
func (h *AdminHandler) HandleRecentDonations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	donations, err := h.reports.RecentDonations(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// HandleChart answers GET /api/admin/charts/{chart}?months=N
func (h *AdminHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var series []model.SeriesPoint
	switch chart := chi.URLParam(r, "chart"); chart {
	case "donations-by-month":
		series, err = h.reports.DonationsByMonth(r.Context(), months)
	case "user-growth":
		series, err = h.reports.UserGrowth(r.Context(), months)
	case "activities-by-status":
		series, err = h.reports.ActivitiesByStatus(r.Context())
	case "donations-by-section":
		series, err = h.reports.DonationsBySection(r.Context())
	default:
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: fmt.Sprintf("unknown chart %q", chart),
		})
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// HandleExport answers GET /api/admin/export/{dataset}.csv
//
// The CSV is built in memory first so a failure still gets a JSON error
// with the right status instead of a truncated download.
func (h *AdminHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	var buf bytes.Buffer
	if err := h.exports.Write(r.Context(), dataset, &buf); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, dataset))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export interrupted",
			slog.String("dataset", dataset),
			slog.String("error", err.Error()),
		)
	}
}
