package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/service"
)

// DonationHandler serves donations. Every response body goes through the
// service's view projection, so anonymous donors never leak.
type DonationHandler struct {
	donations *service.DonationService
	users     *service.UserService
	logger    *slog.Logger
}

func NewDonationHandler(donations *service.DonationService, users *service.UserService, logger *slog.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, users: users, logger: logger}
}

type submitDonationRequest struct {
	SectionID   string             `json:"sectionId" validate:"required"`
	Amount      float64            `json:"amount" validate:"gte=0"`
	Kind        model.DonationKind `json:"kind" validate:"omitempty,oneof=monetary in_kind"`
	Description string             `json:"description"`
	IsAnonymous bool               `json:"isAnonymous"`
	DonorName   string             `json:"donorName"`
	DonorEmail  string             `json:"donorEmail" validate:"omitempty,email"`
}

// HandleSubmit answers POST /api/donations. The donor is the caller; an
// empty donorName falls back to the caller's profile name.
func (h *DonationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitDonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	caller, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.DonorName == "" && !req.IsAnonymous {
		req.DonorName = caller.Name
	}

	donation, err := h.donations.Submit(r.Context(), service.DonationInput{
		UserID:      caller.ID,
		SectionID:   req.SectionID,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Description: req.Description,
		IsAnonymous: req.IsAnonymous,
		DonorName:   req.DonorName,
		DonorEmail:  req.DonorEmail,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, donation)
}

// HandleList answers GET /api/donations?sectionId=&status=&userId=&limit=&offset=
func (h *DonationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	q := r.URL.Query()
	donations, err := h.donations.List(r.Context(), service.DonationQuery{
		SectionID: q.Get("sectionId"),
		Status:    model.DonationStatus(q.Get("status")),
		UserID:    q.Get("userId"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// HandleListMine answers GET /api/donations/mine
func (h *DonationHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	donations, err := h.donations.ListMine(r.Context(), caller.ID, limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// HandleGet answers GET /api/donations/{id}. Members get 403 for donations
// that are not theirs.
func (h *DonationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	donation, err := h.donations.Get(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, donation)
}

type updateDonationRequest struct {
	Amount      *float64              `json:"amount"`
	Description *string               `json:"description"`
	IsAnonymous *bool                 `json:"isAnonymous"`
	Status      *model.DonationStatus `json:"status"`
	SectionID   *string               `json:"sectionId"`
}

// HandleUpdate answers PUT /api/donations/{id}. Setting only status is the
// confirm/reject action of the admin screens.
func (h *DonationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateDonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	donation, err := h.donations.Update(r.Context(), chi.URLParam(r, "id"), service.DonationPatch{
		Amount:      req.Amount,
		Description: req.Description,
		IsAnonymous: req.IsAnonymous,
		Status:      req.Status,
		SectionID:   req.SectionID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, donation)
}

// HandleDelete answers DELETE /api/donations/{id}
func (h *DonationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.donations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats answers GET /api/donations/stats?sectionId=
func (h *DonationHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.donations.Stats(r.Context(), r.URL.Query().Get("sectionId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
