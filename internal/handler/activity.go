package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caridad-unsta/caridad/internal/service"
)

// ActivityHandler serves activities and registrations.
type ActivityHandler struct {
	activities *service.ActivityService
	users      *service.UserService
	logger     *slog.Logger
}

func NewActivityHandler(activities *service.ActivityService, users *service.UserService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, users: users, logger: logger}
}

// HandleList answers GET /api/activities?from=&to=&active=
//
// Bare dates are accepted; to=YYYY-MM-DD covers that whole day. Members
// always get active activities only.
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from", false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	to, err := queryTime(r, "to", true)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	activeOnly, err := queryBool(r, "active", true)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	caller, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !caller.IsAdmin() {
		activeOnly = true
	}

	activities, err := h.activities.ListByDateRange(r.Context(), from, to, activeOnly)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// HandleGet answers GET /api/activities/{id}
func (h *ActivityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	activity, err := h.activities.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// HandleListMine answers GET /api/activities/mine
func (h *ActivityHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	activities, err := h.activities.JoinedBy(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

type createActivityRequest struct {
	Title           string    `json:"title" validate:"required,notblank"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date" validate:"required"`
	Location        string    `json:"location"`
	MaxParticipants *int      `json:"maxParticipants" validate:"omitempty,gte=1"`
	IsActive        *bool     `json:"isActive"`
}

// HandleCreate answers POST /api/activities
func (h *ActivityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	activity, err := h.activities.Create(r.Context(), service.ActivityInput{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date.UTC(),
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

type updateActivityRequest struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	Date                 *time.Time `json:"date"`
	Location             *string    `json:"location"`
	MaxParticipants      *int       `json:"maxParticipants"`
	ClearMaxParticipants bool       `json:"clearMaxParticipants"`
	IsActive             *bool      `json:"isActive"`
}

// HandleUpdate answers PUT /api/activities/{id}
func (h *ActivityHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Date != nil {
		utc := req.Date.UTC()
		req.Date = &utc
	}
	activity, err := h.activities.Update(r.Context(), chi.URLParam(r, "id"), service.ActivityPatch{
		Title:                req.Title,
		Description:          req.Description,
		Date:                 req.Date,
		Location:             req.Location,
		MaxParticipants:      req.MaxParticipants,
		ClearMaxParticipants: req.ClearMaxParticipants,
		IsActive:             req.IsActive,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// HandleDelete answers DELETE /api/activities/{id}
func (h *ActivityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.activities.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleJoin answers POST /api/activities/{id}/join. A second join, or a
// join on a full or inactive activity, is 409.
func (h *ActivityHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	participant, err := h.activities.Join(r.Context(), caller.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

// HandleLeave answers DELETE /api/activities/{id}/join
func (h *ActivityHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.activities.Leave(r.Context(), caller.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleParticipants answers GET /api/activities/{id}/participants
func (h *ActivityHandler) HandleParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.activities.Participants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, participants)
}
