package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caridad-unsta/caridad/internal/service"
)

// SectionHandler serves donation sections.
type SectionHandler struct {
	sections *service.SectionService
	logger   *slog.Logger
}

func NewSectionHandler(sections *service.SectionService, logger *slog.Logger) *SectionHandler {
	return &SectionHandler{sections: sections, logger: logger}
}

// HandleList answers GET /api/donation-sections?active=true
func (h *SectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active", false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sections, err := h.sections.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

// HandleGet answers GET /api/donation-sections/{id}
func (h *SectionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	section, err := h.sections.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

// HandleGetBySlug answers GET /api/donation-sections/slug/{slug}
func (h *SectionHandler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	section, err := h.sections.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

type createSectionRequest struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
}

// HandleCreate answers POST /api/donation-sections
func (h *SectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	section, err := h.sections.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, section)
}

type updateSectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// HandleUpdate answers PUT /api/donation-sections/{id}
func (h *SectionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateSectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	section, err := h.sections.Update(r.Context(), chi.URLParam(r, "id"), service.SectionPatch{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

// HandleDelete answers DELETE /api/donation-sections/{id}. Sections that
// still hold donations are refused with 409.
func (h *SectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sections.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
