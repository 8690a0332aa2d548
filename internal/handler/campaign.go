package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/service"
)

// CampaignHandler serves festive campaigns. Creating a campaign also opens
// its paired donation section; a failure there is logged by the service and
// the campaign is still returned with a null sectionId.
type CampaignHandler struct {
	campaigns *service.CampaignService
	logger    *slog.Logger
}

func NewCampaignHandler(campaigns *service.CampaignService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, logger: logger}
}

// HandleList answers GET /api/festive-campaigns?running=true
func (h *CampaignHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	running, err := queryBool(r, "running", false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var campaigns []model.FestiveCampaign
	if running {
		campaigns, err = h.campaigns.ListRunning(r.Context(), time.Now())
	} else {
		campaigns, err = h.campaigns.List(r.Context())
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// HandleGet answers GET /api/festive-campaigns/{id}
func (h *CampaignHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

type createCampaignRequest struct {
	Name        string     `json:"name" validate:"required,notblank"`
	Description string     `json:"description"`
	StartDate   model.Date `json:"startDate"`
	EndDate     model.Date `json:"endDate"`
	Icon        string     `json:"icon"`
	Gradient    string     `json:"gradient"`
	BgGradient  string     `json:"bgGradient"`
	Items       []string   `json:"items"`
	IsEnabled   *bool      `json:"isEnabled"`
}

// HandleCreate answers POST /api/festive-campaigns
func (h *CampaignHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	campaign, err := h.campaigns.Create(r.Context(), service.CampaignInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Icon:        req.Icon,
		Gradient:    req.Gradient,
		BgGradient:  req.BgGradient,
		Items:       req.Items,
		IsEnabled:   req.IsEnabled,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

// updateCampaignRequest carries the id in the body. Absent fields are left
// alone; sectionId "" unlinks the paired section.
type updateCampaignRequest struct {
	ID          string      `json:"id" validate:"required"`
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	StartDate   *model.Date `json:"startDate"`
	EndDate     *model.Date `json:"endDate"`
	IsEnabled   *bool       `json:"isEnabled"`
	Icon        *string     `json:"icon"`
	Gradient    *string     `json:"gradient"`
	BgGradient  *string     `json:"bgGradient"`
	Items       []string    `json:"items"`
	SectionID   *string     `json:"sectionId"`
}

// HandleUpdate answers PUT /api/festive-campaigns
func (h *CampaignHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	campaign, err := h.campaigns.Update(r.Context(), req.ID, service.CampaignPatch{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsEnabled:   req.IsEnabled,
		Icon:        req.Icon,
		Gradient:    req.Gradient,
		BgGradient:  req.BgGradient,
		Items:       req.Items,
		SectionID:   req.SectionID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// HandleDelete answers DELETE /api/festive-campaigns?id=
func (h *CampaignHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("id", "campaign id is required"))
		return
	}
	if err := h.campaigns.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
