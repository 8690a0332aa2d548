package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caridad-unsta/caridad/internal/auth"
	"github.com/caridad-unsta/caridad/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// HandleFeed answers GET /api/users/notifications with the caller's global
// and personal notifications, newest first, each with its read flag.
func (h *NotificationHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	feed, err := h.notifications.ListFor(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// HandleUnreadCount answers GET /api/users/notifications/unread-count
func (h *NotificationHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	n, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// HandleMarkRead answers POST /api/users/notifications/{id}/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead answers POST /api/users/notifications/read-all
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	n, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}

// HandleListAll answers GET /api/admin/notifications, deactivated ones included.
func (h *NotificationHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.notifications.ListAll(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

type createNotificationRequest struct {
	Title   string `json:"title" validate:"required,notblank"`
	Message string `json:"message" validate:"required,notblank"`
	Type    string `json:"type"`
	UserID  string `json:"userId"` // empty broadcasts to everyone
}

// HandleCreate answers POST /api/admin/notifications
func (h *NotificationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	n, err := h.notifications.Create(r.Context(), req.Title, req.Message, req.Type, req.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// HandleGet answers GET /api/admin/notifications/{id}
func (h *NotificationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// HandleDeactivate answers DELETE /api/admin/notifications/{id}. The row is
// kept and disappears from every feed.
func (h *NotificationHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
