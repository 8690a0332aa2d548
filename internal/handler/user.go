package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/auth"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
	"github.com/caridad-unsta/caridad/internal/service"
)

// currentUser returns the caller. Admin routes already loaded it; elsewhere
// it is read through the user service. A token for a deleted account is
// treated as no token.
func currentUser(r *http.Request, users *service.UserService) (*model.User, error) {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		return u, nil
	}
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	u, err := users.Get(r.Context(), id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	return u, err
}

// UserHandler serves the user directory.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList answers GET /api/users/all?role=&search=&sort=&order=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.users.List(r.Context(),
		repository.UserFilter{Role: model.Role(q.Get("role")), Search: q.Get("search")},
		repository.UserSort{Field: q.Get("sort"), Direction: repository.SortDirection(q.Get("order"))},
	)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleRole answers GET /api/users/role/{externalId}
func (h *UserHandler) HandleRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.users.RoleOf(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Role{"role": role})
}

type createUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Name     string     `json:"name" validate:"required,notblank"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=Admin Member"`
	Password string     `json:"password"`
}

// HandleCreate answers POST /api/users/create
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Create(r.Context(), req.Email, req.Name, req.Role, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type updateRoleRequest struct {
	ID   string     `json:"id" validate:"required"`
	Role model.Role `json:"role" validate:"required,oneof=Admin Member"`
}

// HandleUpdateRole answers PUT /api/users/update-role
func (h *UserHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.UpdateRole(r.Context(), req.ID, req.Role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateNameRequest struct {
	ID   string `json:"id"` // empty means the caller
	Name string `json:"name" validate:"required,notblank"`
}

// HandleUpdateName answers PUT /api/users/update-name. Members may only
// rename themselves.
func (h *UserHandler) HandleUpdateName(w http.ResponseWriter, r *http.Request) {
	var req updateNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := h.targetOf(r, req.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.UpdateName(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateMemberCodeRequest struct {
	ID         string `json:"id"`
	MemberCode string `json:"memberCode"`
}

// HandleUpdateMemberCode answers PUT /api/users/update-student-code.
// Members may set their own code.
func (h *UserHandler) HandleUpdateMemberCode(w http.ResponseWriter, r *http.Request) {
	var req updateMemberCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := h.targetOf(r, req.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.UpdateMemberCode(r.Context(), id, req.MemberCode)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type setPasswordRequest struct {
	ID       string `json:"id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleSetPassword answers PUT /api/users/password
func (h *UserHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.users.SetPassword(r.Context(), req.ID, req.Password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete answers DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// targetOf resolves which account a self-service edit applies to.
func (h *UserHandler) targetOf(r *http.Request, requested string) (string, error) {
	caller, err := currentUser(r, h.users)
	if err != nil {
		return "", err
	}
	if requested == "" || requested == caller.ID {
		return caller.ID, nil
	}
	if !caller.IsAdmin() {
		return "", apperror.Forbidden("members may only edit their own account")
	}
	return requested, nil
}
