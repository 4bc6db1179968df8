package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
)

// KeyManager reads and updates managed API keys. *secrets.Manager satisfies it.
type KeyManager interface {
	Masked(ctx context.Context) map[string]secrets.KeyStatus
	Save(ctx context.Context, updates map[string]*string) error
}

// AdminHandler serves the admin-only settings and user management routes.
type AdminHandler struct {
	keys     KeyManager
	users    *service.UserService
	settings *service.SettingsService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(keys KeyManager, users *service.UserService, settings *service.SettingsService) *AdminHandler {
	return &AdminHandler{keys: keys, users: users, settings: settings}
}

// GetAPIKeys handles GET /admin/settings/api-keys.
func (h *AdminHandler) GetAPIKeys(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.keys.Masked(r.Context()))
}

// UpdateAPIKeys handles PUT /admin/settings/api-keys. Each key maps to null
// (unchanged), "" (remove the stored value) or a new value.
func (h *AdminHandler) UpdateAPIKeys(w http.ResponseWriter, r *http.Request) {
	var req map[string]*string
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err)
		return
	}

	if err := h.keys.Save(r.Context(), req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.keys.Masked(r.Context()))
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"users": out, "total": len(out)})
}

// InviteUser handles POST /admin/users/invite.
func (h *AdminHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var req InviteUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Invite(r.Context(), service.InviteRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, newUserResponse(user))
}

// UpdateUser handles PATCH /admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	upd := service.UserUpdate{IsActive: req.IsActive, DisplayName: req.DisplayName}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		upd.Role = &role
	}

	user, err := h.users.Update(r.Context(), id, upd)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.settings.Notifications(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	code, err := h.settings.InviteCode(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{
		Notifications: notifications,
		InviteCodeSet: code != "",
	})
}

// UpdateNotifications handles PUT /admin/settings/notifications.
func (h *AdminHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var req domain.NotificationSettings
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err)
		return
	}

	saved, err := h.settings.SaveNotifications(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, saved)
}

// UpdateInviteCode handles PUT /admin/settings/invite-code. An empty code
// opens registration.
func (h *AdminHandler) UpdateInviteCode(w http.ResponseWriter, r *http.Request) {
	var req InviteCodeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.settings.SetInviteCode(r.Context(), req.Code); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"invite_code_set": strings.TrimSpace(req.Code) != ""})
}
