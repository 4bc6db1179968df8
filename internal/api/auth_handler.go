package api

import (
	"context"
	"net/http"
	"time"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/service/auth"
)

// SessionIssuer creates and destroys sessions. *auth.SessionManager satisfies it.
type SessionIssuer interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	Destroy(ctx context.Context, token string)
	Cookie(token string) *http.Cookie
	ClearCookie() *http.Cookie
	TTL() time.Duration
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users    *service.UserService
	sessions SessionIssuer
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users *service.UserService, sessions SessionIssuer) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		InviteCode:  req.InviteCode,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.startSession(w, r, user, http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.startSession(w, r, user, http.StatusOK)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.sessions.Destroy(r.Context(), token)
	}
	http.SetCookie(w, h.sessions.ClearCookie())
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), session.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if !user.IsActive {
		HandleAPIError(w, r, service.ErrAccountDisabled, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *domain.User, status int) {
	token, err := h.sessions.Create(r.Context(), user)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, CodeInternal,
			"Failed to create session", err)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(token))
	shared.RespondWithJSON(w, r, status, AuthResponse{
		User:      newUserResponse(user),
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.sessions.TTL()).Format(time.RFC3339),
	})
}
