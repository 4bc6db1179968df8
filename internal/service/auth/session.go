package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session token.
const CookieName = "session_id"

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	// Secret signs session envelopes; at least 32 characters.
	Secret string
	// TTL bounds both the stored record and the envelope.
	TTL time.Duration
	// Production switches cookies to SameSite=None; Secure.
	Production bool
}

// SessionManager issues, resolves and destroys server-side sessions.
// The record lives in the sessions collection under a random id; the client
// only ever holds a signed envelope naming that id.
type SessionManager struct {
	col      store.Collection
	envelope *envelope
	ttl      time.Duration
	prod     bool
	logger   *slog.Logger
}

// NewSessionManager creates a SessionManager on the given backend.
func NewSessionManager(backend store.Backend, cfg SessionConfig, logger *slog.Logger) (*SessionManager, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 characters")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	return &SessionManager{
		col: backend.Collection(store.CollectionSessions),
		envelope: &envelope{
			signingKey: []byte(cfg.Secret),
			lifetime:   cfg.TTL,
			timeFunc:   time.Now,
			clockSkew:  2 * time.Minute,
		},
		ttl:    cfg.TTL,
		prod:   cfg.Production,
		logger: logger.With("component", "session_manager"),
	}, nil
}

// TTL returns the session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create stores a new session record and returns its signed token.
func (m *SessionManager) Create(ctx context.Context, user *domain.User) (string, error) {
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}

	if err := store.PutJSONWithTTL(ctx, m.col, session.ID, session, m.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	token, err := m.envelope.sign(session.ID)
	if err != nil {
		// The orphaned record expires on its own.
		return "", err
	}

	m.logger.Debug("session created", "user_id", user.ID, "role", user.Role)
	return token, nil
}

// Resolve returns the session named by token. Any failure, including a bad
// signature, a missing or expired record or a storage error, yields false.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*domain.Session, bool) {
	sessionID, err := m.envelope.open(token)
	if err != nil {
		m.logger.Debug("session token rejected", "error", err)
		return nil, false
	}

	session, err := store.GetJSON[domain.Session](ctx, m.col, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Warn("failed to load session", "error", err)
		}
		return nil, false
	}

	session.ID = sessionID
	return session, true
}

// Destroy deletes the session named by token. Failures are logged only.
func (m *SessionManager) Destroy(ctx context.Context, token string) {
	sessionID, err := m.envelope.open(token)
	if err != nil {
		m.logger.Debug("destroy skipped, token rejected", "error", err)
		return
	}
	if err := m.col.Delete(ctx, sessionID); err != nil {
		m.logger.Debug("failed to delete session", "error", err)
	}
}

// TokenFromRequest extracts the session token, preferring an
// "Authorization: Bearer" header over the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Cookie builds the session cookie for token. Production cookies are
// cross-site (SameSite=None) and therefore always Secure.
func (m *SessionManager) Cookie(token string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
	if m.prod {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}
	return cookie
}

// ClearCookie builds a cookie that removes the session cookie.
func (m *SessionManager) ClearCookie() *http.Cookie {
	cookie := m.Cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}
