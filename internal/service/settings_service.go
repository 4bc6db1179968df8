package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/store"
)

// Documents in the settings collection.
const (
	notificationsKey = "notifications"
	inviteCodeKey    = "invite_code"
)

type inviteCodeDocument struct {
	Code      string    `json:"code"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsService reads and writes application settings.
type SettingsService struct {
	col    store.Collection
	logger *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(backend store.Backend, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		col:    backend.Collection(store.CollectionSettings),
		logger: logger.With("component", "settings_service"),
	}
}

// Notifications returns the stored notification settings, or defaults.
func (s *SettingsService) Notifications(ctx context.Context) (domain.NotificationSettings, error) {
	settings, err := store.GetJSON[domain.NotificationSettings](ctx, s.col, notificationsKey)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return domain.DefaultNotificationSettings(), NewServiceError("get_notifications", "failed to load notification settings", err)
	}
	if settings.EmailRecipients == nil {
		settings.EmailRecipients = []string{}
	}
	return *settings, nil
}

// SaveNotifications validates and stores notification settings.
func (s *SettingsService) SaveNotifications(ctx context.Context, settings domain.NotificationSettings) (domain.NotificationSettings, error) {
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	if err := store.PutJSON(ctx, s.col, notificationsKey, settings); err != nil {
		return settings, NewServiceError("save_notifications", "failed to store notification settings", err)
	}
	s.logger.InfoContext(ctx, "notification settings updated",
		"email_enabled", settings.EmailEnabled,
		"teams_enabled", settings.TeamsEnabled)
	return settings, nil
}

// InviteCode returns the registration invite code, or "" when none is set.
func (s *SettingsService) InviteCode(ctx context.Context) (string, error) {
	doc, err := store.GetJSON[inviteCodeDocument](ctx, s.col, inviteCodeKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", NewServiceError("get_invite_code", "failed to load invite code", err)
	}
	return doc.Code, nil
}

// SetInviteCode stores the invite code. An empty code removes the requirement.
func (s *SettingsService) SetInviteCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		if err := s.col.Delete(ctx, inviteCodeKey); err != nil {
			return NewServiceError("set_invite_code", "failed to clear invite code", err)
		}
		s.logger.InfoContext(ctx, "invite code cleared")
		return nil
	}

	doc := inviteCodeDocument{Code: code, UpdatedAt: time.Now().UTC()}
	if err := store.PutJSON(ctx, s.col, inviteCodeKey, doc); err != nil {
		return NewServiceError("set_invite_code", "failed to store invite code", err)
	}
	s.logger.InfoContext(ctx, "invite code updated")
	return nil
}
