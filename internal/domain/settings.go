package domain

import (
	"net/url"
	"strings"
)

// NotificationSettings controls who hears about finished jobs.
type NotificationSettings struct {
	EmailEnabled    bool     `json:"email_enabled"`
	EmailRecipients []string `json:"email_recipients"`
	TeamsEnabled    bool     `json:"teams_enabled"`
	TeamsWebhookURL string   `json:"teams_webhook_url"`
}

// DefaultNotificationSettings has every channel disabled.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{EmailRecipients: []string{}}
}

// Normalize trims and lower-cases recipients and drops empty entries.
func (s *NotificationSettings) Normalize() {
	recipients := make([]string, 0, len(s.EmailRecipients))
	for _, r := range s.EmailRecipients {
		if r = NormalizeEmail(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	s.EmailRecipients = recipients
	s.TeamsWebhookURL = strings.TrimSpace(s.TeamsWebhookURL)
}

// Validate checks recipients and the webhook address of enabled channels.
func (s *NotificationSettings) Validate() error {
	for _, r := range s.EmailRecipients {
		if err := ValidateEmail(r); err != nil {
			return NewValidationError("email_recipients", "invalid recipient "+r)
		}
	}
	if s.EmailEnabled && len(s.EmailRecipients) == 0 {
		return NewValidationError("email_recipients", "at least one recipient is required when email is enabled")
	}
	if s.TeamsEnabled || s.TeamsWebhookURL != "" {
		u, err := url.Parse(s.TeamsWebhookURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return NewValidationError("teams_webhook_url", "must be an https url")
		}
	}
	return nil
}
