// Package notify tells operators about finished jobs. It listens for job
// events and posts to a Microsoft Teams incoming webhook when enabled.
// Email delivery is recorded in the log only.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/events"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SettingsSource returns the current notification settings.
// *service.SettingsService satisfies it.
type SettingsSource interface {
	Notifications(ctx context.Context) (domain.NotificationSettings, error)
}

// Handler delivers job events to the configured channels.
type Handler struct {
	settings SettingsSource
	http     *http.Client
	logger   *slog.Logger
}

var _ events.EventHandler = (*Handler)(nil)

// NewHandler creates a Handler. A nil client selects a default with a 10s timeout.
func NewHandler(settings SettingsSource, client *http.Client, logger *slog.Logger) *Handler {
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Handler{
		settings: settings,
		http:     client,
		logger:   logger.With("component", "notifier"),
	}
}

// HandleEvent implements events.EventHandler.
func (h *Handler) HandleEvent(ctx context.Context, event *events.JobEvent) error {
	settings, err := h.settings.Notifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notification settings: %w", err)
	}

	if settings.EmailEnabled && len(settings.EmailRecipients) > 0 {
		h.logger.InfoContext(ctx, "job notification email queued",
			"job_id", event.JobID,
			"event_type", event.Type,
			"recipient_count", len(settings.EmailRecipients))
	}

	if !settings.TeamsEnabled || settings.TeamsWebhookURL == "" {
		return nil
	}
	if err := h.postTeams(ctx, settings.TeamsWebhookURL, event); err != nil {
		return fmt.Errorf("failed to post teams notification: %w", err)
	}
	h.logger.InfoContext(ctx, "teams notification sent",
		"job_id", event.JobID,
		"event_type", event.Type)
	return nil
}

type messageCard struct {
	Type       string `json:"@type"`
	Context    string `json:"@context"`
	Summary    string `json:"summary"`
	ThemeColor string `json:"themeColor"`
	Title      string `json:"title"`
	Text       string `json:"text"`
}

func buildCard(event *events.JobEvent) messageCard {
	card := messageCard{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
	}
	switch event.Type {
	case events.JobFailed:
		card.ThemeColor = "D13438"
		card.Title = "Alt text job failed"
		card.Text = fmt.Sprintf("Job %s failed after %d item(s): %s", event.JobID, event.ItemCount, event.Error)
	default:
		card.ThemeColor = "107C10"
		card.Title = "Alt text job completed"
		card.Text = fmt.Sprintf("Job %s finished %d item(s) with %d proposal(s) ready for review.",
			event.JobID, event.ItemCount, event.ProposalCount)
	}
	card.Summary = card.Title
	return card
}

func (h *Handler) postTeams(ctx context.Context, webhookURL string, event *events.JobEvent) error {
	body, err := json.Marshal(buildCard(event))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
