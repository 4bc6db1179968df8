package api

import (
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/google/uuid"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=100"`
	InviteCode  string `json:"invite_code"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account. It never carries the
// password hash.
type UserResponse struct {
	UserID      uuid.UUID   `json:"user_id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	User UserResponse `json:"user"`

	// Token is the session token, also set as the session cookie
	Token string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the session expires
	ExpiresAt string `json:"expires_at"`
}

// ImageSlot is one image field of a CMS item.
type ImageSlot struct {
	Field        string `json:"field"`
	URL          string `json:"url"`
	AltTextField string `json:"alt_text_field"`
	AltText      string `json:"alt_text"`
}

// ItemSummary is a CMS item with its image slots.
type ItemSummary struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Images []ImageSlot `json:"images"`
}

// ItemsResponse is one page of CMS items.
type ItemsResponse struct {
	Items      []ItemSummary      `json:"items"`
	Pagination webflow.Pagination `json:"pagination"`
}

// GenerateRequest starts an alt-text job.
type GenerateRequest struct {
	ItemIDs      []string `json:"item_ids"      validate:"required,min=1,dive,required"`
	CollectionID string   `json:"collection_id"`
	ImageKeys    []string `json:"image_keys"`
}

// GenerateResponse acknowledges a queued job.
type GenerateResponse struct {
	JobID                    uuid.UUID        `json:"job_id"`
	Status                   domain.JobStatus `json:"status"`
	Progress                 domain.Progress  `json:"progress"`
	EstimatedDurationSeconds int              `json:"estimated_duration_seconds"`
}

// JobStatusResponse reports the state of a job.
type JobStatusResponse struct {
	JobID        uuid.UUID        `json:"job_id"`
	Status       domain.JobStatus `json:"status"`
	Progress     domain.Progress  `json:"progress"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// ProposalsResponse lists the proposals of a completed job.
type ProposalsResponse struct {
	JobID     uuid.UUID          `json:"job_id"`
	Proposals []*domain.Proposal `json:"proposals"`
	Total     int                `json:"total"`
}

// ApplyUpdate is one reviewed field value.
type ApplyUpdate struct {
	ItemID    string `json:"item_id"    validate:"required"`
	FieldName string `json:"field_name" validate:"required"`
	Value     string `json:"value"`
}

// ApplyRequest writes reviewed values to the CMS.
type ApplyRequest struct {
	Updates []ApplyUpdate `json:"updates" validate:"required,min=1,dive"`
}

// InviteUserRequest creates an account on behalf of an admin.
type InviteUserRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Role        string `json:"role"         validate:"required,oneof=admin user"`
}

// UpdateUserRequest changes an account. Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Role        *string `json:"role"         validate:"omitempty,oneof=admin user"`
	IsActive    *bool   `json:"is_active"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
}

// InviteCodeRequest sets or clears the registration invite code.
type InviteCodeRequest struct {
	Code string `json:"code" validate:"max=100"`
}

// SettingsResponse is the admin view of application settings.
type SettingsResponse struct {
	Notifications domain.NotificationSettings `json:"notifications"`
	InviteCodeSet bool                        `json:"invite_code_set"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Version string `json:"version,omitempty"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}

func newJobStatusResponse(j *domain.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:        j.ID,
		Status:       j.Status,
		Progress:     j.Progress,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		CompletedAt:  j.CompletedAt,
	}
}

func newItemSummary(item webflow.Item) ItemSummary {
	summary := ItemSummary{ID: item.ID, Name: item.Name(item.ID), Images: []ImageSlot{}}
	for _, slot := range domain.ImageSlots {
		url := item.ImageURL(slot)
		if url == "" {
			continue
		}
		altField := domain.AltTextField(slot)
		summary.Images = append(summary.Images, ImageSlot{
			Field:        slot,
			URL:          url,
			AltTextField: altField,
			AltText:      item.Text(altField),
		})
	}
	return summary
}
