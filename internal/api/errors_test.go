package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("item_ids", "at least one item is required"), http.StatusBadRequest, CodeValidation},
		{"wrapped validation", fmt.Errorf("create: %w", domain.NewValidationError("x", "y")), http.StatusBadRequest, CodeValidation},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthorized},
		{"disabled", service.ErrAccountDisabled, http.StatusForbidden, CodeForbidden},
		{"invite code", service.ErrInvalidInviteCode, http.StatusForbidden, CodeForbidden},
		{"job not found", service.ErrJobNotFound, http.StatusNotFound, CodeNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
		{"not ready", fmt.Errorf("%w: current status processing", service.ErrJobNotReady), http.StatusConflict, CodeNotReady},
		{"email exists", store.ErrEmailExists, http.StatusConflict, CodeConflict},
		{"last admin", domain.ErrLastAdmin, http.StatusBadRequest, CodeLastAdmin},
		{"rate limited", &webflow.RateLimitError{StatusCode: 429}, http.StatusTooManyRequests, CodeRateLimited},
		{"upstream", &webflow.APIError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway, CodeUpstream},
		{"unknown", errors.New("postgres://user:pw@db/app refused"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err)
			assert.Equal(t, tt.status, mapped.Status)
			assert.Equal(t, tt.code, mapped.Code)
			assert.Equal(t, tt.status, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestMapErrorMessages(t *testing.T) {
	assert.Equal(t, "item_ids: at least one item is required",
		MapError(domain.NewValidationError("item_ids", "at least one item is required")).Message)
	assert.Equal(t, "An unexpected error occurred",
		MapError(errors.New("postgres://user:pw@db/app refused")).Message)
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(&RegisterRequest{Email: "not-an-email", Password: "long-enough"})
	require.Error(t, err)

	mapped := MapError(err)
	assert.Equal(t, http.StatusBadRequest, mapped.Status)
	assert.Equal(t, "Invalid email: invalid email format", mapped.Message)
}

func TestHandleAPIErrorLogsRedacted(t *testing.T) {
	log, buf := logger.NewTestLogger()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	req = req.WithContext(logger.WithLogger(shared.SetTraceID(req.Context()), log))
	rec := httptest.NewRecorder()

	HandleAPIError(rec, req, errors.New("dial postgres://admin:hunter2@db:5432/app failed"), "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, buf.HasEntry("ERROR", "API error response"))
	assert.NotContains(t, buf.String(), "hunter2")
	assert.NotContains(t, rec.Body.String(), "postgres")
}

func TestHandleAPIErrorElevatesAuthFailures(t *testing.T) {
	log, buf := logger.NewTestLogger()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), log))
	rec := httptest.NewRecorder()

	HandleAPIError(rec, req, service.ErrInvalidCredentials, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, buf.HasEntry("WARN", "API error response"))
}
