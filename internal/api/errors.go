package api

import (
	"errors"
	"net/http"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/go-playground/validator/v10"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeValidation     = "validation_error"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeNotFound       = "not_found"
	CodeNotReady       = "not_ready"
	CodeConflict       = "conflict"
	CodeLastAdmin      = "last_admin"
	CodeRateLimited    = "rate_limited"
	CodeUpstream       = "upstream_error"
	CodeInternal       = "internal_error"
	CodeInvalidRequest = "invalid_request"
)

// ErrorMapping is the client-facing rendering of an error.
type ErrorMapping struct {
	Status  int
	Code    string
	Message string
}

// MapError maps internal errors to a status, a code and a message that is
// safe to show to clients.
func MapError(err error) ErrorMapping {
	var (
		validationErr *domain.ValidationError
		fieldErrs     validator.ValidationErrors
		rateLimitErr  *webflow.RateLimitError
		upstreamErr   *webflow.APIError
	)

	switch {
	case errors.As(err, &validationErr):
		return ErrorMapping{http.StatusBadRequest, CodeValidation, sanitizeValidation(validationErr)}
	case errors.As(err, &fieldErrs):
		return ErrorMapping{http.StatusBadRequest, CodeValidation, SanitizeValidationError(fieldErrs)}
	case errors.Is(err, domain.ErrValidation):
		return ErrorMapping{http.StatusBadRequest, CodeValidation, "Validation error"}

	case errors.Is(err, domain.ErrUnauthorized):
		return ErrorMapping{http.StatusUnauthorized, CodeUnauthorized, "Authentication required"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return ErrorMapping{http.StatusUnauthorized, CodeUnauthorized, "Invalid email or password"}
	case errors.Is(err, service.ErrAccountDisabled):
		return ErrorMapping{http.StatusForbidden, CodeForbidden, "Account is deactivated"}
	case errors.Is(err, service.ErrInvalidInviteCode):
		return ErrorMapping{http.StatusForbidden, CodeForbidden, "Invalid invite code"}
	case errors.Is(err, domain.ErrForbidden):
		return ErrorMapping{http.StatusForbidden, CodeForbidden, "Insufficient permissions"}

	case errors.Is(err, service.ErrJobNotFound):
		return ErrorMapping{http.StatusNotFound, CodeNotFound, "Job not found"}
	case errors.Is(err, store.ErrUserNotFound):
		return ErrorMapping{http.StatusNotFound, CodeNotFound, "User not found"}
	case errors.Is(err, store.ErrNotFound):
		return ErrorMapping{http.StatusNotFound, CodeNotFound, "Not found"}

	case errors.Is(err, service.ErrJobNotReady):
		return ErrorMapping{http.StatusConflict, CodeNotReady, "Job is not completed yet"}
	case errors.Is(err, store.ErrEmailExists):
		return ErrorMapping{http.StatusConflict, CodeConflict, "Email already exists"}
	case errors.Is(err, domain.ErrLastAdmin):
		return ErrorMapping{http.StatusBadRequest, CodeLastAdmin, "Cannot remove the last active admin"}

	case errors.As(err, &rateLimitErr):
		return ErrorMapping{http.StatusTooManyRequests, CodeRateLimited, "CMS rate limit exceeded, try again later"}
	case errors.As(err, &upstreamErr):
		return ErrorMapping{http.StatusBadGateway, CodeUpstream, "CMS request failed"}
	}

	return ErrorMapping{http.StatusInternalServerError, CodeInternal, "An unexpected error occurred"}
}

// MapErrorToStatusCode returns only the status of MapError.
func MapErrorToStatusCode(err error) int {
	return MapError(err).Status
}

// HandleAPIError writes the mapped error response and logs the redacted
// error. A non-empty message replaces the mapped one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	mapped := MapError(err)
	if message != "" {
		mapped.Message = message
	}

	var opts []shared.ResponseOption
	if mapped.Status == http.StatusUnauthorized || mapped.Status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, mapped.Status, mapped.Code, mapped.Message, err, opts...)
}

// sanitizeValidation renders a domain validation error without internals.
func sanitizeValidation(err *domain.ValidationError) string {
	if err.Field == "" {
		return err.Message
	}
	return err.Field + ": " + err.Message
}

// SanitizeValidationError turns struct validation failures into a short
// message naming the first failing field.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return "Invalid " + fe.Field() + ": " + getValidationTagMessage(fe.Tag())
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid id"
	default:
		return "validation failed"
	}
}
