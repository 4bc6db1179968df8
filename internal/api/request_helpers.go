package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// decodeAndValidate reads a JSON body into v and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		msg := "Invalid request format"
		if errors.Is(err, shared.ErrEmptyBody) {
			msg = "Request body is required"
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, CodeInvalidRequest, msg, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required")
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format")
	}
	return id, nil
}

// queryInt reads a non-negative integer query parameter, returning def
// when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}

// currentSession returns the session set by the auth middleware, writing a
// 401 response when there is none.
func currentSession(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	session, ok := shared.SessionFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return nil, false
	}
	return session, true
}
