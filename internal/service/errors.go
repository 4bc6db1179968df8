package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers use errors.Is to check for them; the API layer maps them to status codes.
var (
	// ErrJobNotFound indicates no job exists with the requested id.
	// API layer should map this to HTTP 404 Not Found.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotReady indicates proposals were requested before the job completed.
	// API layer should map this to HTTP 409 Conflict.
	ErrJobNotReady = errors.New("job is not completed")

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDisabled indicates the account exists but has been deactivated.
	ErrAccountDisabled = errors.New("account is deactivated")

	// ErrInvalidInviteCode indicates registration was attempted without the
	// configured invite code.
	ErrInvalidInviteCode = errors.New("invalid invite code")
)

// ServiceError wraps unexpected failures with the operation that hit them.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
