package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Role is the authorization tier of a user.
type Role string

// Known roles
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Password length bounds. 72 bytes is the bcrypt input limit.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Common validation errors
var (
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrInvalidRole         = errors.New("invalid role")
)

var emailValidator = validator.New()

// User is an operator account allowed to run jobs or administer the system.
type User struct {
	ID             uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	Role           Role      `json:"role"`
	IsActive       bool      `json:"is_active"`
	HashedPassword string    `json:"password_hash"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates an active user. The password must already be hashed.
func NewUser(email, displayName, hashedPassword string, role Role) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:             uuid.New(),
		Email:          NormalizeEmail(email),
		DisplayName:    strings.TrimSpace(displayName),
		Role:           role,
		IsActive:       true,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// IsActiveAdmin reports whether the user counts toward the active admin invariant.
func (u *User) IsActiveAdmin() bool {
	return u.IsActive && u.Role == RoleAdmin
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	if err := emailValidator.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks a plaintext password against the length bounds.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
