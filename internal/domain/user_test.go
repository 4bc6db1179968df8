package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("  Test@Example.com ", " Tess ", "hash", RoleUser)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "Tess", user.DisplayName)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsActiveAdmin())
	assert.False(t, user.CreatedAt.IsZero())
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		hash    string
		role    Role
		wantErr error
	}{
		{name: "empty email", email: "", hash: "h", role: RoleUser, wantErr: ErrEmptyEmail},
		{name: "invalid email", email: "invalidemail", hash: "h", role: RoleUser, wantErr: ErrInvalidEmail},
		{name: "missing hash", email: "a@example.com", hash: "", role: RoleUser, wantErr: ErrEmptyHashedPassword},
		{name: "unknown role", email: "a@example.com", hash: "h", role: "owner", wantErr: ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, "", tt.hash, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", 73)), ErrPasswordTooLong)
	assert.NoError(t, ValidatePassword("longenough"))
}

func TestSessionHasRole(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.HasRole(RoleAdmin))

	s := &Session{Role: RoleAdmin}
	assert.True(t, s.HasRole(RoleAdmin))
	assert.False(t, s.HasRole(RoleUser))
}
