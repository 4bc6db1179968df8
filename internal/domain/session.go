package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record behind a session token.
type Session struct {
	ID        string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// HasRole reports whether the session satisfies the required role.
func (s *Session) HasRole(role Role) bool {
	return s != nil && s.Role == role
}
