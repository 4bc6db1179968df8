package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("failed to do something: %w", ErrNotFound), expected: true},
		{name: "ErrUserNotFound", err: ErrUserNotFound, expected: true},
		{name: "ErrJobNotFound", err: ErrJobNotFound, expected: true},
		{name: "ErrEmailExists", err: ErrEmailExists, expected: false},
		{name: "store error wrapping not found", err: NewStoreError("job", "get", "missing", ErrJobNotFound), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(ErrEmailExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("create: %w", ErrDuplicate)))
	assert.False(t, IsDuplicateError(ErrUserNotFound))
}

func TestStoreError(t *testing.T) {
	err := NewStoreError("job", "update", "write failed", ErrInvalidEntity)

	assert.Equal(t, "update operation on job failed: write failed: invalid entity", err.Error())
	assert.ErrorIs(t, err, ErrInvalidEntity)

	bare := NewStoreError("user", "list", "scan failed", nil)
	assert.Equal(t, "list operation on user failed: scan failed", bare.Error())
}
