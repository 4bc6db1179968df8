package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/google/uuid"
)

// UserStore persists users in the users collection keyed by user id.
// Email lookups scan the collection; operator accounts are few.
type UserStore struct {
	col    Collection
	logger *slog.Logger

	// mu keeps the email uniqueness check and the write together.
	mu sync.Mutex
}

// NewUserStore creates a UserStore on the given backend.
func NewUserStore(backend Backend, logger *slog.Logger) *UserStore {
	return &UserStore{
		col:    backend.Collection(CollectionUsers),
		logger: logger.With("component", "user_store"),
	}
}

// Create stores a new user. Returns ErrEmailExists when the address is taken.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return NewStoreError("user", "create", "invalid user", errors.Join(ErrInvalidEntity, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.GetByEmail(ctx, user.Email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := PutJSON(ctx, s.col, user.ID.String(), user); err != nil {
		return NewStoreError("user", "create", "failed to store user", err)
	}
	return nil
}

// GetByID loads a user by id.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := GetJSON[domain.User](ctx, s.col, id.String())
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, NewStoreError("user", "get", "failed to load user", err)
	}
	return user, nil
}

// GetByEmail loads a user by normalized email address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// Update writes the user document back.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return NewStoreError("user", "update", "invalid user", errors.Join(ErrInvalidEntity, err))
	}
	exists, err := s.col.Exists(ctx, user.ID.String())
	if err != nil {
		return NewStoreError("user", "update", "failed to check user", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	user.UpdatedAt = time.Now().UTC()
	if err := PutJSON(ctx, s.col, user.ID.String(), user); err != nil {
		return NewStoreError("user", "update", "failed to store user", err)
	}
	return nil
}

// List returns all users ordered by creation time.
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	users, skipped, err := ListJSON[domain.User](ctx, s.col)
	if err != nil {
		return nil, NewStoreError("user", "list", "failed to list users", err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped undecodable user documents", "count", skipped)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Count returns the number of stored users.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	users, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// CountActiveAdmins returns the number of active admin users.
func (s *UserStore) CountActiveAdmins(ctx context.Context) (int, error) {
	users, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if u.IsActiveAdmin() {
			n++
		}
	}
	return n, nil
}
