package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/service/auth"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
)

// RegisterRequest is the input of UserService.Register.
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
	InviteCode  string
}

// InviteRequest is the input of UserService.Invite.
type InviteRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        domain.Role
}

// UserUpdate holds optional changes; nil fields are left unchanged.
type UserUpdate struct {
	Role        *domain.Role
	IsActive    *bool
	DisplayName *string
}

// UserService manages operator accounts.
type UserService struct {
	users    *store.UserStore
	settings *SettingsService
	hasher   auth.PasswordHasher
	logger   *slog.Logger

	// mu keeps the first-user and last-admin checks together with their writes.
	mu sync.Mutex
}

// NewUserService creates a UserService.
func NewUserService(users *store.UserStore, settings *SettingsService, hasher auth.PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		settings: settings,
		hasher:   hasher,
		logger:   logger.With("component", "user_service"),
	}
}

// Register creates an account. The first account becomes an admin; later
// accounts need the invite code when one is configured.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := domain.ValidatePassword(req.Password); err != nil {
		return nil, domain.NewValidationError("password", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, NewServiceError("register", "failed to count users", err)
	}

	role := domain.RoleUser
	if count == 0 {
		role = domain.RoleAdmin
	} else {
		code, err := s.settings.InviteCode(ctx)
		if err != nil {
			return nil, err
		}
		if code != "" && subtle.ConstantTimeCompare([]byte(code), []byte(strings.TrimSpace(req.InviteCode))) != 1 {
			return nil, ErrInvalidInviteCode
		}
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"role", user.Role)
	return user, nil
}

// Authenticate checks credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, NewServiceError("authenticate", "failed to load user", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.logger.DebugContext(ctx, "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, NewServiceError("get_user", "failed to load user", err)
	}
	return user, nil
}

// List returns all users ordered by creation time.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, NewServiceError("list_users", "failed to list users", err)
	}
	return users, nil
}

// Invite creates an account with the given role on behalf of an admin.
func (s *UserService) Invite(ctx context.Context, req InviteRequest) (*domain.User, error) {
	if !req.Role.Valid() {
		return nil, domain.NewValidationError("role", "must be admin or user")
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return nil, domain.NewValidationError("password", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, req.Role)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user invited",
		"user_id", user.ID,
		"role", user.Role)
	return user, nil
}

// Update applies changes to a user. Changes that would leave no active
// admin fail with domain.ErrLastAdmin and nothing is written.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*domain.User, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, domain.NewValidationError("role", "must be admin or user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasActiveAdmin := user.IsActiveAdmin()
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	if upd.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}

	if wasActiveAdmin && !user.IsActiveAdmin() {
		admins, err := s.users.CountActiveAdmins(ctx)
		if err != nil {
			return nil, NewServiceError("update_user", "failed to count admins", err)
		}
		if admins <= 1 {
			s.logger.WarnContext(ctx, "refused to remove the last active admin", "user_id", id)
			return nil, domain.ErrLastAdmin
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, NewServiceError("update_user", "failed to store user", err)
	}

	s.logger.InfoContext(ctx, "user updated",
		"user_id", user.ID,
		"role", user.Role,
		"is_active", user.IsActive)
	return user, nil
}

func (s *UserService) createUser(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, domain.NewValidationError("email", err.Error())
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, NewServiceError("create_user", "failed to hash password", err)
	}

	user, err := domain.NewUser(email, displayName, hash, role)
	if err != nil {
		return nil, domain.NewValidationError("user", err.Error())
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, store.ErrEmailExists
		}
		return nil, NewServiceError("create_user", "failed to store user", err)
	}
	return user, nil
}
