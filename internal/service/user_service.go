package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/config"
	"github.com/spec-kit/drive-service/internal/domain"
	"github.com/spec-kit/drive-service/internal/events"
	"github.com/spec-kit/drive-service/internal/repository"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

// UserService implements admin account management.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: cfg.Auth.BcryptCost, logger: logger}
}

// UserInput carries admin-supplied account fields. Empty fields are
// ignored on update.
type UserInput struct {
	Email    string
	Username string
	Password string
	Role     domain.Role
}

// List returns all accounts with their file usage aggregates.
func (s *UserService) List(ctx context.Context) ([]domain.UserWithUsage, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Create adds an account after validating role and email uniqueness.
func (s *UserService) Create(ctx context.Context, input UserInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("invalid role", nil)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("user already exists", nil)
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update modifies an account; email changes are checked for
// uniqueness and a new password is rehashed.
func (s *UserService) Update(ctx context.Context, id string, input UserInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != "" {
		if !domain.ValidRole(input.Role) {
			return nil, apperrors.NewValidationError("invalid role", nil)
		}
		user.Role = input.Role
	}
	if input.Email != "" && input.Email != user.Email {
		if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
			return nil, apperrors.NewConflict("email already exists", nil)
		} else if err != pgx.ErrNoRows {
			return nil, apperrors.MapError(err)
		}
		user.Email = input.Email
	}
	if input.Username != "" {
		user.Username = input.Username
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Delete removes an account and its file records. An admin cannot
// delete their own account. Objects in the content store stay behind,
// same accepted gap as upload orphans.
func (s *UserService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if err := auth.GuardSelfDeletion(actor, id); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}

	// The account's file records go away with it, so downstream
	// per-user state has to be torn down too.
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserDeleted,
			OwnerID:   id,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// EnsureBootstrapAdmin creates the configured admin account on
// startup when it does not exist yet.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if err != pgx.ErrNoRows {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Email:        cfg.AdminEmail,
		Username:     "admin",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("email", cfg.AdminEmail))
	return nil
}
