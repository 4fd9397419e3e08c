package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/config"
	"github.com/spec-kit/drive-service/internal/domain"
	"github.com/spec-kit/drive-service/internal/repository"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

// AuthService coordinates the login flow and token issuance.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:    users,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
	}
}

// Login verifies credentials and issues a session token. Unknown
// email and wrong password produce the same error so login does not
// leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.Issue(domain.Identity{SubjectID: user.ID, Role: user.Role})
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Me loads the caller's own profile.
func (s *AuthService) Me(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, identity.SubjectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware
// and cookie-lifetime usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
