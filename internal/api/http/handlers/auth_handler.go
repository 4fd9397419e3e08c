package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/drive-service/internal/api/dto"
	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/domain"
	"github.com/spec-kit/drive-service/internal/service"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

// AuthHandler exposes login/logout/me endpoints. The session token
// travels in an httpOnly cookie, never in the response body.
type AuthHandler struct {
	auth       *service.AuthService
	production bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, production bool) *AuthHandler {
	return &AuthHandler{auth: authService, production: production}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(h.sessionCookie(token, exp))

	return c.JSON(fiber.Map{
		"message": "logged in successfully",
		"user":    userResponse(user),
	})
}

// Logout handles POST /auth/logout by expiring the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(h.sessionCookie("", time.Now().Add(-time.Hour)))
	return c.JSON(fiber.Map{"message": "logged out successfully"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.auth.Me(c.Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}

func (h *AuthHandler) sessionCookie(token string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.production,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
