package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/drive-service/internal/domain"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

const (
	// CookieName is the session carrier cookie.
	CookieName = "token"

	identityKey = "auth_identity"
)

// SessionMiddleware resolves the caller's identity from the session
// cookie. Resolution is stateless: the identity comes entirely from
// the verified token, so no I/O happens before authorization.
type SessionMiddleware struct {
	tokens *TokenManager
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	tokenStr := c.Cookies(CookieName)
	if tokenStr == "" {
		return apperrors.NewUnauthorized("authentication required")
	}

	identity, err := m.tokens.Verify(tokenStr)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return apperrors.NewUnauthorized("token expired")
		}
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// RequireAdmin ensures the resolved identity carries the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := AuthorizeAdmin(identity); err != nil {
			return err
		}
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}
