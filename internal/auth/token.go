package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/drive-service/internal/domain"
)

// Verification failure reasons. ErrTokenExpired is reported only for
// credentials that parsed and carried a valid signature.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// TokenManager handles issuing and validating JWT session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes the JWT payload.
type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue builds and signs a session token for the identity.
func (tm *TokenManager) Issue(identity domain.Identity) (string, time.Time, error) {
	return tm.IssueWithTTL(identity, tm.ttl)
}

// IssueWithTTL signs a token with an explicit lifetime.
func (tm *TokenManager) IssueWithTTL(identity domain.Identity, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := &Claims{
		UserID: identity.SubjectID,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.SubjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates the token and returns the embedded identity.
// Signature comparison is constant-time (HMAC verification inside
// the jwt library uses hmac.Equal).
func (tm *TokenManager) Verify(tokenStr string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrTokenExpired
		}
		return domain.Identity{}, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, ErrTokenMalformed
	}
	if claims.UserID == "" || !domain.ValidRole(claims.Role) {
		return domain.Identity{}, ErrTokenMalformed
	}
	return domain.Identity{SubjectID: claims.UserID, Role: claims.Role}, nil
}
