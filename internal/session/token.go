package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/timeclock/timeclock-backend/pkg/config"
	"github.com/timeclock/timeclock-backend/pkg/errors"
)

// Scope carried by manager session tokens
const scopeManager = "manager"

// Claims represents the manager session token claims
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// TokenManager issues and validates short-lived bearer tokens tied to a
// manager session window. Non-interactive callers present these instead
// of re-entering the PIN on every request.
type TokenManager struct {
	config *config.SessionTokenConfig
}

// NewTokenManager creates a new token manager
func NewTokenManager(cfg *config.SessionTokenConfig) *TokenManager {
	return &TokenManager{config: cfg}
}

// Generate issues a manager session token that expires at expiresAt.
func (m *TokenManager) Generate(expiresAt time.Time) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   scopeManager,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Scope: scopeManager,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// Validate checks a manager session token and returns its claims.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	})

	if err != nil {
		if err.Error() == "token has invalid claims: token is expired" {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != scopeManager {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}
