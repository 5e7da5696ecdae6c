package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const rememberMeTTL = 30 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens. The token id (jti) is
// the id of the backing session row so a token can be revoked on logout.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(cfg JWTConfig) *TokenManager {
	ttl := time.Duration(cfg.ExpiryHours) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(cfg.Secret), ttl: ttl}
}

// TTL returns the token lifetime, extended when the user asked to be remembered.
func (m *TokenManager) TTL(remember bool) time.Duration {
	if remember && rememberMeTTL > m.ttl {
		return rememberMeTTL
	}
	return m.ttl
}

func (m *TokenManager) Issue(userID, sessionID uuid.UUID, role string, expiresAt time.Time) (string, error) {
	claims := TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Parse(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserAndSession extracts the subject and token id as UUIDs.
func (c *TokenClaims) UserAndSession() (uuid.UUID, uuid.UUID, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}
	sessionID, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}
	return userID, sessionID, nil
}
