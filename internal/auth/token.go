package auth

import (
	"errors"
	"fmt"
	"time"

	"coffeespot/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates the token could not be verified.
var ErrInvalidToken = errors.New("invalid token")

// TokenUser is the user block carried inside the token payload.
type TokenUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Claims is the signed token payload.
type Claims struct {
	Role domain.Role `json:"role"`
	User TokenUser   `json:"user"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the identity and returns it with its expiry.
func (m *TokenManager) Issue(id domain.Identity) (string, time.Time, error) {
	if id.ID == "" || !id.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: incomplete identity")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		Role: id.Role,
		User: TokenUser{ID: id.ID, Email: id.Email},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies the signature and expiry and returns the claims.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.User.ID == "" || !claims.Role.Valid() || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Identity converts verified claims to the caller identity.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{
		ID:      c.User.ID,
		Role:    c.Role,
		Email:   c.User.Email,
		TokenID: c.ID,
	}
}
