// Package account handles customer and admin accounts: registration, login,
// logout, profile management, and token authentication.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"coffeespot/internal/auth"
	"coffeespot/internal/domain"
	adminrepo "coffeespot/internal/repository/admin"
	tokenrepo "coffeespot/internal/repository/token"
	userrepo "coffeespot/internal/repository/user"
	"coffeespot/internal/storage"
	"github.com/rs/zerolog"
)

const picturePrefix = "users"

// Tokens issues and parses signed access tokens.
type Tokens interface {
	Issue(id domain.Identity) (string, time.Time, error)
	Parse(raw string) (*auth.Claims, error)
}

// PhoneVerifier reports whether a phone passed OTP verification.
type PhoneVerifier interface {
	ConsumeVerified(ctx context.Context, phone string) bool
}

type Service struct {
	users   userrepo.Repository
	admins  adminrepo.Repository
	revoked tokenrepo.Repository
	tokens  Tokens
	phones  PhoneVerifier
	store   storage.Storage
	logger  zerolog.Logger
	now     func() time.Time
}

type Deps struct {
	Users   userrepo.Repository
	Admins  adminrepo.Repository
	Revoked tokenrepo.Repository
	Tokens  Tokens
	Phones  PhoneVerifier
	Storage storage.Storage
}

func New(deps Deps, logger zerolog.Logger) *Service {
	return &Service{
		users:   deps.Users,
		admins:  deps.Admins,
		revoked: deps.Revoked,
		tokens:  deps.Tokens,
		phones:  deps.Phones,
		store:   deps.Storage,
		logger:  logger.With().Str("service", "account").Logger(),
		now:     time.Now,
	}
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Principal is an authenticated caller together with its token expiry.
type Principal struct {
	Identity  domain.Identity
	ExpiresAt time.Time
}

// Authenticate verifies a raw bearer token. It fails closed: a bad signature,
// an expired or revoked token, or an identity that no longer exists are all
// unauthorized.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	const op = "account.authenticate"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.Unauthorized(op, "Access denied. No token provided.")
	}
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, domain.Unauthorized(op, "Invalid or expired token")
	}
	id := claims.Identity()

	revoked, err := s.revoked.IsRevoked(ctx, id.TokenID)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if revoked {
		return nil, domain.Unauthorized(op, "Token has been revoked")
	}

	switch id.Role {
	case domain.RoleAdmin:
		_, err = s.admins.GetByID(ctx, id.ID)
	case domain.RoleCustomer:
		_, err = s.users.GetByID(ctx, id.ID)
	default:
		return nil, domain.Unauthorized(op, "Invalid or expired token")
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized(op, "Account no longer exists")
		}
		return nil, domain.Internal(op, err)
	}

	p := &Principal{Identity: id}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// Logout revokes the presented token and, for customers, stamps last activity.
func (s *Service) Logout(ctx context.Context, p Principal) error {
	const op = "account.logout"
	if p.Identity.TokenID == "" {
		return domain.Invalid(op, "token has no id")
	}
	expires := p.ExpiresAt
	if expires.IsZero() {
		expires = s.now().Add(24 * time.Hour)
	}
	if err := s.revoked.Revoke(ctx, tokenrepo.Revocation{
		TokenID:   p.Identity.TokenID,
		Subject:   p.Identity.ID,
		ExpiresAt: expires,
		RevokedAt: s.now(),
	}); err != nil {
		return domain.Internal(op, err)
	}
	if p.Identity.Role == domain.RoleCustomer {
		if err := s.users.TouchLastActive(ctx, p.Identity.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("user_id", p.Identity.ID).Msg("stamp last activity")
		}
	}
	return nil
}

// PurgeRevoked drops deny-list entries for tokens that have expired anyway.
func (s *Service) PurgeRevoked(ctx context.Context) (int64, error) {
	return s.revoked.PurgeExpired(ctx, s.now())
}

func (s *Service) issue(op string, id domain.Identity) (*Session, error) {
	token, exp, err := s.tokens.Issue(id)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}

func changePassword(op, hash, oldPassword, newPassword string) (string, error) {
	if oldPassword == "" || newPassword == "" {
		return "", domain.Invalid(op, "Old and new passwords are required")
	}
	if err := auth.CheckPassword(hash, oldPassword); err != nil {
		return "", domain.Unauthorized(op, "Old password is incorrect")
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return "", domain.Invalid(op, "%s", err.Error())
	}
	next, err := auth.HashPassword(newPassword)
	if err != nil {
		return "", domain.Internal(op, err)
	}
	return next, nil
}
