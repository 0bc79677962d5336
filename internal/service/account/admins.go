package account

import (
	"context"
	"errors"
	"strings"

	"coffeespot/internal/auth"
	"coffeespot/internal/config"
	"coffeespot/internal/domain"
)

type RegisterAdminInput struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterAdmin is open while no admin exists; afterwards the caller must be an admin.
func (s *Service) RegisterAdmin(ctx context.Context, caller *domain.Identity, in RegisterAdminInput) (*domain.Admin, error) {
	const op = "account.register_admin"
	n, err := s.admins.Count(ctx)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if n > 0 && (caller == nil || !caller.IsAdmin()) {
		return nil, domain.Forbidden(op, "admin access required")
	}
	return s.createAdmin(ctx, op, in)
}

func (s *Service) createAdmin(ctx context.Context, op string, in RegisterAdminInput) (*domain.Admin, error) {
	name := strings.TrimSpace(in.UserName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.Invalid(op, "All fields are required")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, domain.Invalid(op, "%s", err.Error())
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	a, err := s.admins.Create(ctx, domain.Admin{
		UserName:       name,
		Email:          email,
		PasswordHash:   hash,
		IsSupportAgent: true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.Conflict(op, "Admin already exists with this email")
		}
		return nil, err
	}
	s.logger.Info().Str("admin_id", a.ID).Msg("admin registered")
	return a, nil
}

func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*Session, *domain.Admin, error) {
	const op = "account.login_admin"
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, domain.Invalid(op, "Email and password are required")
	}
	a, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.NotFound(op, "Admin not found")
		}
		return nil, nil, err
	}
	if err := auth.CheckPassword(a.PasswordHash, password); err != nil {
		return nil, nil, domain.Unauthorized(op, "Invalid credentials")
	}
	sess, err := s.issue(op, domain.Identity{ID: a.ID, Role: domain.RoleAdmin, Email: a.Email})
	if err != nil {
		return nil, nil, err
	}
	return sess, a, nil
}

func (s *Service) GetAdmin(ctx context.Context, caller domain.Identity, id string) (*domain.Admin, error) {
	const op = "account.get_admin"
	if !caller.IsAdmin() {
		return nil, domain.Forbidden(op, "admin access required")
	}
	a, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "Admin not found")
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) ResetAdminPassword(ctx context.Context, caller domain.Identity, oldPassword, newPassword string) error {
	const op = "account.reset_admin_password"
	if !caller.IsAdmin() {
		return domain.Forbidden(op, "admin access required")
	}
	a, err := s.admins.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(op, "Admin not found")
		}
		return err
	}
	hash, err := changePassword(op, a.PasswordHash, oldPassword, newPassword)
	if err != nil {
		return err
	}
	return s.admins.SetPassword(ctx, a.ID, hash)
}

// EnsureAdmin creates the configured bootstrap admin when it does not exist.
// It is a no-op when no email is configured.
func (s *Service) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) (created bool, err error) {
	const op = "account.ensure_admin"
	if strings.TrimSpace(cfg.Email) == "" {
		return false, nil
	}
	if _, err := s.admins.GetByEmail(ctx, cfg.Email); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	name := cfg.UserName
	if strings.TrimSpace(name) == "" {
		name = "admin"
	}
	if _, err := s.createAdmin(ctx, op, RegisterAdminInput{UserName: name, Email: cfg.Email, Password: cfg.Password}); err != nil {
		if domain.ErrorCode(err) == domain.ECONFLICT {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
