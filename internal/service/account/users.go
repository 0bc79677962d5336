package account

import (
	"context"
	"errors"
	"strings"

	"coffeespot/internal/auth"
	"coffeespot/internal/domain"
	userrepo "coffeespot/internal/repository/user"
	"coffeespot/internal/storage"
)

type RegisterUserInput struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// RegisterUser creates a customer whose phone was verified by OTP.
func (s *Service) RegisterUser(ctx context.Context, in RegisterUserInput) (*domain.User, error) {
	const op = "account.register_user"
	name := strings.TrimSpace(in.UserName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	if name == "" || email == "" || phone == "" || in.Password == "" {
		return nil, domain.Invalid(op, "All fields are required")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, domain.Invalid(op, "%s", err.Error())
	}
	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, domain.Conflict(op, "User already exists with this phone number")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !s.phones.ConsumeVerified(ctx, phone) {
		return nil, domain.Invalid(op, "Phone number not verified")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	u, err := s.users.Create(ctx, domain.User{
		UserName:     name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Address:      strings.TrimSpace(in.Address),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.Conflict(op, "User already exists")
		}
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

// LoginUser authenticates a customer by phone and password.
func (s *Service) LoginUser(ctx context.Context, phone, password string) (*Session, *domain.User, error) {
	const op = "account.login_user"
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, nil, domain.Invalid(op, "Phone and password are required")
	}
	u, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.NotFound(op, "User not found")
		}
		return nil, nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, nil, domain.Unauthorized(op, "Invalid credentials")
	}
	sess, err := s.issue(op, domain.Identity{ID: u.ID, Role: domain.RoleCustomer, Email: u.Email})
	if err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

// GetUser returns a customer profile to the customer or to an admin.
func (s *Service) GetUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	const op = "account.get_user"
	if !caller.IsAdmin() && caller.ID != id {
		return nil, domain.Forbidden(op, "you can only view your own profile")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "User not found")
		}
		return nil, err
	}
	return u, nil
}

type UpdateUserInput struct {
	UserName *string `json:"userName" form:"userName"`
	Address  *string `json:"address" form:"address"`
}

// UpdateUser changes the caller's own profile. A new picture replaces the old one.
func (s *Service) UpdateUser(ctx context.Context, caller domain.Identity, id string, in UpdateUserInput, picture *storage.Upload) (*domain.User, error) {
	const op = "account.update_user"
	if caller.ID != id || caller.Role != domain.RoleCustomer {
		return nil, domain.Forbidden(op, "you can only update your own profile")
	}
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "User not found")
		}
		return nil, err
	}

	upd := userrepo.UpdateInput{}
	if in.UserName != nil {
		name := strings.TrimSpace(*in.UserName)
		if name == "" {
			return nil, domain.Invalid(op, "userName must not be empty")
		}
		upd.UserName = &name
	}
	if in.Address != nil {
		addr := strings.TrimSpace(*in.Address)
		upd.Address = &addr
	}

	var newKey string
	if picture != nil {
		newKey = storage.NewKey(picturePrefix, picture.Filename)
		url, err := s.store.Put(ctx, newKey, picture.Body, picture.ContentType)
		if err != nil {
			return nil, domain.Internal(op, err)
		}
		upd.ProfilePicture = &url
		upd.PictureKey = &newKey
	}

	u, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if newKey != "" {
			s.deleteObject(ctx, newKey)
		}
		return nil, err
	}
	if newKey != "" && current.PictureKey != "" {
		s.deleteObject(ctx, current.PictureKey)
	}
	return u, nil
}

func (s *Service) ResetUserPassword(ctx context.Context, caller domain.Identity, oldPassword, newPassword string) error {
	const op = "account.reset_user_password"
	if caller.Role != domain.RoleCustomer {
		return domain.Forbidden(op, "customer token required")
	}
	u, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(op, "User not found")
		}
		return err
	}
	hash, err := changePassword(op, u.PasswordHash, oldPassword, newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, u.ID, hash)
}

// DeleteUser removes a profile. Customers may delete themselves; admins anyone.
func (s *Service) DeleteUser(ctx context.Context, caller domain.Identity, id string) error {
	const op = "account.delete_user"
	if !caller.IsAdmin() && caller.ID != id {
		return domain.Forbidden(op, "you can only delete your own profile")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(op, "User not found")
		}
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if u.PictureKey != "" {
		s.deleteObject(ctx, u.PictureKey)
	}
	s.logger.Info().Str("user_id", id).Str("by", caller.ID).Msg("user deleted")
	return nil
}

// FindUsers lists customers whose email contains fragment. Admin only.
func (s *Service) FindUsers(ctx context.Context, caller domain.Identity, fragment string) ([]domain.User, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("account.find_users", "admin access required")
	}
	return s.users.FindByEmail(ctx, strings.TrimSpace(fragment))
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("delete picture")
	}
}
