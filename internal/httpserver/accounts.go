package httpserver

import (
	"context"
	"net/http"

	"coffeespot/internal/domain"
	"coffeespot/internal/service/account"
	"coffeespot/internal/storage"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Authenticator
	Logout(ctx context.Context, p account.Principal) error

	RegisterUser(ctx context.Context, in account.RegisterUserInput) (*domain.User, error)
	LoginUser(ctx context.Context, phone, password string) (*account.Session, *domain.User, error)
	GetUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, caller domain.Identity, id string, in account.UpdateUserInput, picture *storage.Upload) (*domain.User, error)
	ResetUserPassword(ctx context.Context, caller domain.Identity, oldPassword, newPassword string) error
	DeleteUser(ctx context.Context, caller domain.Identity, id string) error
	FindUsers(ctx context.Context, caller domain.Identity, fragment string) ([]domain.User, error)

	RegisterAdmin(ctx context.Context, caller *domain.Identity, in account.RegisterAdminInput) (*domain.Admin, error)
	LoginAdmin(ctx context.Context, email, password string) (*account.Session, *domain.Admin, error)
	GetAdmin(ctx context.Context, caller domain.Identity, id string) (*domain.Admin, error)
	ResetAdminPassword(ctx context.Context, caller domain.Identity, oldPassword, newPassword string) error
}

type OTPService interface {
	Send(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) error
}

type userLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type otpRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

const profilePictureField = "profilePicture"

func (h *handlers) sendOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	code, err := h.otp.Send(c.Request.Context(), req.Phone)
	if err != nil {
		writeError(c, err)
		return
	}
	fields := gin.H{}
	if h.exposeOTP {
		fields["otp"] = code
	}
	writeOK(c, http.StatusOK, "OTP sent successfully", fields)
}

func (h *handlers) verifyOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.otp.Verify(c.Request.Context(), req.Phone, req.OTP); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "OTP verified successfully", nil)
}

func (h *handlers) registerUser(c *gin.Context) {
	var in account.RegisterUserInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.accounts.RegisterUser(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusCreated, "User registered successfully", gin.H{"user": u})
}

func (h *handlers) loginUser(c *gin.Context) {
	var req userLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, u, err := h.accounts.LoginUser(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Login successful", gin.H{"token": sess.Token, "expiresAt": sess.ExpiresAt, "user": u})
}

func (h *handlers) getUser(c *gin.Context) {
	u, err := h.accounts.GetUser(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "User fetched successfully", gin.H{"user": u})
}

func (h *handlers) updateUser(c *gin.Context) {
	var in account.UpdateUserInput
	if v, ok := c.GetPostForm("userName"); ok {
		in.UserName = &v
	}
	if v, ok := c.GetPostForm("address"); ok {
		in.Address = &v
	}
	picture, done, err := formImage(c, profilePictureField, h.maxUpload)
	if err != nil {
		writeError(c, err)
		return
	}
	defer done()

	u, err := h.accounts.UpdateUser(c.Request.Context(), caller(c), c.Param("id"), in, picture)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "User updated successfully", gin.H{"user": u})
}

func (h *handlers) resetUserPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.ResetUserPassword(c.Request.Context(), caller(c), req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Password updated successfully", nil)
}

func (h *handlers) logout(c *gin.Context) {
	p, _ := principalFrom(c)
	if err := h.accounts.Logout(c.Request.Context(), *p); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *handlers) deleteUser(c *gin.Context) {
	if err := h.accounts.DeleteUser(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *handlers) registerAdmin(c *gin.Context) {
	var in account.RegisterAdminInput
	if !bindJSON(c, &in) {
		return
	}
	var by *domain.Identity
	if p, ok := principalFrom(c); ok {
		by = &p.Identity
	}
	a, err := h.accounts.RegisterAdmin(c.Request.Context(), by, in)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusCreated, "Admin registered successfully", gin.H{"admin": a})
}

func (h *handlers) loginAdmin(c *gin.Context) {
	var req adminLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, a, err := h.accounts.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Login successful", gin.H{"token": sess.Token, "expiresAt": sess.ExpiresAt, "admin": a})
}

func (h *handlers) getAdmin(c *gin.Context) {
	a, err := h.accounts.GetAdmin(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Admin fetched successfully", gin.H{"admin": a})
}

func (h *handlers) resetAdminPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.ResetAdminPassword(c.Request.Context(), caller(c), req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Password updated successfully", nil)
}

func (h *handlers) findUsers(c *gin.Context) {
	users, err := h.accounts.FindUsers(c.Request.Context(), caller(c), c.Query("email"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Users fetched successfully", gin.H{"users": users})
}
