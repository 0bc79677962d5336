package domain

// Role is the authorization class of a caller.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Identity is the authenticated caller resolved from a token.
type Identity struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
	// TokenID is the jti of the presented token, used for logout.
	TokenID string `json:"-"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
