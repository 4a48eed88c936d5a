package models

// Role values the backend assigns to accounts.
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleAdmin  = "admin"
)

// UserIdentity is the authenticated user's profile as returned by the
// who-am-I endpoint. It is derived from the credential and never persisted
// across sessions.
type UserIdentity struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// FullName returns the display name for the identity
func (u *UserIdentity) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsLawyer reports whether the identity belongs to a professional account
func (u *UserIdentity) IsLawyer() bool {
	return u.Role == RoleLawyer
}

// RegisterInput is the payload for account creation
type RegisterInput struct {
	Username        string `json:"username" validate:"required"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=client lawyer"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
}

// LoginInput is the payload for credential exchange
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
