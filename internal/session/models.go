package session

// Role values carried by the authenticated user. The server-supplied role is
// authoritative; the client never infers roles from other profile fields.
const (
	RoleDonor  = "donor"
	RoleNGO    = "ngo"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// User is the authenticated profile returned by /auth/me.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
}

// Session is the read-model exposed to route guards and the view layer.
type Session struct {
	User          *User
	Authenticated bool
	Loading       bool
}

// TokenPair is the payload of a successful /auth/login call.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
