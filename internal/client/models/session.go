package models

// Credentials are what the user types on the login screen. They are never
// persisted.
type Credentials struct {
	Identifier string
	Password   string
}

// Session is the persisted token and resolved user id. An empty Token means
// no session; UserID 0 means the identity is not resolved yet.
type Session struct {
	Token  string
	UserID int64
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// AuthResponse is the body of a successful /auth/login or /auth/register.
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   *int64 `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}
