// Package dto defines request and response shapes for the HTTP API.
package dto

// SignupRequest is the body for POST /api/auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse describes the authenticated account.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SessionResponse carries the provider-issued session tokens.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AuthResponse is returned from signup and login.
type AuthResponse struct {
	User    UserResponse     `json:"user"`
	Session *SessionResponse `json:"session,omitempty"`
}

// VerifyResponse is returned from GET /api/auth/verify.
type VerifyResponse struct {
	User UserResponse `json:"user"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
