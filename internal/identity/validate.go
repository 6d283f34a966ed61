package identity

import (
	"errors"
	"regexp"
)

// Validation limits for signup input. Checked locally so that obviously bad
// input never reaches the provider.
const (
	// MinUsernameLength is the minimum username length.
	MinUsernameLength = 3
	// MaxUsernameLength is the maximum username length.
	MaxUsernameLength = 30
	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 6
)

// Validation errors.
var (
	ErrUsernameLength   = errors.New("username must be 3-30 characters")
	ErrUsernameCharset  = errors.New("username may only contain letters, digits and underscores")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateUsername checks the username against the signup constraints.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	return nil
}

// ValidatePassword checks the password against the signup constraints.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// EmailFor derives the synthetic email the provider stores for a username.
// The provider only understands email identities; usernames are a facade
// this boundary maintains on top of them.
func EmailFor(username, domain string) string {
	return username + "@" + domain
}
