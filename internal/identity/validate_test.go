package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"valid simple", "alice", nil},
		{"valid with underscore", "alice_w", nil},
		{"valid with digits", "alice99", nil},
		{"minimum length", "abc", nil},
		{"maximum length", strings.Repeat("a", 30), nil},
		{"too short", "ab", ErrUsernameLength},
		{"too long", strings.Repeat("a", 31), ErrUsernameLength},
		{"empty", "", ErrUsernameLength},
		{"spaces", "alice w", ErrUsernameCharset},
		{"hyphen", "alice-w", ErrUsernameCharset},
		{"at sign", "alice@w", ErrUsernameCharset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	// Boundary at the minimum-length constant.
	if err := ValidatePassword("12345"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort for 5 chars, got %v", err)
	}
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("expected 6 chars to pass, got %v", err)
	}
}

func TestEmailFor(t *testing.T) {
	got := EmailFor("alice", "dropgate.app")
	if got != "alice@dropgate.app" {
		t.Errorf("EmailFor = %q, want %q", got, "alice@dropgate.app")
	}
}
