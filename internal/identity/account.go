// Package identity relays authentication to the external identity provider.
// The server never mints or verifies credentials itself: signup, login and
// token validation are all single synchronous calls to the provider's
// GoTrue-compatible REST API.
package identity

import "context"

// Account is the resolved identity attached to authenticated requests.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is the provider-issued token bundle returned on signup/login.
// The server never persists it; the client carries the access token on
// every subsequent request.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// accountContextKey is the context key for storing the authenticated Account.
const accountContextKey contextKey = "account"

// ContextWithAccount adds the authenticated Account to the context.
func ContextWithAccount(ctx context.Context, acct *Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acct)
}

// AccountFromContext retrieves the Account from the context.
// Returns nil if the request was not authenticated.
func AccountFromContext(ctx context.Context) *Account {
	acct, ok := ctx.Value(accountContextKey).(*Account)
	if !ok {
		return nil
	}
	return acct
}

// MustAccountFromContext retrieves the Account from the context.
// Panics if not present (use only behind the auth middleware).
func MustAccountFromContext(ctx context.Context) *Account {
	acct := AccountFromContext(ctx)
	if acct == nil {
		panic("account not found in context - ensure auth middleware is applied")
	}
	return acct
}
