package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dropgate/dropgate/internal/httpclient"
)

// Sentinel errors for identity operations.
var (
	// ErrInvalidToken is returned when the provider rejects a bearer token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is returned when the provider throttles the request.
	ErrRateLimited = errors.New("too many requests")
)

// ProviderError carries the status and message of a provider rejection
// that does not map to a sentinel error.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to a GoTrue-compatible identity provider over REST.
// One synchronous call per operation; no retries, no caching.
type Client struct {
	baseURL     string
	apiKey      string
	emailDomain string
	httpc       *http.Client
}

// NewClient creates an identity provider client.
func NewClient(baseURL, apiKey, emailDomain string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		emailDomain: emailDomain,
		httpc:       httpclient.New(0),
	}
}

// providerUser is the provider's user record shape.
type providerUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// sessionEnvelope covers both provider response shapes: a session with an
// embedded user (auto-confirm enabled) or a bare user record.
type sessionEnvelope struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	RefreshToken string        `json:"refresh_token"`
	User         *providerUser `json:"user"`

	// Bare user fields, populated when no session is issued.
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Signup registers a new account with the provider.
// The returned Session is nil when the provider requires email confirmation
// before issuing tokens.
func (c *Client) Signup(ctx context.Context, username, password string) (*Account, *Session, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	body := map[string]any{
		"email":    EmailFor(username, c.emailDomain),
		"password": password,
		"data":     map[string]string{"username": username},
	}

	var env sessionEnvelope
	if err := c.post(ctx, "/auth/v1/signup", c.apiKey, body, &env); err != nil {
		return nil, nil, err
	}

	return c.accountFromEnvelope(&env, username), sessionFromEnvelope(&env), nil
}

// Login exchanges username/password for a provider session.
func (c *Client) Login(ctx context.Context, username, password string) (*Account, *Session, error) {
	body := map[string]string{
		"email":    EmailFor(username, c.emailDomain),
		"password": password,
	}

	var env sessionEnvelope
	err := c.post(ctx, "/auth/v1/token?grant_type=password", c.apiKey, body, &env)
	if err != nil {
		// The provider reports bad credentials as a 400-class grant error.
		var perr *ProviderError
		if errors.As(err, &perr) && perr.StatusCode >= 400 && perr.StatusCode < 500 {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	sess := sessionFromEnvelope(&env)
	if sess == nil {
		return nil, nil, ErrInvalidCredentials
	}
	return c.accountFromEnvelope(&env, username), sess, nil
}

// UserFromToken asks the provider to resolve the account behind a bearer token.
func (c *Client) UserFromToken(ctx context.Context, token string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeProviderError(resp)
	}

	var user providerUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	return accountFromUser(&user, ""), nil
}

// Logout revokes the token with the provider. Best-effort: callers may log
// and ignore the error.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeProviderError(resp)
	}
	return nil
}

// Ping probes the provider's health endpoint. Used by the readiness handler.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{StatusCode: resp.StatusCode, Message: "health check failed"}
	}
	return nil
}

// post sends a JSON body and decodes a JSON response into out.
func (c *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req, bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		return decodeProviderError(resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("User-Agent", "Dropgate/1.0")
}

func (c *Client) accountFromEnvelope(env *sessionEnvelope, username string) *Account {
	if env.User != nil {
		return accountFromUser(env.User, username)
	}
	return accountFromUser(&providerUser{ID: env.ID, Email: env.Email}, username)
}

// accountFromUser maps a provider user record to an Account. The username
// comes from provider metadata, falling back to the email local part.
func accountFromUser(user *providerUser, username string) *Account {
	if username == "" {
		if meta, ok := user.UserMetadata["username"].(string); ok {
			username = meta
		}
	}
	if username == "" {
		if at := strings.IndexByte(user.Email, '@'); at > 0 {
			username = user.Email[:at]
		}
	}
	return &Account{
		ID:       user.ID,
		Username: username,
		Email:    user.Email,
	}
}

func sessionFromEnvelope(env *sessionEnvelope) *Session {
	if env.AccessToken == "" {
		return nil
	}
	return &Session{
		AccessToken:  env.AccessToken,
		TokenType:    env.TokenType,
		ExpiresIn:    env.ExpiresIn,
		RefreshToken: env.RefreshToken,
	}
}

// providerErrorBody covers the provider's assorted error response shapes.
type providerErrorBody struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorField       string `json:"error"`
}

func decodeProviderError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body providerErrorBody
	_ = json.Unmarshal(raw, &body)

	msg := body.ErrorDescription
	if msg == "" {
		msg = body.Msg
	}
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = body.ErrorField
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &ProviderError{StatusCode: resp.StatusCode, Message: msg}
}
