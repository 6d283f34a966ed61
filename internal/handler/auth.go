package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dropgate/dropgate/internal/handler/dto"
	"github.com/dropgate/dropgate/internal/identity"
	"github.com/dropgate/dropgate/internal/middleware"
)

// IdentityProvider is the subset of the identity client the auth
// handlers depend on.
type IdentityProvider interface {
	Signup(ctx context.Context, username, password string) (*identity.Account, *identity.Session, error)
	Login(ctx context.Context, username, password string) (*identity.Account, *identity.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler relays account operations to the identity provider.
type AuthHandler struct {
	logger   *slog.Logger
	provider IdentityProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(logger *slog.Logger, provider IdentityProvider) *AuthHandler {
	return &AuthHandler{logger: logger, provider: provider}
}

// Signup registers a new account with the identity provider.
//
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body", "", "")
		return
	}

	account, session, err := h.provider.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeIdentityError(w, r, "signup", err)
		return
	}

	h.logger.Info("account created",
		slog.String("user_id", account.ID),
		slog.String("username", account.Username),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		User:    toUserResponse(account),
		Session: toSessionResponse(session),
	})
}

// Login exchanges credentials for a provider session.
//
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body", "", "")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "username and password are required", "", "")
		return
	}

	account, session, err := h.provider.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeIdentityError(w, r, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		User:    toUserResponse(account),
		Session: toSessionResponse(session),
	})
}

// Verify returns the account behind the presented bearer token.
// The auth middleware has already resolved the token.
//
// GET /api/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	account := identity.AccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or missing bearer token", "", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyResponse{User: toUserResponse(account)})
}

// Logout revokes the presented token at the identity provider. Revocation
// failures are logged but not surfaced; the client discards the token
// either way.
//
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		if err := h.provider.Logout(r.Context(), token); err != nil {
			h.logger.Warn("logout revocation failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// writeIdentityError maps identity client errors to HTTP responses.
func (h *AuthHandler) writeIdentityError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, identity.ErrUsernameLength),
		errors.Is(err, identity.ErrUsernameCharset),
		errors.Is(err, identity.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), "", "")
		return
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid username or password", "", "")
		return
	case errors.Is(err, identity.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, CodeBadRequest, "too many attempts, try again later", "", "")
		return
	}

	var pe *identity.ProviderError
	if errors.As(err, &pe) && pe.StatusCode >= 400 && pe.StatusCode < 500 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, pe.Message, "", "")
		return
	}

	h.logger.Error("identity provider request failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, CodeInternal, "identity provider request failed", err.Error(), "")
}

func toUserResponse(account *identity.Account) dto.UserResponse {
	return dto.UserResponse{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
	}
}

func toSessionResponse(session *identity.Session) *dto.SessionResponse {
	if session == nil {
		return nil
	}
	return &dto.SessionResponse{
		AccessToken:  session.AccessToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		RefreshToken: session.RefreshToken,
	}
}
