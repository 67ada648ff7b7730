// Package session composes the token service and API client into the
// login/logout and session-query operations the CLI commands consume.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/cli/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/client"
)

const LoginPath = "/user/login"

// State is the derived session state. It is never persisted.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// UserInfo is the identity part of an authenticated session
type UserInfo struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// RedirectError tells the caller to send the user to Route
type RedirectError struct {
	Route  string
	Reason string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("%s (redirect to %s)", e.Reason, e.Route)
}

// Service is the authentication context owning one session
type Service struct {
	api    *client.Client
	tokens *auth.TokenService
	logger zerolog.Logger
}

func NewService(api *client.Client, logger zerolog.Logger) *Service {
	return &Service{
		api:    api,
		tokens: api.Tokens(),
		logger: logger,
	}
}

func (s *Service) Client() *client.Client {
	return s.api
}

func (s *Service) Tokens() *auth.TokenService {
	return s.tokens
}

// Login authenticates with the backend and stores the returned credentials.
// A rejected login returns an *auth.AuthError carrying the server's message
// and leaves any stored session untouched.
func (s *Service) Login(ctx context.Context, email, password string, rememberMe bool) (*auth.Credentials, error) {
	resp, err := s.api.PostAnonymous(ctx, LoginPath, LoginRequest{
		Email:      email,
		Password:   password,
		RememberMe: rememberMe,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Debug().Int("status", resp.StatusCode).Str("email", email).Msg("Login rejected")
		return nil, &auth.AuthError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var creds auth.Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if err := s.tokens.Store().Save(&creds); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	s.logger.Info().Str("user_id", creds.UserID).Str("email", creds.Email).Msg("User logged in")
	s.tokens.Signals().Emit(auth.Event{Kind: auth.EventLoggedIn, Email: creds.Email})

	return &creds, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.tokens.Logout(ctx)
}

// IsAuthenticated reports whether an unexpired access token is stored
func (s *Service) IsAuthenticated() bool {
	if _, ok := s.tokens.AccessToken(); !ok {
		return false
	}
	return !s.tokens.IsAccessExpired()
}

func (s *Service) State() State {
	if s.IsAuthenticated() {
		return Authenticated
	}
	return Anonymous
}

// UserInfo returns the session identity, or false when not authenticated
func (s *Service) UserInfo() (*UserInfo, bool) {
	if !s.IsAuthenticated() {
		return nil, false
	}
	creds, ok := s.tokens.Credentials()
	if !ok {
		return nil, false
	}
	return &UserInfo{
		UserID:  creds.UserID,
		Email:   creds.Email,
		IsAdmin: creds.IsAdmin,
	}, true
}

// Resume brings back an authenticated state when the stored access token has
// expired but the refresh token is still valid. It is a no-op otherwise.
func (s *Service) Resume(ctx context.Context) error {
	if s.IsAuthenticated() {
		return nil
	}
	if _, ok := s.tokens.RefreshToken(); !ok || s.tokens.IsRefreshExpired() {
		return nil
	}
	_, err := s.tokens.Refresh(ctx)
	return err
}

// RequireAdmin guards admin-only operations
func (s *Service) RequireAdmin() error {
	info, ok := s.UserInfo()
	if !ok {
		return &RedirectError{Route: auth.LoginRoute, Reason: "not authenticated"}
	}
	if !info.IsAdmin {
		return &RedirectError{Route: auth.LoginRoute, Reason: "admin access required"}
	}
	return nil
}
