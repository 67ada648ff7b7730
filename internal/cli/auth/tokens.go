package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	RefreshPath = "/user/refresh-token"
	RevokePath  = "/user/revoke-token"

	refreshKey = "refresh"
)

// refreshRequest represents the refresh-token request body
type refreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService answers questions about the stored session and runs the
// refresh and revoke round-trips against the backend.
type TokenService struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	signals    *Signals
	logger     zerolog.Logger
	now        func() time.Time
	group      singleflight.Group
}

type Option func(*TokenService)

// WithHTTPClient sets the client used for refresh and revoke calls
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *TokenService) {
		s.httpClient = httpClient
	}
}

// WithSignals sets the bus that receives logout events
func WithSignals(signals *Signals) Option {
	return func(s *TokenService) {
		s.signals = signals
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *TokenService) {
		s.logger = logger
	}
}

// WithClock overrides time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service for the backend at baseURL
func NewTokenService(baseURL string, store TokenStore, options ...Option) *TokenService {
	s := &TokenService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
		signals:    NewSignals(),
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TokenService) BaseURL() string {
	return s.baseURL
}

func (s *TokenService) HTTPClient() *http.Client {
	return s.httpClient
}

func (s *TokenService) Store() TokenStore {
	return s.store
}

func (s *TokenService) Signals() *Signals {
	return s.signals
}

// Now returns the service clock's current time
func (s *TokenService) Now() time.Time {
	return s.now()
}

// Credentials returns the stored session, if any. An unreadable store is
// logged and reported as no session.
func (s *TokenService) Credentials() (*Credentials, bool) {
	creds, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			s.logger.Warn().Err(err).Msg("Failed to load stored credentials")
		}
		return nil, false
	}
	return creds, true
}

// IsAccessExpired reports true when no access expiry is stored or it has passed
func (s *TokenService) IsAccessExpired() bool {
	creds, ok := s.Credentials()
	if !ok {
		return true
	}
	return expired(creds.AccessTokenExpiry, s.now())
}

// IsRefreshExpired reports true when no refresh expiry is stored or it has passed
func (s *TokenService) IsRefreshExpired() bool {
	creds, ok := s.Credentials()
	if !ok {
		return true
	}
	return expired(creds.RefreshTokenExpiry, s.now())
}

func (s *TokenService) AccessToken() (string, bool) {
	creds, ok := s.Credentials()
	if !ok || creds.AccessToken == "" {
		return "", false
	}
	return creds.AccessToken, true
}

func (s *TokenService) RefreshToken() (string, bool) {
	creds, ok := s.Credentials()
	if !ok || creds.RefreshToken == "" {
		return "", false
	}
	return creds.RefreshToken, true
}

// Refresh exchanges the stored tokens for a new credential set and returns
// the new access token. Concurrent callers share one in-flight exchange. On
// failure the session is logged out and the error matches ErrRefreshFailed.
func (s *TokenService) Refresh(ctx context.Context) (string, error) {
	return s.RefreshAfter(ctx, "")
}

// RefreshAfter is Refresh for a caller whose request was rejected while
// carrying the access token stale. If the session was rotated away from stale
// in the meantime and is still valid, the stored token is returned without
// another round-trip.
func (s *TokenService) RefreshAfter(ctx context.Context, stale string) (string, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(refreshKey, func() (interface{}, error) {
		if stale != "" {
			if creds, ok := s.Credentials(); ok && creds.AccessToken != stale && !expired(creds.AccessTokenExpiry, s.now()) {
				return creds.AccessToken, nil
			}
		}
		return s.refresh(flightCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *TokenService) refresh(ctx context.Context) (string, error) {
	creds, ok := s.Credentials()
	if !ok || creds.RefreshToken == "" {
		return "", s.failRefresh(ctx, ErrNoCredentials)
	}

	s.logger.Debug().Str("user_id", creds.UserID).Msg("Refreshing access token")

	resp, err := s.postJSON(ctx, RefreshPath, refreshRequest{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}, "")
	if err != nil {
		return "", s.failRefresh(ctx, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(resp.Body)
		return "", s.failRefresh(ctx, &AuthError{StatusCode: resp.StatusCode, Message: string(body)})
	}

	var next Credentials
	if err := json.NewDecoder(resp.Body).Decode(&next); err != nil {
		return "", s.failRefresh(ctx, fmt.Errorf("failed to decode response: %w", err))
	}
	if next.AccessToken == "" {
		return "", s.failRefresh(ctx, errors.New("response carries no access token"))
	}

	if err := s.store.Save(&next); err != nil {
		return "", s.failRefresh(ctx, err)
	}

	s.logger.Debug().
		Str("user_id", next.UserID).
		Time("access_token_expiry", next.AccessTokenExpiry).
		Msg("Access token refreshed")

	return next.AccessToken, nil
}

func (s *TokenService) failRefresh(ctx context.Context, cause error) error {
	s.logger.Warn().Err(cause).Msg("Token refresh failed, logging out")
	if err := s.Logout(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear session after refresh failure")
	}
	return &refreshError{cause: cause}
}

// Logout revokes the current access token on a best-effort basis, clears the
// store and signals the routing layer to show the login view. Only a failure
// to clear local state is returned.
func (s *TokenService) Logout(ctx context.Context) error {
	if token, ok := s.AccessToken(); ok {
		if err := s.revoke(ctx, token); err != nil {
			s.logger.Warn().Err(err).Msg("Error revoking token")
		}
	}

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.signals.Emit(Event{Kind: EventLoggedOut, Route: LoginRoute})
	return nil
}

func (s *TokenService) revoke(ctx context.Context, accessToken string) error {
	resp, err := s.postJSON(ctx, RevokePath, nil, accessToken)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// postJSON sends body as JSON (or no body when nil) with an optional bearer token
func (s *TokenService) postJSON(ctx context.Context, endpoint string, body interface{}, bearer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "POST " + endpoint, Err: err}
	}
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
