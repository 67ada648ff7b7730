package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials is returned by a TokenStore that holds no session.
	ErrNoCredentials = errors.New("not authenticated. Please run 'shopfront login' first")

	// ErrRefreshFailed means the refresh round-trip failed and the session was
	// logged out as a consequence.
	ErrRefreshFailed = errors.New("refresh token invalid")

	// ErrInvalidCredentials matches any *AuthError.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetwork matches every *NetworkError.
	ErrNetwork = errors.New("network failure")
)

// AuthError is a non-2xx answer from the login or refresh endpoints. Message
// is the response body text as sent by the server.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Is lets callers test login failures with errors.Is(err, ErrInvalidCredentials).
func (e *AuthError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// NetworkError is a transport-level failure talking to the backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// refreshError wraps the cause of a failed refresh so both ErrRefreshFailed
// and the underlying error remain matchable.
type refreshError struct {
	cause error
}

func (e *refreshError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRefreshFailed, e.cause)
}

func (e *refreshError) Unwrap() []error {
	return []error{ErrRefreshFailed, e.cause}
}
