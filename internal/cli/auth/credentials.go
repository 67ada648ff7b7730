package auth

import (
	"fmt"
	"strconv"
	"time"
)

// Persisted record keys. The names match the keys the web front-end keeps in
// local storage so a record can be inspected or migrated by hand.
const (
	keyAccessToken        = "accessToken"
	keyRefreshToken       = "refreshToken"
	keyAccessTokenExpiry  = "tokenExpiry"
	keyRefreshTokenExpiry = "refreshTokenExpiry"
	keyUserID             = "userId"
	keyEmail              = "email"
	keyIsAdmin            = "isAdmin"
)

var recordKeys = []string{
	keyAccessToken,
	keyRefreshToken,
	keyAccessTokenExpiry,
	keyRefreshTokenExpiry,
	keyUserID,
	keyEmail,
	keyIsAdmin,
}

// Credentials is the session credential set returned by login and refresh.
// It is always stored and cleared as a whole.
type Credentials struct {
	AccessToken        string    `json:"accessToken"`
	RefreshToken       string    `json:"refreshToken"`
	AccessTokenExpiry  time.Time `json:"accessTokenExpiry"`
	RefreshTokenExpiry time.Time `json:"refreshTokenExpiry"`
	UserID             string    `json:"userId"`
	Email              string    `json:"email"`
	IsAdmin            bool      `json:"isAdmin"`
}

// record flattens the credentials into the string-valued key set used by the
// persistent stores.
func (c *Credentials) record() map[string]string {
	return map[string]string{
		keyAccessToken:        c.AccessToken,
		keyRefreshToken:       c.RefreshToken,
		keyAccessTokenExpiry:  formatExpiry(c.AccessTokenExpiry),
		keyRefreshTokenExpiry: formatExpiry(c.RefreshTokenExpiry),
		keyUserID:             c.UserID,
		keyEmail:              c.Email,
		keyIsAdmin:            strconv.FormatBool(c.IsAdmin),
	}
}

// credentialsFromRecord rebuilds credentials from a persisted record.
// A record without an access token is treated as absent.
func credentialsFromRecord(rec map[string]string) (*Credentials, error) {
	if rec[keyAccessToken] == "" {
		return nil, ErrNoCredentials
	}

	accessExpiry, err := parseExpiry(rec[keyAccessTokenExpiry])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", keyAccessTokenExpiry, err)
	}
	refreshExpiry, err := parseExpiry(rec[keyRefreshTokenExpiry])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", keyRefreshTokenExpiry, err)
	}

	return &Credentials{
		AccessToken:        rec[keyAccessToken],
		RefreshToken:       rec[keyRefreshToken],
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
		UserID:             rec[keyUserID],
		Email:              rec[keyEmail],
		IsAdmin:            rec[keyIsAdmin] == "true",
	}, nil
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseExpiry returns the zero time for an empty value, which the expiry
// checks treat as already expired.
func parseExpiry(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

// expired reports whether an expiry is missing or not after now.
func expired(expiry, now time.Time) bool {
	if expiry.IsZero() {
		return true
	}
	return !expiry.After(now)
}
