package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssuer_GenerateAndValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", 15*time.Minute)
	issuer.SetClock(fixedClock(now))

	token, claims, err := issuer.GenerateToken("user-1", "a@b.com", true)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Add(15*time.Minute), claims.ExpiresAt.Time.UTC())

	parsed, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.UserID)
	assert.Equal(t, "user-1", parsed.Subject)
	assert.Equal(t, "a@b.com", parsed.Email)
	assert.True(t, parsed.IsAdmin)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestIssuer_UniqueTokenIDs(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)

	_, first, err := issuer.GenerateToken("user-1", "a@b.com", false)
	require.NoError(t, err)
	_, second, err := issuer.GenerateToken("user-1", "a@b.com", false)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestIssuer_ExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", 15*time.Minute)
	issuer.SetClock(fixedClock(now))

	token, _, err := issuer.GenerateToken("user-1", "a@b.com", false)
	require.NoError(t, err)

	issuer.SetClock(fixedClock(now.Add(16 * time.Minute)))

	_, err = issuer.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := issuer.ParseExpired(token)
	require.NoError(t, err, "expired tokens still parse for refresh")
	assert.Equal(t, "user-1", claims.UserID)
}

func TestIssuer_RejectsForeignTokens(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	other := NewIssuer("other-secret", time.Minute)

	foreign, _, err := other.GenerateToken("user-1", "a@b.com", true)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "alg none", token: unsigned},
		{name: "garbage", token: "not.a.jwt"},
		{name: "empty", token: ""},
		{name: "truncated", token: foreign[:strings.LastIndex(foreign, ".")]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.ValidateToken(tt.token)
			assert.Error(t, err)

			_, err = issuer.ParseExpired(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestIssuer_EmptySecret(t *testing.T) {
	issuer := NewIssuer("", time.Minute)

	_, _, err := issuer.GenerateToken("user-1", "a@b.com", false)
	assert.ErrorIs(t, err, ErrSecretNotInitialized)

	_, err = issuer.ValidateToken("x.y.z")
	assert.ErrorIs(t, err, ErrSecretNotInitialized)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.NoError(t, VerifyPassword("secret", hash))
	assert.Error(t, VerifyPassword("wrong", hash))
	assert.Error(t, VerifyPassword("secret", "not-a-hash"))
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
