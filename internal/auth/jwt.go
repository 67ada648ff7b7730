package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrSecretNotInitialized = errors.New("JWT secret not initialized")

// JWTClaims represents the access token claims
type JWTClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 access tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer for the given secret and access token lifetime
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetClock overrides the time source used for issuing and validating tokens
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// TTL returns the access token lifetime
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// GenerateToken creates a new access token for a user. Every token carries a
// unique jti so it can be revoked individually.
func (i *Issuer) GenerateToken(userID, email string, isAdmin bool) (string, *JWTClaims, error) {
	if len(i.secret) == 0 {
		return "", nil, ErrSecretNotInitialized
	}

	now := i.now()
	claims := &JWTClaims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken validates an access token, including its expiry
func (i *Issuer) ValidateToken(tokenString string) (*JWTClaims, error) {
	return i.parse(tokenString, jwt.WithTimeFunc(i.now))
}

// ParseExpired validates the signature of an access token but accepts it after
// expiry. Refresh presents the expired access token alongside the refresh token.
func (i *Issuer) ParseExpired(tokenString string) (*JWTClaims, error) {
	return i.parse(tokenString, jwt.WithoutClaimsValidation())
}

func (i *Issuer) parse(tokenString string, opts ...jwt.ParserOption) (*JWTClaims, error) {
	if len(i.secret) == 0 {
		return nil, ErrSecretNotInitialized
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
