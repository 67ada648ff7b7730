package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/models"
)

var errRefreshRejected = errors.New("refresh token rejected")

// LoginRequest represents a login request
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// RefreshRequest carries the (possibly expired) access token and the refresh token
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken        string    `json:"accessToken"`
	RefreshToken       string    `json:"refreshToken"`
	AccessTokenExpiry  time.Time `json:"accessTokenExpiry"`
	RefreshTokenExpiry time.Time `json:"refreshTokenExpiry"`
	UserID             string    `json:"userId"`
	Email              string    `json:"email"`
	IsAdmin            bool      `json:"isAdmin"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// issueTokens signs a new access token and persists a new refresh token
// expiring at refreshExpiry.
func (s *Server) issueTokens(tx *gorm.DB, user *models.User, refreshExpiry time.Time) (*TokenResponse, error) {
	accessToken, claims, err := s.issuer.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	refresh := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: refreshExpiry,
	}
	if err := tx.Omit(clause.Associations).Create(refresh).Error; err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:        accessToken,
		RefreshToken:       refresh.Token,
		AccessTokenExpiry:  claims.ExpiresAt.Time.UTC(),
		RefreshTokenExpiry: refresh.ExpiresAt.UTC(),
		UserID:             user.ID,
		Email:              user.Email,
		IsAdmin:            user.IsAdmin,
	}, nil
}

// denylist records an access token's jti until the token would expire
func denylist(tx *gorm.DB, claims *auth.JWTClaims) error {
	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{JTI: claims.ID, ExpiresAt: expiresAt}).Error
}

// login authenticates with email and password. Failures are answered in
// plain text so the client can show the body as-is.
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid login request")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.String(http.StatusBadRequest, "Email and password are required")
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.String(http.StatusBadRequest, "Invalid credentials")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		s.logger.Info().Str("email", req.Email).Msg("Login rejected")
		c.String(http.StatusBadRequest, "Invalid credentials")
		return
	}

	ttl := s.config.Auth.RefreshTokenTTL
	if req.RememberMe {
		ttl = s.config.Auth.RememberMeTTL
	}

	resp, err := s.issueTokens(s.db, &user, s.now().Add(ttl))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue tokens")
		c.String(http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Bool("remember_me", req.RememberMe).
		Msg("User logged in")

	c.JSON(http.StatusOK, resp)
}

// refreshToken exchanges a refresh token for a new token pair. The refresh
// token is single use and keeps its original expiry across rotations.
func (s *Server) refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid refresh request")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.String(http.StatusBadRequest, "Access token and refresh token are required")
		return
	}

	claims, err := s.issuer.ParseExpired(req.AccessToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Refresh presented an invalid access token")
		c.String(http.StatusBadRequest, "Invalid access token")
		return
	}

	now := s.now()
	var resp *TokenResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token = ?", req.RefreshToken).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRefreshRejected
			}
			return err
		}
		if !stored.Usable(now) || stored.UserID != claims.UserID {
			return errRefreshRejected
		}

		// Consume the token; a concurrent refresh with the same token loses here
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Update("revoked_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return errRefreshRejected
		}

		if err := denylist(tx, claims); err != nil {
			return err
		}

		var user models.User
		if err := models.FindByID(tx, stored.UserID, &user); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRefreshRejected
			}
			return err
		}

		issued, err := s.issueTokens(tx, &user, stored.ExpiresAt)
		if err != nil {
			return err
		}
		resp = issued
		return nil
	})
	if err != nil {
		if errors.Is(err, errRefreshRejected) {
			s.logger.Info().Str("user_id", claims.UserID).Msg("Refresh token rejected")
			c.String(http.StatusBadRequest, "Invalid refresh token")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to refresh token")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	s.logger.Debug().Str("user_id", resp.UserID).Msg("Token refreshed")
	c.JSON(http.StatusOK, resp)
}

// revokeToken denylists the presented access token and revokes the user's
// refresh tokens. Expired access tokens are accepted so a stale session can
// still be ended.
func (s *Server) revokeToken(c *gin.Context) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Missing or invalid authorization header")
		return
	}

	claims, err := s.issuer.ParseExpired(token)
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, ErrInvalidToken, "Invalid token")
		return
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := denylist(tx, claims); err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", claims.UserID).
			Update("revoked_at", now).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("user_id", claims.UserID).Str("jti", claims.ID).Msg("Session revoked")
	c.Status(http.StatusNoContent)
}

// getCurrentUser returns the authenticated user
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, UserDetail{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	})
}
