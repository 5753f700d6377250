package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"strategy-builder/internal/database"
)

// Handlers serves registration and login endpoints.
type Handlers struct {
	repo      *database.Repository
	jwt       *JWTManager
	passwords *PasswordManager
	log       zerolog.Logger
}

// NewHandlers creates auth handlers backed by the user repository.
func NewHandlers(repo *database.Repository, jwt *JWTManager, passwords *PasswordManager, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:      repo,
		jwt:       jwt,
		passwords: passwords,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := h.passwords.ValidatePasswordStrength(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WEAK_PASSWORD", "message": err.Error()})
		return
	}

	hash, err := h.passwords.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("Password hashing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR"})
		return
	}

	user := &database.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
	}
	if err := h.repo.CreateUser(c.Request.Context(), user); err != nil {
		// Unique violation on email is the common failure here
		c.JSON(http.StatusConflict, gin.H{"error": ErrEmailTaken.Code, "message": ErrEmailTaken.Message})
		return
	}

	tokens, err := h.jwt.GenerateTokenPair(UserClaims{UserID: user.ID, Email: user.Email})
	if err != nil {
		h.log.Error().Err(err).Msg("Token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR"})
		return
	}

	h.log.Info().Str("user_id", user.ID).Msg("User registered")
	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID, "email": user.Email, "tokens": tokens})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	user, err := h.repo.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.log.Error().Err(err).Msg("User lookup failed")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Code, "message": ErrInvalidCredentials.Message})
		return
	}

	if !h.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Code, "message": ErrInvalidCredentials.Message})
		return
	}

	tokens, err := h.jwt.GenerateTokenPair(UserClaims{UserID: user.ID, Email: user.Email})
	if err != nil {
		h.log.Error().Err(err).Msg("Token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "email": user.Email, "tokens": tokens})
}
