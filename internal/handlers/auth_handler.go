package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/middleware"
	"github.com/transporttn/busline-backend/internal/models"
	"github.com/transporttn/busline-backend/internal/utils"
	"github.com/transporttn/busline-backend/pkg/jwt"
)

// AuthHandler serves signup, login and token refresh for all account roles.
type AuthHandler struct {
	userRepo   *database.UserRepository
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
}

func NewAuthHandler(userRepo *database.UserRepository, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Signup registers a new passenger account
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check existing account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Role:         models.RoleClient,
		Status:       models.UserStatusActive,
	}
	created, err := h.userRepo.Create(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": created.ID,
		"email":   created.Email,
	}).Info("Account created")

	h.respondWithTokens(c, http.StatusCreated, created)
}

// Login authenticates a user by email and password
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.userRepo.GetByEmail(email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if user.Status != models.UserStatusActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled", "code": "ACCOUNT_DISABLED"})
		return
	}

	device := utils.ParseUserAgent(utils.GetUserAgent(c))
	h.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"role":        user.Role,
		"ip":          utils.GetRealIP(c),
		"device_type": device.DeviceType,
		"os":          device.OS,
		"browser":     device.Browser,
	}).Info("Login")

	h.respondWithTokens(c, http.StatusOK, user)
}

// Refresh exchanges a valid refresh token for a new access token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	user, err := h.userRepo.GetByID(claims.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
		return
	}
	if user == nil || user.Status != models.UserStatusActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is no longer active"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(claims.UserID, user.Email, string(user.Role))
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userRepo.GetByID(userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, user *models.User) {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Account has malformed id")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(userID, user.Email, string(user.Role))
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(userID, user.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(status, gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}
