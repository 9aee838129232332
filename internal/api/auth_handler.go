package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/service"
)

// AuthHandler handles registration, login and profile endpoints
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/users
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.services.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		logUnexpected(h.log, err, "Failed to register user")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.services.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		logUnexpected(h.log, err, "Failed to log in")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Profile handles GET /api/users/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	caller, _ := callerFrom(c)

	user, err := h.services.Auth.Profile(c.Request.Context(), caller)
	if err != nil {
		logUnexpected(h.log, err, "Failed to load profile")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	caller, _ := callerFrom(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.services.Auth.UpdateProfile(c.Request.Context(), caller, &req)
	if err != nil {
		logUnexpected(h.log, err, "Failed to update profile")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
