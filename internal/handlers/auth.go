package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/models"
)

type AuthHandler struct {
	base
	tokens *auth.TokenManager
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Register(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "User not found")
		return
	}

	h.respondWithToken(c, http.StatusCreated, user, "User registered successfully")
}

// Login accepts a username or email with a password.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, err, "User not found")
		return
	}

	h.respondWithToken(c, http.StatusOK, user, "Login successful")
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User, message string) {
	token, err := h.tokens.Generate(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(status, models.AuthResponse{Token: token, User: *user, Message: message})
}

// GetMe returns the authenticated user.
func (h *AuthHandler) GetMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}
