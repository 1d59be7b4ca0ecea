package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/directory"
	"github.com/choosemyai/backend/internal/logger"
	"github.com/choosemyai/backend/internal/middleware"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

// Handler combines all handler types
type Handler struct {
	Auth       *AuthHandler
	Tool       *ToolHandler
	Comment    *CommentHandler
	Category   *CategoryHandler
	Blog       *BlogHandler
	Appearance *AppearanceHandler
	User       *UserHandler
	Admin      *AdminHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc *directory.Service, tokens *auth.TokenManager, log *logrus.Logger) *Handler {
	b := base{svc: svc, store: svc.Store(), log: log}

	return &Handler{
		Auth:       &AuthHandler{base: b, tokens: tokens},
		Tool:       &ToolHandler{base: b},
		Comment:    &CommentHandler{base: b},
		Category:   &CategoryHandler{base: b},
		Blog:       &BlogHandler{base: b},
		Appearance: &AppearanceHandler{base: b},
		User:       &UserHandler{base: b},
		Admin:      &AdminHandler{base: b},
	}
}

// base carries what every handler needs.
type base struct {
	svc   *directory.Service
	store store.Store
	log   *logrus.Logger
}

// fail maps an error onto a JSON error response. Unknown errors are logged
// and reported as 500.
func (b base) fail(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, directory.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
	case errors.Is(err, directory.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
	case errors.Is(err, store.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference or value"})
	case errors.Is(err, directory.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, directory.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to do that"})
	case errors.Is(err, directory.ErrEmptyContent),
		errors.Is(err, directory.ErrSelfDemotion),
		errors.Is(err, auth.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.FromContext(c, b.log).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseID(c *gin.Context, param string) (int, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return id, true
}

// extractUserID returns the id set by the auth middleware.
func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int)
	return id, ok
}

// currentUser is the signed-in user, or nil.
func currentUser(c *gin.Context) *models.User {
	user, _ := middleware.User(c)
	return user
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
