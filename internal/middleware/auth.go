package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

// Context keys set by CurrentUser.
const (
	ContextUserID = "user_id"
	ContextUser   = "user"
)

// Authenticator resolves the caller from a bearer token or session cookie.
type Authenticator struct {
	store    store.Store
	tokens   *auth.TokenManager
	sessions *auth.Sessions
	log      *logrus.Logger
}

func NewAuthenticator(s store.Store, tokens *auth.TokenManager, sessions *auth.Sessions, log *logrus.Logger) *Authenticator {
	return &Authenticator{store: s, tokens: tokens, sessions: sessions, log: log}
}

// CurrentUser loads the signed-in user into the context. It never aborts;
// anonymous requests simply carry no user.
func (a *Authenticator) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := a.resolve(c)
		if !ok {
			c.Next()
			return
		}

		user, err := a.store.GetUser(c.Request.Context(), userID)
		if err != nil {
			// Deleted users and stale tokens are treated as anonymous.
			c.Next()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context) (int, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return 0, false
		}
		claims, err := a.tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			a.log.WithError(err).Debug("Rejected bearer token")
			return 0, false
		}
		return claims.UserID, true
	}

	if a.sessions != nil {
		return a.sessions.UserID(c.Request)
	}
	return 0, false
}

// User returns the user loaded by CurrentUser.
func User(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := raw.(*models.User)
	return user, ok
}

// RequireAuth rejects anonymous API requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := User(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireModerator allows moderators and admins.
func RequireModerator() gin.HandlerFunc {
	return requireRole(models.User.CanModerate, "Moderator rights required")
}

func RequireAdmin() gin.HandlerFunc {
	return requireRole(func(u models.User) bool { return u.IsAdmin }, "Admin rights required")
}

func requireRole(allowed func(models.User) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := User(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if !allowed(*user) {
			c.JSON(http.StatusForbidden, gin.H{"error": message})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireLogin sends anonymous page visitors to the login form, remembering
// where they were headed.
func (a *Authenticator) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := User(c); !ok {
			_ = a.sessions.AddFlash(c.Writer, c.Request, auth.FlashInfo, "Please log in to access this page.")
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePageModerator and RequirePageAdmin flash an error and send the
// visitor home when they lack the role. They run after RequireLogin.
func (a *Authenticator) RequirePageModerator() gin.HandlerFunc {
	return a.requirePageRole(models.User.CanModerate, "Access denied. Moderator rights required.")
}

func (a *Authenticator) RequirePageAdmin() gin.HandlerFunc {
	return a.requirePageRole(func(u models.User) bool { return u.IsAdmin }, "Access denied. Admin rights required.")
}

func (a *Authenticator) requirePageRole(allowed func(models.User) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := User(c)
		if !ok || !allowed(*user) {
			_ = a.sessions.AddFlash(c.Writer, c.Request, auth.FlashError, message)
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
