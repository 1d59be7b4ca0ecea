package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store/memory"
	"github.com/choosemyai/backend/internal/store/storetest"
)

type fixture struct {
	auth     *Authenticator
	tokens   *auth.TokenManager
	sessions *auth.Sessions
	store    *memory.Store
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := memory.New()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	sessions := auth.NewSessions("session-secret", 3600, false)
	return &fixture{
		auth:     NewAuthenticator(s, tokens, sessions, log),
		tokens:   tokens,
		sessions: sessions,
		store:    s,
	}
}

func (f *fixture) router(guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(f.auth.CurrentUser())
	handlers := append(guards, func(c *gin.Context) {
		user, ok := User(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.Username)
	})
	r.GET("/", handlers...)
	return r
}

func (f *fixture) bearer(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := f.tokens.Generate(*user)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestCurrentUser(t *testing.T) {
	f := newFixture()
	alice := storetest.CreateUser(t, f.store)
	r := f.router()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no credentials", "", "anonymous"},
		{"valid bearer", f.bearer(t, alice), alice.Username},
		{"lowercase scheme", "bearer " + f.bearer(t, alice)[7:], alice.Username},
		{"garbage token", "Bearer nope", "anonymous"},
		{"wrong scheme", "Basic abc", "anonymous"},
		{"unknown user", f.bearer(t, &models.User{ID: 999, Username: "ghost"}), "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestCurrentUser_Session(t *testing.T) {
	f := newFixture()
	alice := storetest.CreateUser(t, f.store)

	login := httptest.NewRecorder()
	require.NoError(t, f.sessions.Login(login, httptest.NewRequest(http.MethodPost, "/login", nil), alice.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)

	assert.Equal(t, alice.Username, w.Body.String())
}

func TestAPIGuards(t *testing.T) {
	f := newFixture()
	plain := storetest.CreateUser(t, f.store)
	mod := storetest.CreateUser(t, f.store, storetest.AsModerator)
	admin := storetest.CreateUser(t, f.store, storetest.AsAdmin)

	tests := []struct {
		name  string
		guard gin.HandlerFunc
		user  *models.User
		want  int
	}{
		{"auth anonymous", RequireAuth(), nil, http.StatusUnauthorized},
		{"auth user", RequireAuth(), plain, http.StatusOK},
		{"moderator anonymous", RequireModerator(), nil, http.StatusUnauthorized},
		{"moderator plain user", RequireModerator(), plain, http.StatusForbidden},
		{"moderator moderator", RequireModerator(), mod, http.StatusOK},
		{"moderator admin", RequireModerator(), admin, http.StatusOK},
		{"admin moderator", RequireAdmin(), mod, http.StatusForbidden},
		{"admin admin", RequireAdmin(), admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req.Header.Set("Authorization", f.bearer(t, tt.user))
			}
			w := httptest.NewRecorder()
			f.router(tt.guard).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestPageGuards(t *testing.T) {
	f := newFixture()
	plain := storetest.CreateUser(t, f.store)
	admin := storetest.CreateUser(t, f.store, storetest.AsAdmin)

	req := httptest.NewRequest(http.MethodGet, "/?tab=1", nil)
	w := httptest.NewRecorder()
	f.router(f.auth.RequireLogin()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2F%3Ftab%3D1", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", f.bearer(t, plain))
	w = httptest.NewRecorder()
	f.router(f.auth.RequireLogin(), f.auth.RequirePageAdmin()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", f.bearer(t, admin))
	w = httptest.NewRecorder()
	f.router(f.auth.RequireLogin(), f.auth.RequirePageModerator()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, admin.Username, w.Body.String())
}
