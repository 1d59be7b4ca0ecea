package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/config"
	"github.com/choosemyai/backend/internal/database"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
	"github.com/choosemyai/backend/internal/store/storetest"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	store  store.Store
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	conf := &config.Config{
		Server: config.ServerConfig{Mode: "test", AllowOrigins: []string{"*"}},
		Auth: config.AuthConfig{
			JWTSecret:     testSecret,
			TokenHours:    1,
			SessionSecret: "session-secret",
			SessionMaxAge: 3600,
		},
	}

	db, err := database.New(config.DatabaseConfig{Driver: config.DriverMemory}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	router, err := New(conf, db, db.Store(), log).RegisterRoutes()
	require.NoError(t, err)

	return &testServer{
		router: router,
		store:  db.Store(),
		tokens: auth.NewTokenManager(testSecret, time.Hour),
	}
}

func (ts *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := ts.tokens.Generate(*user)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]string](t, w)
	assert.Equal(t, "up", body["status"])
	assert.Equal(t, "memory", body["backend"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	register := map[string]string{"username": "alice", "email": "alice@example.com", "password": "secret1"}
	w := ts.do(t, http.MethodPost, "/api/v1/auth/register", register, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[models.AuthResponse](t, w).Token)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/register", register, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{"username": "bob"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[models.AuthResponse](t, w)
	assert.Equal(t, "alice", login.User.Username)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/me", nil, login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[models.User](t, w).Username)

	w = ts.do(t, http.MethodGet, "/api/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToolRoutes(t *testing.T) {
	ts := newTestServer(t)
	owner := storetest.CreateUser(t, ts.store)
	writing := storetest.CreateCategory(t, ts.store, "Writing")
	images := storetest.CreateCategory(t, ts.store, "Images")
	storetest.CreateTool(t, ts.store, owner, "Quill", writing)
	storetest.CreateTool(t, ts.store, owner, "Painter", images)

	w := ts.do(t, http.MethodGet, "/api/v1/tools", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Tool](t, w), 2)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tools?category=%d", images.ID), nil, "")
	tools := decode[[]models.Tool](t, w)
	require.Len(t, tools, 1)
	assert.Equal(t, "Painter", tools[0].Name)

	w = ts.do(t, http.MethodGet, "/api/v1/search?q=quil", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["count"])

	w = ts.do(t, http.MethodGet, "/api/v1/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/tools/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/tools/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/categories/%d/tools", writing.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Quill")

	w = ts.do(t, http.MethodGet, "/api/v1/categories", nil, "")
	categories := decode[[]models.Category](t, w)
	require.Len(t, categories, 2)
	assert.Equal(t, "Images", categories[0].Name)
	assert.Equal(t, 1, categories[0].ToolCount)
}

func TestSubmitModerateAndVote(t *testing.T) {
	ts := newTestServer(t)
	author := storetest.CreateUser(t, ts.store)
	stranger := storetest.CreateUser(t, ts.store)
	moderator := storetest.CreateUser(t, ts.store, storetest.AsModerator)
	category := storetest.CreateCategory(t, ts.store, "Writing")

	submission := map[string]any{
		"name":        "Drafter",
		"description": "<p>Drafts things</p><script>alert(1)</script>",
		"url":         "https://drafter.example.com",
		"categories":  []int{category.ID},
	}
	w := ts.do(t, http.MethodPost, "/api/v1/tools", submission, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/tools", submission, ts.token(t, author))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Tool models.Tool `json:"tool"`
	}](t, w).Tool
	assert.False(t, created.IsApproved)
	assert.NotContains(t, created.Description, "script")

	path := fmt.Sprintf("/api/v1/tools/%d", created.ID)
	adminPath := fmt.Sprintf("/api/v1/admin/tools/%d", created.ID)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, nil, ts.token(t, stranger)).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, path, nil, ts.token(t, author)).Code)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/v1/me/tools", nil, "").Code)
	w = ts.do(t, http.MethodGet, "/api/v1/me/tools", nil, ts.token(t, author))
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]models.Tool](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)
	assert.False(t, mine[0].IsApproved)
	w = ts.do(t, http.MethodGet, "/api/v1/me/tools", nil, ts.token(t, stranger))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Tool](t, w))

	w = ts.do(t, http.MethodGet, "/api/v1/admin/tools?pending=true", nil, ts.token(t, author))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/admin/tools?pending=true", nil, ts.token(t, moderator))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Tool](t, w), 1)

	w = ts.do(t, http.MethodPost, path+"/approve", nil, ts.token(t, moderator))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, adminPath+"/approve", nil, ts.token(t, author))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, adminPath+"/approve", nil, ts.token(t, moderator))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, path, nil, "").Code)

	w = ts.do(t, http.MethodPost, path+"/vote", map[string]int{"value": 1}, ts.token(t, stranger))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VoteResult{Score: 1, UserVote: 1}, decode[models.VoteResult](t, w))

	w = ts.do(t, http.MethodPost, path+"/vote", map[string]int{"value": 1}, ts.token(t, stranger))
	assert.Equal(t, models.VoteResult{Score: 0, UserVote: 0}, decode[models.VoteResult](t, w))

	w = ts.do(t, http.MethodPost, path+"/vote", map[string]int{"value": 2}, ts.token(t, stranger))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, adminPath+"/reject", nil, ts.token(t, moderator))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, nil, ts.token(t, moderator)).Code)
}

func TestCommentRoutes(t *testing.T) {
	ts := newTestServer(t)
	owner := storetest.CreateUser(t, ts.store)
	author := storetest.CreateUser(t, ts.store)
	other := storetest.CreateUser(t, ts.store)
	tool := storetest.CreateTool(t, ts.store, owner, "Quill")
	path := fmt.Sprintf("/api/v1/tools/%d/comments", tool.ID)

	w := ts.do(t, http.MethodPost, path, map[string]string{"content": "<b>Great</b>"}, ts.token(t, author))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[models.Comment](t, w)

	w = ts.do(t, http.MethodPost, path, map[string]string{"content": "<script></script>"}, ts.token(t, author))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/comments/%d/vote", comment.ID), map[string]int{"value": -1}, ts.token(t, other))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, decode[models.VoteResult](t, w).Score)

	w = ts.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[[]models.Comment](t, w)
	require.Len(t, comments, 1)
	assert.Equal(t, -1, comments[0].VoteCount)

	commentPath := fmt.Sprintf("/api/v1/comments/%d", comment.ID)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, commentPath, nil, ts.token(t, other)).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, commentPath, nil, ts.token(t, author)).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, commentPath, nil, ts.token(t, author)).Code)

	w = ts.do(t, http.MethodPost, path, map[string]string{"content": "still here"}, ts.token(t, author))
	require.Equal(t, http.StatusCreated, w.Code)
	hidden := decode[models.Comment](t, w)
	require.NoError(t, ts.store.SetToolApproval(context.Background(), tool.ID, false))

	votePath := fmt.Sprintf("/api/v1/comments/%d/vote", hidden.ID)
	w = ts.do(t, http.MethodPost, votePath, map[string]int{"value": 1}, ts.token(t, other))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodPost, votePath, map[string]int{"value": 1}, ts.token(t, owner))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	admin := storetest.CreateUser(t, ts.store, storetest.AsAdmin)
	moderator := storetest.CreateUser(t, ts.store, storetest.AsModerator)
	adminToken := ts.token(t, admin)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/v1/admin/stats", nil, ts.token(t, moderator)).Code)

	w := ts.do(t, http.MethodGet, "/api/v1/admin/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode[models.DashboardStats](t, w).Users)

	w = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/roles", moderator.ID), map[string]bool{"is_moderator": false}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.User](t, w).IsModerator)

	w = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/roles", admin.ID), map[string]bool{"is_admin": false}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/admin/categories", map[string]string{"name": "Audio"}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code)
	category := decode[models.Category](t, w)

	w = ts.do(t, http.MethodPost, "/api/v1/admin/categories", map[string]string{"name": "Audio"}, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/categories/%d", category.ID), map[string]string{"name": "Sound"}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sound", decode[models.Category](t, w).Name)

	w = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/categories/%d", category.ID), nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/admin/appearance", map[string]string{"primary_color": "#123456"}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/appearance", nil, "")
	settings := decode[models.AppearanceSettings](t, w)
	assert.Equal(t, "#123456", settings.PrimaryColor)
	assert.Equal(t, "#6c757d", settings.SecondaryColor)

	w = ts.do(t, http.MethodPut, "/api/v1/admin/appearance", map[string]string{"primary_color": "blue"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlogRoutes(t *testing.T) {
	ts := newTestServer(t)
	admin := storetest.CreateUser(t, ts.store, storetest.AsAdmin)
	adminToken := ts.token(t, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/admin/blog", map[string]any{
		"title":   "Hello World",
		"content": "<p>First post</p>",
	}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[models.BlogPost](t, w)
	assert.Equal(t, "hello-world", post.Slug)
	assert.False(t, post.Published)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/blog/hello-world", nil, "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/blog/hello-world", nil, adminToken).Code)
	assert.Empty(t, decode[[]models.BlogPost](t, ts.do(t, http.MethodGet, "/api/v1/blog", nil, "")))

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/blog/%d/toggle", post.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.BlogPost](t, w).Published)
	assert.Len(t, decode[[]models.BlogPost](t, ts.do(t, http.MethodGet, "/api/v1/blog", nil, "")), 1)

	w = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/blog/%d", post.ID), map[string]any{
		"title":     "Hello Again",
		"content":   "<p>Edited</p>",
		"published": true,
	}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello-again", decode[models.BlogPost](t, w).Slug)

	w = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/blog/%d", post.ID), nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.BlogPost](t, ts.do(t, http.MethodGet, "/api/v1/admin/blog", nil, adminToken)), 0)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tools", nil)
	req.Header.Set("Origin", "https://frontend.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownAPIRoute(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))
}

func TestSeededServer(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, store.Seed(context.Background(), ts.store, store.SeedAdmin{
		Username: "admin", Email: "admin@example.com", PasswordHash: "hash",
	}))

	w := ts.do(t, http.MethodGet, "/api/v1/tools", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Tool](t, w), 3)
}
