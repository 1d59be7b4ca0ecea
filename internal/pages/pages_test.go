package pages

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/directory"
	"github.com/choosemyai/backend/internal/middleware"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
	"github.com/choosemyai/backend/internal/store/memory"
	"github.com/choosemyai/backend/internal/store/storetest"
)

type site struct {
	router *gin.Engine
	svc    *directory.Service
	store  store.Store
}

func newSite(t *testing.T) *site {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	s := memory.New()
	svc := directory.New(s, log)
	sessions := auth.NewSessions("session-secret", 3600, false)
	authn := middleware.NewAuthenticator(s, auth.NewTokenManager("test-secret", time.Hour), sessions, log)

	r := gin.New()
	r.Use(authn.CurrentUser())
	require.NoError(t, New(svc, sessions, log).Register(r, authn))

	return &site{router: r, svc: svc, store: s}
}

// register creates an account with a real password hash.
func (s *site) register(t *testing.T, username string, roles ...func(*models.User)) *models.User {
	t.Helper()
	user, err := s.svc.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	for _, role := range roles {
		role(user)
	}
	require.NoError(t, s.store.UpdateUser(context.Background(), user))
	return user
}

// browser replays cookies between requests.
type browser struct {
	site    *site
	cookies map[string]*http.Cookie
}

func (s *site) browser() *browser {
	return &browser{site: s, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.site.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(t *testing.T, username string) {
	t.Helper()
	w := b.post("/login", url.Values{"username": {username}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestIndex(t *testing.T) {
	s := newSite(t)
	owner := storetest.CreateUser(t, s.store)
	writing := storetest.CreateCategory(t, s.store, "Writing")
	storetest.CreateTool(t, s.store, owner, "Quill", writing)
	storetest.CreateTool(t, s.store, owner, "Painter")

	w := s.browser().get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Quill")
	assert.Contains(t, w.Body.String(), "Painter")
	assert.Contains(t, w.Body.String(), `href="/custom.css"`)

	w = s.browser().get("/?q=quill")
	assert.Contains(t, w.Body.String(), "Quill")
	assert.NotContains(t, w.Body.String(), "Painter")

	w = s.browser().get(fmt.Sprintf("/category/%d", writing.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Quill")
	assert.NotContains(t, w.Body.String(), "Painter")

	assert.Equal(t, http.StatusNotFound, s.browser().get("/category/999").Code)
	assert.Equal(t, http.StatusNotFound, s.browser().get("/no/such/page").Code)
}

func TestLogin(t *testing.T) {
	s := newSite(t)
	s.register(t, "alice")

	b := s.browser()
	w := b.post("/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Contains(t, b.get("/login").Body.String(), "Invalid username or password")

	w = b.post("/login", url.Values{"username": {"alice@example.com"}, "password": {"secret1"}, "next": {"/submit"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/submit", w.Header().Get("Location"))
	assert.Contains(t, b.get("/").Body.String(), "alice")

	b.get("/logout")
	assert.NotContains(t, b.get("/").Body.String(), "Logout")
}

func TestLogin_IgnoresExternalNext(t *testing.T) {
	s := newSite(t)
	s.register(t, "alice")

	w := s.browser().post("/login", url.Values{"username": {"alice"}, "password": {"secret1"}, "next": {"//evil.example.com"}})
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRegister(t *testing.T) {
	s := newSite(t)
	b := s.browser()

	w := b.post("/register", url.Values{"username": {"bob"}, "email": {"bob@example.com"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, b.get("/login").Body.String(), "Registration successful! Please login.")

	w = b.post("/register", url.Values{"username": {"bob"}, "email": {"other@example.com"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")

	w = b.post("/register", url.Values{"username": {"x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAndModerate(t *testing.T) {
	s := newSite(t)
	s.register(t, "alice")
	s.register(t, "mod", storetest.AsModerator)
	category := storetest.CreateCategory(t, s.store, "Writing")

	anon := s.browser()
	w := anon.get("/submit")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Fsubmit", w.Header().Get("Location"))

	alice := s.browser()
	alice.login(t, "alice")
	require.Equal(t, http.StatusOK, alice.get("/submit").Code)

	w = alice.post("/submit", url.Values{
		"name":        {"Drafter"},
		"description": {"Drafts things"},
		"url":         {"https://drafter.example.com"},
		"categories":  {fmt.Sprint(category.ID)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/my-tools", w.Header().Get("Location"))

	tool, err := s.store.GetToolByName(context.Background(), "Drafter")
	require.NoError(t, err)
	assert.False(t, tool.IsApproved)

	w = alice.get("/my-tools")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Drafter")
	assert.Contains(t, w.Body.String(), "Pending review")
	assert.Equal(t, http.StatusSeeOther, anon.get("/my-tools").Code)

	toolPath := fmt.Sprintf("/tool/%d", tool.ID)
	assert.Equal(t, http.StatusNotFound, anon.get(toolPath).Code)
	assert.Equal(t, http.StatusOK, alice.get(toolPath).Code)

	w = alice.get("/admin/tools")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	mod := s.browser()
	mod.login(t, "mod")
	w = mod.get("/admin/tools")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Drafter")

	w = mod.post(fmt.Sprintf("/admin/tool/%d/approve", tool.ID), nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, http.StatusOK, anon.get(toolPath).Code)

	// Moderators do not reach the admin-only screens.
	assert.Equal(t, http.StatusSeeOther, mod.get("/admin").Code)
}

func TestSubmit_InvalidForm(t *testing.T) {
	s := newSite(t)
	s.register(t, "alice")
	b := s.browser()
	b.login(t, "alice")

	w := b.post("/submit", url.Values{"name": {"Drafter"}, "url": {"not a url"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least one category")
}

func TestComments(t *testing.T) {
	s := newSite(t)
	owner := storetest.CreateUser(t, s.store)
	tool := storetest.CreateTool(t, s.store, owner, "Quill")
	s.register(t, "alice")
	s.register(t, "bob")

	alice := s.browser()
	alice.login(t, "alice")
	w := alice.post(fmt.Sprintf("/tool/%d/comment", tool.ID), url.Values{"content": {"Really <em>useful</em>"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	page := alice.get(fmt.Sprintf("/tool/%d", tool.ID)).Body.String()
	assert.Contains(t, page, "Really <em>useful</em>")
	assert.Contains(t, page, "Comment added successfully!")

	comments, err := s.store.ListComments(context.Background(), tool.ID, store.SortNewest)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	bob := s.browser()
	bob.login(t, "bob")
	w = bob.post(fmt.Sprintf("/comment/%d/delete", comments[0].ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = alice.post(fmt.Sprintf("/comment/%d/delete", comments[0].ID), nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, fmt.Sprintf("/tool/%d", tool.ID), w.Header().Get("Location"))
}

func TestVotes(t *testing.T) {
	s := newSite(t)
	owner := storetest.CreateUser(t, s.store)
	tool := storetest.CreateTool(t, s.store, owner, "Quill")
	s.register(t, "alice")

	anon := s.browser()
	w := anon.post(fmt.Sprintf("/vote/tool/%d", tool.ID), url.Values{"value": {"1"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	b := s.browser()
	b.login(t, "alice")

	w = b.post(fmt.Sprintf("/vote/tool/%d", tool.ID), url.Values{"value": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes": 1, "user_vote": 1}`, w.Body.String())

	w = b.post(fmt.Sprintf("/vote/tool/%d/-1", tool.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes": -1, "user_vote": -1}`, w.Body.String())

	w = b.post(fmt.Sprintf("/vote/tool/%d/5", tool.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.post("/vote/tool/999/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	comment := &models.Comment{Content: "Nice", ToolID: tool.ID, UserID: owner.ID}
	require.NoError(t, s.store.CreateComment(context.Background(), comment))
	w = b.post(fmt.Sprintf("/vote/comment/%d/1", comment.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes": 1, "user_vote": 1}`, w.Body.String())

	require.NoError(t, s.store.SetToolApproval(context.Background(), tool.ID, false))
	w = b.post(fmt.Sprintf("/vote/comment/%d/1", comment.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomCSS(t *testing.T) {
	s := newSite(t)
	b := s.browser()

	w := b.get("/custom.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, w.Body.String(), "--bs-primary: #0d6efd;")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/custom.css", nil)
	req.Header.Set("If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, b.do(req).Code)

	_, err := s.svc.UpdateAppearance(context.Background(), models.AppearanceRequest{PrimaryColor: "#ff0000"})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/custom.css", nil)
	req.Header.Set("If-None-Match", etag)
	w = b.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "--bs-primary: #ff0000;")
}

func TestBlog(t *testing.T) {
	s := newSite(t)
	admin := s.register(t, "admin", storetest.AsAdmin)
	_, err := s.svc.CreateBlogPost(context.Background(), admin, models.BlogPostRequest{
		Title:   "Draft Notes",
		Content: "<p>Not yet</p>",
	})
	require.NoError(t, err)

	anon := s.browser()
	assert.NotContains(t, anon.get("/blog").Body.String(), "Draft Notes")
	assert.Equal(t, http.StatusNotFound, anon.get("/blog/draft-notes").Code)

	b := s.browser()
	b.login(t, "admin")
	w := b.get("/blog/draft-notes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This blog post is not published yet.")
}

func TestAdminPages(t *testing.T) {
	s := newSite(t)
	s.register(t, "admin", storetest.AsAdmin)
	target := s.register(t, "alice")
	b := s.browser()
	b.login(t, "admin")

	for _, path := range []string{"/admin", "/admin/users", "/admin/tools", "/admin/categories", "/admin/appearance", "/admin/blog", "/admin/blog/new"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, b.get(path).Code)
		})
	}

	w := b.post(fmt.Sprintf("/admin/users/%d/roles", target.ID), url.Values{"is_moderator": {"true"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	updated, err := s.store.GetUser(context.Background(), target.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsModerator)
	assert.False(t, updated.IsAdmin)

	w = b.post("/admin/categories", url.Values{"name": {"Audio"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	_, err = s.store.GetCategoryByName(context.Background(), "Audio")
	require.NoError(t, err)

	w = b.post("/admin/appearance", url.Values{"primary_color": {"#abcdef"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, b.get("/admin/appearance").Body.String(), "Appearance settings updated successfully!")

	w = b.post("/admin/blog/new", url.Values{"title": {"Launch"}, "content": {"<p>We are live</p>"}, "published": {"true"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	post, err := s.store.GetBlogPostBySlug(context.Background(), "launch")
	require.NoError(t, err)
	assert.True(t, post.Published)

	w = b.post(fmt.Sprintf("/admin/blog/%d/toggle", post.ID), nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, b.get("/admin/blog").Body.String(), "Blog post unpublished successfully!")
}

func TestYoutubeEmbed(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=abc123": "https://www.youtube.com/embed/abc123",
		"https://youtu.be/abc123":                "https://www.youtube.com/embed/abc123",
		"https://youtube.com/embed/abc123":       "https://www.youtube.com/embed/abc123",
		"https://vimeo.com/123":                  "",
		"":                                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, youtubeEmbed(in), in)
	}
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/submit", safeNext("/submit"))
	assert.Equal(t, "/", safeNext(""))
	assert.Equal(t, "/", safeNext("https://evil.example.com"))
	assert.Equal(t, "/", safeNext("//evil.example.com"))
}

func TestCSSValue(t *testing.T) {
	assert.Equal(t, "red  body  color: blue", cssValue("red; } body { color: blue"))
}
