// Package pages serves the server-rendered website: the public directory,
// accounts, the blog and the admin screens.
package pages

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/sirupsen/logrus"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/directory"
	"github.com/choosemyai/backend/internal/logger"
	"github.com/choosemyai/backend/internal/middleware"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

//go:embed templates static
var assets embed.FS

type Pages struct {
	svc      *directory.Service
	store    store.Store
	sessions *auth.Sessions
	log      *logrus.Logger
}

func New(svc *directory.Service, sessions *auth.Sessions, log *logrus.Logger) *Pages {
	return &Pages{svc: svc, store: svc.Store(), sessions: sessions, log: log}
}

// Register installs the renderer and every page route on r. The
// authenticator's CurrentUser middleware must already be in the chain.
func (p *Pages) Register(r *gin.Engine, authn *middleware.Authenticator) error {
	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	r.HTMLRender = renderer

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(static))
	r.GET("/custom.css", p.customCSS)

	r.GET("/", p.index)
	r.GET("/category/:id", p.category)
	r.GET("/tool/:id", p.tool)
	r.GET("/blog", p.blogIndex)
	r.GET("/blog/:slug", p.blogPost)

	r.GET("/login", p.loginForm)
	r.POST("/login", p.login)
	r.GET("/register", p.registerForm)
	r.POST("/register", p.register)
	r.GET("/logout", p.logout)

	member := r.Group("")
	member.Use(authn.RequireLogin())
	{
		member.GET("/submit", p.submitForm)
		member.POST("/submit", p.submit)
		member.GET("/my-tools", p.myTools)
		member.POST("/tool/:id/comment", p.addComment)
		member.POST("/comment/:id/delete", p.deleteComment)
	}

	votes := r.Group("/vote")
	votes.Use(middleware.RequireAuth())
	{
		votes.POST("/tool/:id", p.voteTool)
		votes.POST("/tool/:id/:value", p.voteTool)
		votes.POST("/comment/:id", p.voteComment)
		votes.POST("/comment/:id/:value", p.voteComment)
	}

	moderation := r.Group("/admin")
	moderation.Use(authn.RequireLogin(), authn.RequirePageModerator())
	{
		moderation.GET("/tools", p.adminTools)
		moderation.POST("/tool/:id/approve", p.approveTool)
		moderation.POST("/tool/:id/reject", p.rejectTool)
	}

	admin := r.Group("/admin")
	admin.Use(authn.RequireLogin(), authn.RequirePageAdmin())
	{
		admin.GET("", p.dashboard)
		admin.GET("/users", p.adminUsers)
		admin.POST("/users/:id/roles", p.updateRoles)
		admin.GET("/tool/:id/edit", p.editToolForm)
		admin.POST("/tool/:id/edit", p.editTool)
		admin.GET("/categories", p.adminCategories)
		admin.POST("/categories", p.createCategory)
		admin.POST("/categories/:id", p.updateCategory)
		admin.POST("/categories/:id/delete", p.deleteCategory)
		admin.GET("/appearance", p.appearanceForm)
		admin.POST("/appearance", p.updateAppearance)
		admin.GET("/blog", p.adminBlog)
		admin.GET("/blog/new", p.newPostForm)
		admin.POST("/blog/new", p.createPost)
		admin.GET("/blog/:id/edit", p.editPostForm)
		admin.POST("/blog/:id/edit", p.updatePost)
		admin.POST("/blog/:id/delete", p.deletePost)
		admin.POST("/blog/:id/toggle", p.togglePost)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		p.notFound(c)
	})

	return nil
}

// renderer keeps one template set per page so that every page can define
// its own "content" block inside the shared layout.
type renderer map[string]*template.Template

var funcs = template.FuncMap{
	// safe marks HTML that was sanitised before it was stored.
	"safe":         func(s string) template.HTML { return template.HTML(s) },
	"date":         func(t time.Time) string { return t.Format("January 2, 2006") },
	"youtubeEmbed": youtubeEmbed,
}

func newRenderer() (renderer, error) {
	pages, err := fs.Glob(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	adminPages, err := fs.Glob(assets, "templates/admin/*.html")
	if err != nil {
		return nil, err
	}

	r := renderer{}
	for _, page := range append(pages, adminPages...) {
		if page == "templates/layout.html" {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(page, "templates/"), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(assets, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r[name] = t
	}
	return r, nil
}

func (r renderer) Instance(name string, data any) render.Render {
	return render.HTML{Template: r[name], Name: "layout", Data: data}
}

// html renders a page with the signed-in user and pending flashes merged
// into data.
func (p *Pages) html(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	user, _ := middleware.User(c)
	data["User"] = user
	data["Flashes"] = p.sessions.Flashes(c.Writer, c.Request)
	data["Path"] = c.Request.URL.Path
	c.HTML(status, name, data)
}

func (p *Pages) flash(c *gin.Context, category, message string) {
	if err := p.sessions.AddFlash(c.Writer, c.Request, category, message); err != nil {
		logger.FromContext(c, p.log).WithError(err).Warn("Failed to save flash message")
	}
}

func (p *Pages) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

func (p *Pages) notFound(c *gin.Context) {
	p.html(c, http.StatusNotFound, "error", gin.H{
		"Title":   "Not found",
		"Status":  http.StatusNotFound,
		"Message": "The page you are looking for does not exist.",
	})
}

// fail renders the error page for err, or the 404 page for a missing record.
func (p *Pages) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		p.notFound(c)
		return
	}
	if errors.Is(err, directory.ErrForbidden) {
		p.html(c, http.StatusForbidden, "error", gin.H{
			"Title":   "Forbidden",
			"Status":  http.StatusForbidden,
			"Message": "You do not have permission to do that.",
		})
		return
	}

	logger.FromContext(c, p.log).WithError(err).Error("Page failed")
	p.html(c, http.StatusInternalServerError, "error", gin.H{
		"Title":   "Error",
		"Status":  http.StatusInternalServerError,
		"Message": "Something went wrong. Please try again later.",
	})
}

func (p *Pages) id(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		p.notFound(c)
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) *models.User {
	user, _ := middleware.User(c)
	return user
}

// safeNext only follows local redirects.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// youtubeEmbed turns a watch or short link into an embeddable player URL.
func youtubeEmbed(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	var videoID string
	switch strings.TrimPrefix(u.Hostname(), "www.") {
	case "youtube.com", "m.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			videoID = v
		} else if rest, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			videoID = rest
		}
	case "youtu.be":
		videoID = strings.TrimPrefix(u.Path, "/")
	}

	if videoID == "" || strings.ContainsAny(videoID, "/?&") {
		return ""
	}
	return "https://www.youtube.com/embed/" + videoID
}
