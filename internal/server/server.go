package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/config"
	"github.com/choosemyai/backend/internal/database"
	"github.com/choosemyai/backend/internal/directory"
	"github.com/choosemyai/backend/internal/handlers"
	"github.com/choosemyai/backend/internal/logger"
	"github.com/choosemyai/backend/internal/middleware"
	"github.com/choosemyai/backend/internal/pages"
	"github.com/choosemyai/backend/internal/store"
)

type Server struct {
	conf    *config.Config
	db      database.Service
	log     *logrus.Logger
	authn   *middleware.Authenticator
	handler *handlers.Handler
	pages   *pages.Pages
}

// New wires the handlers and pages against s, which may be a cached view of
// db.Store().
func New(conf *config.Config, db database.Service, s store.Store, log *logrus.Logger) *Server {
	tokens := auth.NewTokenManager(conf.Auth.JWTSecret, conf.Auth.TokenTTL())
	sessions := auth.NewSessions(conf.Auth.SessionSecret, conf.Auth.SessionMaxAge, conf.Auth.SecureCookies)
	svc := directory.New(s, log)

	return &Server{
		conf:    conf,
		db:      db,
		log:     log,
		authn:   middleware.NewAuthenticator(s, tokens, sessions, log),
		handler: handlers.NewHandler(svc, tokens, log),
		pages:   pages.New(svc, sessions, log),
	}
}

// NewServer creates and configures a new server
func NewServer(conf *config.Config, db database.Service, s store.Store, log *logrus.Logger) (*http.Server, error) {
	router, err := New(conf, db, s, log).RegisterRoutes()
	if err != nil {
		return nil, err
	}

	read, write, idle := conf.Server.Timeouts()
	return &http.Server{
		Addr:         conf.Server.Addr(),
		Handler:      router,
		IdleTimeout:  idle,
		ReadTimeout:  read,
		WriteTimeout: write,
	}, nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() (*gin.Engine, error) {
	r := gin.New()
	r.Use(logger.Middleware(s.log), gin.Recovery())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.conf.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(s.authn.CurrentUser())

	// Health check endpoint
	r.GET("/health", s.health)

	h := s.handler
	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)

		api.GET("/tools", h.Tool.GetTools)
		api.GET("/tools/:id", h.Tool.GetTool)
		api.GET("/tools/:id/comments", h.Comment.GetComments)
		api.GET("/search", h.Tool.Search)
		api.GET("/categories", h.Category.GetCategories)
		api.GET("/categories/:id/tools", h.Category.GetCategoryTools)
		api.GET("/blog", h.Blog.GetPosts)
		api.GET("/blog/:slug", h.Blog.GetPost)
		api.GET("/appearance", h.Appearance.GetAppearance)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.GET("/me/tools", h.Tool.GetMyTools)
			protected.POST("/tools", h.Tool.CreateTool)
			protected.POST("/tools/:id/vote", h.Tool.VoteTool)
			protected.POST("/tools/:id/comments", h.Comment.CreateComment)
			protected.POST("/comments/:id/vote", h.Comment.VoteComment)
			protected.DELETE("/comments/:id", h.Comment.DeleteComment)
		}

		moderation := api.Group("/admin")
		moderation.Use(middleware.RequireAuth(), middleware.RequireModerator())
		{
			moderation.GET("/tools", h.Admin.GetTools)
			moderation.POST("/tools/:id/approve", h.Admin.ApproveTool)
			moderation.POST("/tools/:id/reject", h.Admin.RejectTool)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			admin.GET("/stats", h.Admin.GetStats)
			admin.PUT("/tools/:id", h.Admin.UpdateTool)
			admin.GET("/users", h.User.GetUsers)
			admin.PUT("/users/:id/roles", h.User.UpdateRoles)
			admin.POST("/categories", h.Category.CreateCategory)
			admin.PUT("/categories/:id", h.Category.UpdateCategory)
			admin.DELETE("/categories/:id", h.Category.DeleteCategory)
			admin.PUT("/appearance", h.Appearance.UpdateAppearance)
			admin.GET("/blog", h.Blog.GetAllPosts)
			admin.POST("/blog", h.Blog.CreatePost)
			admin.PUT("/blog/:id", h.Blog.UpdatePost)
			admin.DELETE("/blog/:id", h.Blog.DeletePost)
			admin.POST("/blog/:id/toggle", h.Blog.TogglePost)
		}
	}

	if err := s.pages.Register(r, s.authn); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Server) health(c *gin.Context) {
	stats := s.db.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
