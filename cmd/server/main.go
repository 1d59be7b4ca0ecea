package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/cache"
	"github.com/choosemyai/backend/internal/config"
	"github.com/choosemyai/backend/internal/database"
	"github.com/choosemyai/backend/internal/logger"
	"github.com/choosemyai/backend/internal/server"
	"github.com/choosemyai/backend/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.New(conf.Log)
	gin.SetMode(conf.Server.Mode)

	db, err := database.New(conf.Database, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if conf.Seed.Enabled || conf.Database.ResolvedDriver() == config.DriverMemory {
		if err := seed(db.Store(), conf.Seed); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
		log.Info("✅ Seed data ready")
	}

	c, err := cache.New(conf.Redis, log)
	if err != nil {
		log.WithError(err).Warn("⚠️  Redis unavailable, continuing without cache")
		c = cache.Noop{}
	}
	defer c.Close()

	srv, err := server.NewServer(conf, db, cache.NewStore(db.Store(), c, log), log)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("🚀 Server starting on %s", conf.Server.Addr())
		fmt.Println("📝 Press Ctrl+C to stop the server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
		return
	}
	log.Info("✅ Server stopped")
}

func seed(s store.Store, conf config.SeedConfig) error {
	hash, err := auth.HashPassword(conf.AdminPassword)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return store.Seed(ctx, s, store.SeedAdmin{
		Username:     conf.AdminUsername,
		Email:        conf.AdminEmail,
		PasswordHash: hash,
	})
}
