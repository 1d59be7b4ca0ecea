package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/choosemyai/backend/internal/config"
	"github.com/choosemyai/backend/internal/logger"
	"github.com/choosemyai/backend/internal/store"
	"github.com/choosemyai/backend/internal/store/gormstore"
	"github.com/choosemyai/backend/internal/store/memory"
)

// Service represents the active data store.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are backend-specific.
	Health() map[string]string

	// Store is the data-access layer every handler works against.
	Store() store.Store

	// Close terminates the database connection.
	Close() error
}

type service struct {
	store store.Store
	db    *gorm.DB // nil for the memory backend
	log   *logrus.Logger
}

// New opens the backend selected by conf. With no driver and no database
// host configured it falls back to the in-memory store.
func New(conf config.DatabaseConfig, log *logrus.Logger) (Service, error) {
	driver := conf.ResolvedDriver()

	if driver == config.DriverMemory {
		log.Warn("⚠️  No database configured, using the in-memory store; data is lost on restart")
		return &service{store: memory.New(), log: log}, nil
	}

	db, err := Open(conf, log)
	if err != nil {
		return nil, err
	}

	return &service{store: gormstore.New(db, driver), db: db, log: log}, nil
}

// Open connects gorm to PostgreSQL or SQLite, migrates the schema and sizes
// the connection pool.
func Open(conf config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	driver := conf.ResolvedDriver()

	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(conf.PostgresDSN())
	case config.DriverSQLite:
		if dir := filepath.Dir(conf.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("error creating sqlite directory: %w", err)
			}
		}
		dialector = sqlite.Open(conf.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Gorm(log, conf.LogLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if driver == config.DriverSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
		sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(conf.ConnMaxLifetime())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.WithField("driver", driver).Info("✅ Database connected successfully")

	if err := gormstore.Migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("✅ Database migrations completed")

	return db, nil
}

func (s *service) Store() store.Store {
	return s.store
}

// Health pings the backend and, for SQL databases, adds pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := map[string]string{"backend": s.store.Name()}

	if err := s.store.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	if s.db == nil {
		return stats
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	s.log.WithField("backend", s.store.Name()).Info("Disconnected from database")
	return s.store.Close()
}
