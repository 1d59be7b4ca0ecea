package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosemyai/backend/internal/config"
	"github.com/choosemyai/backend/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNew_MemoryFallback(t *testing.T) {
	svc, err := New(config.DatabaseConfig{}, quietLogger())
	require.NoError(t, err)
	defer svc.Close()

	health := svc.Health()
	assert.Equal(t, "up", health["status"])
	assert.Equal(t, "memory", health["backend"])
	assert.NotContains(t, health, "open_connections")
}

func TestNew_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	svc, err := New(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path, LogLevel: "silent"}, quietLogger())
	require.NoError(t, err)
	defer svc.Close()

	health := svc.Health()
	assert.Equal(t, "up", health["status"])
	assert.Equal(t, config.DriverSQLite, health["backend"])
	assert.Contains(t, health, "open_connections")

	ctx := context.Background()
	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, svc.Store().CreateUser(ctx, user))
	assert.NotZero(t, user.ID)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, quietLogger())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping connection attempt in short mode")
	}
	_, err := Open(config.DatabaseConfig{
		Driver: config.DriverPostgres, Host: "127.0.0.1", Port: 1, Username: "x", Name: "x", SSLMode: "disable",
		LogLevel: "silent",
	}, quietLogger())
	assert.Error(t, err)
}
