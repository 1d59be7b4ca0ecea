package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, conf.Server.Port)
	assert.Equal(t, "debug", conf.Server.Mode)
	assert.Equal(t, DriverMemory, conf.Database.ResolvedDriver())
	assert.Equal(t, 72*time.Hour, conf.Auth.TokenTTL())
	assert.NotEmpty(t, conf.Auth.JWTSecret)
	assert.Equal(t, "admin", conf.Seed.AdminUsername)
	assert.True(t, conf.Seed.Enabled)
	assert.Equal(t, devAdminPassword, conf.Seed.AdminPassword)
	assert.False(t, conf.Redis.Enabled())
}

func TestLoadSeedPasswordInRelease(t *testing.T) {
	const secrets = "server:\n  mode: release\nauth:\n  jwt_secret: s1\n  session_secret: s2\n"

	_, err := Load(writeConfig(t, secrets))
	assert.ErrorContains(t, err, "seed.admin_password")

	conf, err := Load(writeConfig(t, secrets+"database:\n  driver: sqlite\nseed:\n  enabled: false\n"))
	require.NoError(t, err, "no seeding, no password needed")
	assert.Empty(t, conf.Seed.AdminPassword)

	_, err = Load(writeConfig(t, secrets+"database:\n  driver: memory\nseed:\n  enabled: false\n"))
	assert.Error(t, err, "the memory store always seeds")

	t.Setenv("ADMIN_PASSWORD", "from-env")
	conf, err = Load(writeConfig(t, secrets))
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.Seed.AdminPassword)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  mode: release
database:
  host: db.internal
  name: tools
  username: app
  max_open_conns: 20
auth:
  jwt_secret: file-secret
  session_secret: file-session
redis:
  host: cache.internal
seed:
  admin_password: file-admin-pw
`)
	t.Setenv("APP_DATABASE_MAX_OPEN_CONNS", "42")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("PORT", "9100")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, conf.Server.Port)
	assert.Equal(t, 42, conf.Database.MaxOpenConns)
	assert.Equal(t, "hunter2", conf.Database.Password)
	assert.Equal(t, DriverPostgres, conf.Database.ResolvedDriver())
	assert.Equal(t, "file-secret", conf.Auth.JWTSecret)
	assert.Equal(t, "file-admin-pw", conf.Seed.AdminPassword)
	assert.Equal(t, "cache.internal:6379", conf.Redis.Addr())
	assert.Contains(t, conf.Database.PostgresDSN(), "host=db.internal")
	assert.Contains(t, conf.Database.PostgresDSN(), "password=hunter2")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: oracle\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("release without secrets", func(t *testing.T) {
		path := writeConfig(t, "server:\n  mode: release\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		path := writeConfig(t, "server:\n  mode: staging\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.max_open_conns", envKey("APP_DATABASE_MAX_OPEN_CONNS"))
	assert.Equal(t, "server.port", envKey("APP_SERVER_PORT"))
	assert.Equal(t, "debug", envKey("APP_DEBUG"))
}

func TestPostgresDSNPrefersExplicitDSN(t *testing.T) {
	d := DatabaseConfig{DSN: "postgres://u:p@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", d.PostgresDSN())
}
