package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

// Database drivers understood by database.Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	insecureDevSecret = "choosemyai-dev-secret-change-me"
	devAdminPassword  = "admin123"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Seed     SeedConfig     `koanf:"seed"`
}

type ServerConfig struct {
	Host         string   `koanf:"host"`
	Port         int      `koanf:"port"`
	Mode         string   `koanf:"mode"` // debug, release, test
	ReadTimeout  int      `koanf:"read_timeout"`
	WriteTimeout int      `koanf:"write_timeout"`
	IdleTimeout  int      `koanf:"idle_timeout"`
	AllowOrigins []string `koanf:"allow_origins"`
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver"` // postgres, sqlite, memory; empty picks one
	DSN          string `koanf:"dsn"`
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name"`
	SSLMode      string `koanf:"sslmode"`
	Path         string `koanf:"path"` // sqlite file
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	MaxLifetime  int    `koanf:"max_lifetime"` // seconds
	LogLevel     string `koanf:"log_level"`    // silent, error, warn, info
}

type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"pool_size"`
	TTL      int    `koanf:"ttl"` // seconds
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
}

type AuthConfig struct {
	JWTSecret     string `koanf:"jwt_secret"`
	TokenHours    int    `koanf:"token_hours"`
	SessionSecret string `koanf:"session_secret"`
	SessionMaxAge int    `koanf:"session_max_age"` // seconds
	SecureCookies bool   `koanf:"secure_cookies"`
}

type SeedConfig struct {
	Enabled       bool   `koanf:"enabled"`
	AdminUsername string `koanf:"admin_username"`
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
}

// Load reads configuration from an optional YAML file, then APP_ prefixed
// environment variables (APP_DATABASE_HOST -> database.host), then the
// short legacy variable names. Later sources win.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	loadLegacyEnvVars(k)

	conf := &Config{
		Seed: SeedConfig{Enabled: true},
	}
	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	setDefaults(conf)

	if err := validate(conf); err != nil {
		return nil, err
	}

	return conf, nil
}

// MustLoad is Load that exits the process on failure.
func MustLoad(configPath string) *Config {
	conf, err := Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	return conf
}

// envKey maps APP_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "APP_"))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

func loadLegacyEnvVars(k *koanf.Koanf) {
	legacy := map[string]string{
		"PORT":            "server.port",
		"GIN_MODE":        "server.mode",
		"DATABASE_DRIVER": "database.driver",
		"DATABASE_URL":    "database.dsn",
		"DB_HOST":         "database.host",
		"DB_PORT":         "database.port",
		"DB_USER":         "database.username",
		"DB_PASSWORD":     "database.password",
		"DB_NAME":         "database.name",
		"DB_SSLMODE":      "database.sslmode",
		"SQLITE_PATH":     "database.path",
		"REDIS_HOST":      "redis.host",
		"REDIS_PORT":      "redis.port",
		"REDIS_PASSWORD":  "redis.password",
		"JWT_SECRET":      "auth.jwt_secret",
		"SESSION_SECRET":  "auth.session_secret",
		"LOG_LEVEL":       "log.level",
		"ADMIN_PASSWORD":  "seed.admin_password",
	}
	for name, key := range legacy {
		if v := os.Getenv(name); v != "" {
			k.Set(key, v)
		}
	}
}

func setDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/choosemyai.db"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = 3600
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}

	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 300
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Auth.TokenHours == 0 {
		c.Auth.TokenHours = 72
	}
	if c.Auth.SessionMaxAge == 0 {
		c.Auth.SessionMaxAge = 86400 * 7
	}

	if c.Seed.AdminUsername == "" {
		c.Seed.AdminUsername = "admin"
	}
	if c.Seed.AdminEmail == "" {
		c.Seed.AdminEmail = "admin@choosemyai.com"
	}
}

func validate(c *Config) error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q", c.Server.Mode)
	}

	switch c.Database.Driver {
	case "", DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("invalid database.driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		if c.Server.Mode == "release" {
			return errors.New("auth.jwt_secret is required in release mode (set JWT_SECRET)")
		}
		logrus.Warn("⚠️  auth.jwt_secret is empty, using an insecure development secret")
		c.Auth.JWTSecret = insecureDevSecret
	}
	if c.Auth.SessionSecret == "" {
		if c.Server.Mode == "release" {
			return errors.New("auth.session_secret is required in release mode (set SESSION_SECRET)")
		}
		logrus.Warn("⚠️  auth.session_secret is empty, using an insecure development secret")
		c.Auth.SessionSecret = insecureDevSecret
	}

	// The memory store is always seeded.
	seeds := c.Seed.Enabled || c.Database.ResolvedDriver() == DriverMemory
	if c.Seed.AdminPassword == "" && seeds {
		if c.Server.Mode == "release" {
			return errors.New("seed.admin_password is required in release mode when seeding (set ADMIN_PASSWORD)")
		}
		logrus.Warn("⚠️  seed.admin_password is empty, the seeded admin gets the development password")
		c.Seed.AdminPassword = devAdminPassword
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s ServerConfig) Timeouts() (read, write, idle time.Duration) {
	return time.Duration(s.ReadTimeout) * time.Second,
		time.Duration(s.WriteTimeout) * time.Second,
		time.Duration(s.IdleTimeout) * time.Second
}

// ResolvedDriver returns the configured driver, or picks postgres when a
// server is configured and falls back to the in-memory store otherwise.
func (d DatabaseConfig) ResolvedDriver() string {
	if d.Driver != "" {
		return d.Driver
	}
	if d.DSN != "" || d.Host != "" {
		return DriverPostgres
	}
	return DriverMemory
}

// PostgresDSN builds the connection string, preferring an explicit DSN.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.Username, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func (d DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.MaxLifetime) * time.Second
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (r RedisConfig) CacheTTL() time.Duration {
	return time.Duration(r.TTL) * time.Second
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenHours) * time.Hour
}
