package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DatabaseURL string

	// DBMaxOpenConns and DBMaxIdleConns size the database/sql pool behind GORM.
	DBMaxOpenConns int
	DBMaxIdleConns int

	// DBConnectAttempts is how many times startup retries the initial
	// connection before giving up (the database container is often slower
	// to come up than the API).
	DBConnectAttempts int

	ListenAddr string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// HistoryWindowDays is the trailing window used by the analytics history
	// endpoint when the request does not pass ?days=.
	HistoryWindowDays int

	// AdminEmail and AdminPassword seed an admin account on startup.
	// Both must be set for the bootstrap to run.
	AdminEmail    string
	AdminPassword string

	CORSOrigin string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables and applies
// defaults. Invalid numeric values fall back to the default.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:       os.Getenv("APP_DATABASE_URL"),
		DBMaxOpenConns:    getint("APP_DB_MAX_OPEN_CONNS", 30),
		DBMaxIdleConns:    getint("APP_DB_MAX_IDLE_CONNS", 10),
		DBConnectAttempts: getint("APP_DB_CONNECT_ATTEMPTS", 10),
		ListenAddr:        getenv("APP_LISTEN_ADDR", ":8080"),
		JWTSecret:         os.Getenv("APP_JWT_SECRET"),
		AccessTokenTTL:    time.Duration(getint("APP_ACCESS_TOKEN_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:   time.Duration(getint("APP_REFRESH_TOKEN_DAYS", 7)) * 24 * time.Hour,
		HistoryWindowDays: getint("APP_HISTORY_WINDOW_DAYS", 7),
		AdminEmail:        strings.ToLower(strings.TrimSpace(os.Getenv("APP_ADMIN_EMAIL"))),
		AdminPassword:     os.Getenv("APP_ADMIN_PASSWORD"),
		CORSOrigin:        getenv("APP_CORS_ORIGIN", "*"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "json"),
	}
	return cfg
}

// Validate reports configuration that the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("APP_JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
