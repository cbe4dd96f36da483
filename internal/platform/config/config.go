// Package config loads application configuration from environment variables.
// All variables use the QUIZ_ prefix.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Access modes accepted by QUIZ_ACCESS_MODE.
const (
	AccessOpen = "open"
	AccessPaid = "paid"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Auth        AuthConfig
	Access      AccessConfig
	Quiz        QuizConfig
	Log         LogConfig
	CatalogPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps
// profiles, questions and results in memory.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL keeps sessions
// in memory and disables the question cache.
type CacheConfig struct {
	URL         string
	SessionTTL  int // minutes
	QuestionTTL int // minutes
}

// AuthConfig holds Google sign-in and session cookie settings.
type AuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectURL        string
	SessionSecret      string
	SessionTTL         int // days
	AdminEmails        []string
	SecureCookies      bool
	RatePerMinute      int
	RateBurst          int
}

// AccessConfig selects how class worksheets are gated.
type AccessConfig struct {
	Mode string // "open" or "paid"
}

// QuizConfig holds the fallbacks for missing worksheet parameters.
type QuizConfig struct {
	DefaultClass      string
	DefaultSubject    string
	DefaultDifficulty string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with QUIZ_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("QUIZ_SERVER_PORT", 8080),
			Host:           envStr("QUIZ_SERVER_HOST", "0.0.0.0"),
			AllowedOrigins: envList("QUIZ_SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:      envStr("QUIZ_DATABASE_URL", ""),
			MaxConns: envInt("QUIZ_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("QUIZ_DATABASE_MIN_CONNS", 2),
		},
		Cache: CacheConfig{
			URL:         envStr("QUIZ_CACHE_URL", ""),
			SessionTTL:  envInt("QUIZ_CACHE_SESSION_TTL", 360),
			QuestionTTL: envInt("QUIZ_CACHE_QUESTION_TTL", 15),
		},
		Auth: AuthConfig{
			GoogleClientID:     envStr("QUIZ_AUTH_GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: envStr("QUIZ_AUTH_GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:        envStr("QUIZ_AUTH_REDIRECT_URL", "http://localhost:8080/auth/callback"),
			SessionSecret:      envStr("QUIZ_AUTH_SESSION_SECRET", ""),
			SessionTTL:         envInt("QUIZ_AUTH_SESSION_TTL", 30),
			AdminEmails:        envList("QUIZ_AUTH_ADMIN_EMAILS"),
			SecureCookies:      envBool("QUIZ_AUTH_SECURE_COOKIES", true),
			RatePerMinute:      envInt("QUIZ_AUTH_RATE_PER_MINUTE", 30),
			RateBurst:          envInt("QUIZ_AUTH_RATE_BURST", 10),
		},
		Access: AccessConfig{
			Mode: strings.ToLower(envStr("QUIZ_ACCESS_MODE", AccessOpen)),
		},
		Quiz: QuizConfig{
			DefaultClass:      envStr("QUIZ_DEFAULT_CLASS", "11"),
			DefaultSubject:    envStr("QUIZ_DEFAULT_SUBJECT", "Physics"),
			DefaultDifficulty: envStr("QUIZ_DEFAULT_DIFFICULTY", "Simple"),
		},
		Log: LogConfig{
			Level:  envStr("QUIZ_LOG_LEVEL", "info"),
			Format: envStr("QUIZ_LOG_FORMAT", "json"),
		},
		CatalogPath: envStr("QUIZ_CATALOG_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "" {
		return fmt.Errorf("QUIZ_AUTH_GOOGLE_CLIENT_ID and QUIZ_AUTH_GOOGLE_CLIENT_SECRET are required")
	}

	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("QUIZ_AUTH_SESSION_SECRET is required")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("QUIZ_AUTH_SESSION_TTL must be positive, got %d", c.Auth.SessionTTL)
	}

	if c.Access.Mode != AccessOpen && c.Access.Mode != AccessPaid {
		return fmt.Errorf("QUIZ_ACCESS_MODE must be 'open' or 'paid', got %q", c.Access.Mode)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("QUIZ_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("QUIZ_LOG_LEVEL: %w", err)
	}

	return nil
}

// SessionLifetime is the lifetime of the sign-in cookie.
func (a AuthConfig) SessionLifetime() time.Duration {
	return time.Duration(a.SessionTTL) * 24 * time.Hour
}

// SessionStoreTTL is the idle lifetime of a worksheet session in Redis.
func (c CacheConfig) SessionStoreTTL() time.Duration {
	return time.Duration(c.SessionTTL) * time.Minute
}

// QuestionCacheTTL is how long fetched question sets stay cached.
func (c CacheConfig) QuestionCacheTTL() time.Duration {
	return time.Duration(c.QuestionTTL) * time.Minute
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
