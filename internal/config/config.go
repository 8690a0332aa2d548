// Package config loads runtime settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Every key has a default except the
// secrets, so a bare `go run ./cmd/server` starts a local instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// minSecretLength is the shortest JWT_SECRET accepted. HS256 keys shorter
// than the hash output weaken the signature.
const minSecretLength = 32

type Config struct {
	Port   int
	DBPath string

	JWTSecret string
	TokenTTL  time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	// EnforceActivityCapacity makes join refuse registrations once an
	// activity is full. When false the cap is informational only.
	EnforceActivityCapacity bool

	LogLevel      string
	LogFormat     string
	SecureCookies bool
}

// Load reads the configuration. envFile is loaded first when it exists; a
// missing file is not an error, real environment variables win over it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "data/caridad.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_CALLBACK_URL", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "Administrator")
	v.SetDefault("ENFORCE_ACTIVITY_CAPACITY", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("SECURE_COOKIES", false)
	v.AutomaticEnv()

	cfg := &Config{
		Port:                    v.GetInt("PORT"),
		DBPath:                  v.GetString("DB_PATH"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		TokenTTL:                v.GetDuration("TOKEN_TTL"),
		GoogleClientID:          v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:      v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:       v.GetString("GOOGLE_CALLBACK_URL"),
		AdminEmail:              strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminPassword:           v.GetString("ADMIN_PASSWORD"),
		AdminName:               v.GetString("ADMIN_NAME"),
		EnforceActivityCapacity: v.GetBool("ENFORCE_ACTIVITY_CAPACITY"),
		LogLevel:                strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:               strings.ToLower(v.GetString("LOG_FORMAT")),
		SecureCookies:           v.GetBool("SECURE_COOKIES"),
	}
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}
	return cfg, nil
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	case c.DBPath == "":
		return errors.New("config: DB_PATH is empty")
	case len(c.JWTSecret) < minSecretLength:
		return fmt.Errorf("config: JWT_SECRET must be at least %d bytes", minSecretLength)
	case c.TokenTTL <= 0:
		return errors.New("config: TOKEN_TTL must be positive")
	case (c.AdminEmail == "") != (c.AdminPassword == ""):
		return errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown LOG_LEVEL %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// GoogleEnabled reports whether the Google sign-in routes can be served.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
