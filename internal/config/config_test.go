package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/caridad.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.EnforceActivityCapacity)
	assert.False(t, cfg.SecureCookies)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://localhost:8080/auth/google/callback", cfg.GoogleCallbackURL)
	assert.False(t, cfg.GoogleEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("ENFORCE_ACTIVITY_CAPACITY", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.EnforceActivityCapacity)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:9090/auth/google/callback", cfg.GoogleCallbackURL)
	assert.True(t, cfg.GoogleEnabled())
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_NAME=Secretaría\n"), 0o600))
	// Register cleanup for the variable godotenv is about to set.
	t.Setenv("ADMIN_NAME", "")
	require.NoError(t, os.Unsetenv("ADMIN_NAME"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Secretaría", cfg.AdminName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port: 8080, DBPath: "x.db", JWTSecret: testSecret, TokenTTL: time.Hour,
			LogLevel: "info", LogFormat: "json",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"no db path", func(c *Config) { c.DBPath = "" }},
		{"negative ttl", func(c *Config) { c.TokenTTL = -time.Minute }},
		{"admin email without password", func(c *Config) { c.AdminEmail = "a@unsta.edu.ar" }},
		{"unknown level", func(c *Config) { c.LogLevel = "trace" }},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}
