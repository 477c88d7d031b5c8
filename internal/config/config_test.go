package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.True(t, cfg.Server.CSRFEnabled)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "fraction", cfg.Screening.RiskUnit)
	assert.False(t, cfg.Screening.RequireConsent)
	assert.Same(t, cfg, Current())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("NEUROTHRIVE_SERVER_PORT", "18000")
	t.Setenv("NEUROTHRIVE_DATABASE_DRIVER", "sqlite")
	t.Setenv("NEUROTHRIVE_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("NEUROTHRIVE_AUTH_ACCESS_TOKEN_TTL", "30m")

	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "18000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoadConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	yaml := "server:\n  port: \"9999\"\nscreening:\n  risk_unit: percent\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(root, nil)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "percent", cfg.Screening.RiskUnit)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte("server: [unclosed"), 0o644))

	_, err := Load(root, nil)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "d"}
	assert.Equal(t, "host=h user=u password=p dbname=d port=1 sslmode=disable TimeZone=UTC", d.DSN())
}
