package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "institute_crm", cfg.Database.Name)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, time.Minute, cfg.Reports.CacheTTL)
	assert.Equal(t, 10, cfg.Reports.TopUpdatersLimit)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("REPORT_CACHE_TTL", "90s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "  Owner@Example.com ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Reports.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "owner@example.com", cfg.Bootstrap.AdminEmail)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("not-a-duration", time.Hour))
	assert.Equal(t, 5*time.Minute, parseDuration("5m", time.Hour))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
