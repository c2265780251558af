package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Jobs.Concurrency)
	assert.Equal(t, 7, cfg.Jobs.AlertHorizonDays)
	assert.Equal(t, 60, cfg.Forecast.Tiers["free"])
	assert.Equal(t, 365, cfg.Forecast.Tiers["pro"])
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	// GIVEN: A YAML file that only sets some fields
	path := filepath.Join(t.TempDir(), "cashflow.yaml")
	yml := `
server:
  port: 9090
database:
  driver: postgres
  dsn: postgres://localhost/cashflow?sslmode=disable
forecast:
  default_safety_buffer: "250.00"
  tiers:
    free: 30
    pro: 365
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	// WHEN: Loading it
	cfg, err := Load(path)
	require.NoError(t, err)

	// THEN: File values win, untouched sections keep their defaults
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30, cfg.Forecast.Tiers["free"])
	assert.Equal(t, "250", cfg.Forecast.SafetyBuffer().String())
	assert.Equal(t, "0 7 * * *", cfg.Jobs.AlertSchedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("CASHFLOW_DB_DSN", "file:test.db")
	t.Setenv("CASHFLOW_WORKERS", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, 2, cfg.Jobs.Concurrency)

	t.Setenv("PORT", "eighty")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Jobs.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Forecast.DefaultSafetyBuffer = "plenty"
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Server.Port = 8181
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, loaded.Server.Port)
}

func TestTiers_HorizonFor(t *testing.T) {
	tiers := Default().Forecast.Tiers

	assert.Equal(t, 60, tiers.HorizonFor("free", 0))
	assert.Equal(t, 60, tiers.HorizonFor("free", 365))
	assert.Equal(t, 14, tiers.HorizonFor("free", 14))
	assert.Equal(t, 365, tiers.HorizonFor("PRO", 400))
	assert.Equal(t, 90, tiers.HorizonFor("pro", 90))
	assert.Equal(t, 60, tiers.HorizonFor("enterprise", 90))
	assert.Equal(t, DefaultFreeHorizon, Tiers{}.HorizonFor("free", 0))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "debug", Format: "json"}.newLogger(&buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("profile", "p1").Info("forecast built")
	assert.Contains(t, buf.String(), `"profile":"p1"`)

	fallback := LogConfig{Level: "loud"}.newLogger(&buf)
	assert.Equal(t, logrus.InfoLevel, fallback.GetLevel())
}
