package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	config.SetViperDefaults(v)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAppName, cfg.App.Name)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, config.DefaultServerAddress, cfg.Server.Address)
	assert.Equal(t, config.DefaultFetchTimeout, cfg.Fetcher.Timeout)
	assert.True(t, cfg.Fetcher.RespectRobotsTxt)
	assert.Equal(t, config.DefaultJobSchedule, cfg.Jobs.Schedule)
	assert.Empty(t, cfg.Platforms.Disabled)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  environment: development
logger:
  level: debug
  encoding: console
server:
  address: "127.0.0.1:9090"
fetcher:
  timeout: 5s
  rate_limit: 2.5
jobs:
  schedule: "*/10 * * * *"
  batch_size: 25
platforms:
  profile_dir: ./profiles
  disabled: [legacy]
`), 0o600))

	v := viper.New()
	config.SetViperDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "console", cfg.Logger.Encoding)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Fetcher.Timeout)
	assert.InDelta(t, 2.5, cfg.Fetcher.RateLimit, 1e-9)
	assert.Equal(t, 25, cfg.Jobs.BatchSize)
	assert.Equal(t, "./profiles", cfg.Platforms.ProfileDir)
	assert.Equal(t, []string{"legacy"}, cfg.Platforms.Disabled)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value any
		field string
	}{
		{name: "log level", key: "logger.level", value: "verbose", field: "logger.level"},
		{name: "server address", key: "server.address", value: "nope", field: "server.address"},
		{name: "database port", key: "database.port", value: "99999", field: "database.port"},
		{name: "cron schedule", key: "jobs.schedule", value: "every tuesday", field: "jobs.schedule"},
		{name: "negative rate", key: "fetcher.rate_limit", value: -1.0, field: "fetcher.rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := viper.New()
			config.SetViperDefaults(v)
			v.Set(tt.key, tt.value)

			_, err := config.Load(v)
			require.ErrorIs(t, err, config.ErrConfigValidationFailed)

			var ve *config.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	c := config.DatabaseConfig{
		Host: "db", Port: "5432", User: "permits", Password: "p@ss", DBName: "records", SSLMode: "disable",
	}

	assert.Equal(t, "postgres://permits:p%40ss@db:5432/records?sslmode=disable", c.DSN())
}
