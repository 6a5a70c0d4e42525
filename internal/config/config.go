// Package config provides configuration management for permit-scraper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
)

// Config is the root configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    logger.Config   `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// FetcherConfig configures page fetching.
type FetcherConfig struct {
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxBodySize      int           `mapstructure:"max_body_size"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt"`
	// RateLimit is the maximum number of fetches per second; Burst the bucket size.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// JobsConfig configures the scrape job processor.
type JobsConfig struct {
	Schedule    string `mapstructure:"schedule"`
	BatchSize   int    `mapstructure:"batch_size"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

// PlatformsConfig configures which platform plugins are registered.
type PlatformsConfig struct {
	// ProfileDir holds extra *.yaml platform profiles loaded after the built-ins.
	ProfileDir string `mapstructure:"profile_dir"`
	// Disabled lists plugin names to skip.
	Disabled []string `mapstructure:"disabled"`
}

// Load unmarshals v into a Config, applies defaults and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParseFailed, err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
	}

	return &cfg, nil
}

// SetDefaults fills unset fields in every section.
func (c *Config) SetDefaults() {
	c.App.SetDefaults()
	c.Logger.SetDefaults()
	c.Server.SetDefaults()
	c.Database.SetDefaults()
	c.Fetcher.SetDefaults()
	c.Jobs.SetDefaults()
}

// Validate validates every section and joins the failures.
func (c *Config) Validate() error {
	return errors.Join(
		validateLogger(&c.Logger),
		c.Server.Validate(),
		c.Database.Validate(),
		c.Fetcher.Validate(),
		c.Jobs.Validate(),
	)
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
