package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
)

// Common configuration errors.
var (
	// ErrConfigParseFailed is returned when decoding the configuration fails.
	ErrConfigParseFailed = errors.New("failed to parse configuration")
	// ErrConfigValidationFailed is returned when validation fails.
	ErrConfigValidationFailed = errors.New("configuration validation failed")
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateLogger(c *logger.Config) error {
	switch c.Level {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return &ValidationError{Field: "logger.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
	switch c.Encoding {
	case "json", "console":
	default:
		return &ValidationError{Field: "logger.encoding", Message: "must be one of: json, console"}
	}
	return nil
}

// Validate checks the listen address.
func (c *ServerConfig) Validate() error {
	if _, port, err := net.SplitHostPort(c.Address); err != nil || port == "" {
		return &ValidationError{Field: "server.address", Message: "must be host:port"}
	}
	return nil
}

// Validate checks the connection settings.
func (c *DatabaseConfig) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return &ValidationError{Field: "database.port", Message: "must be between 1 and 65535"}
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return &ValidationError{Field: "database.max_idle_conns", Message: "must not exceed max_open_conns"}
	}
	return nil
}

// Validate checks the fetch limits.
func (c *FetcherConfig) Validate() error {
	if c.Timeout < 0 {
		return &ValidationError{Field: "fetcher.timeout", Message: "must not be negative"}
	}
	if c.RateLimit < 0 {
		return &ValidationError{Field: "fetcher.rate_limit", Message: "must not be negative"}
	}
	if c.Burst < 1 {
		return &ValidationError{Field: "fetcher.burst", Message: "must be at least 1"}
	}
	return nil
}

// Validate checks the cron schedule and batch size.
func (c *JobsConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return &ValidationError{Field: "jobs.schedule", Message: err.Error()}
	}
	if c.BatchSize < 1 {
		return &ValidationError{Field: "jobs.batch_size", Message: "must be at least 1"}
	}
	if c.MaxAttempts < 1 {
		return &ValidationError{Field: "jobs.max_attempts", Message: "must be at least 1"}
	}
	return nil
}
