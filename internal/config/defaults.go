package config

import (
	"time"

	"github.com/spf13/viper"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default configuration values.
const (
	DefaultAppName = "permit-scraper"

	DefaultServerAddress      = ":8080"
	DefaultServerReadTimeout  = 15 * time.Second
	DefaultServerWriteTimeout = 60 * time.Second
	DefaultServerIdleTimeout  = 90 * time.Second

	DefaultDBHost            = "localhost"
	DefaultDBPort            = "5432"
	DefaultDBUser            = "postgres"
	DefaultDBName            = "permit_scraper"
	DefaultDBSSLMode         = "disable"
	DefaultDBMaxOpenConns    = 10
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 5 * time.Minute

	DefaultUserAgent      = "permit-scraper/1.0 (+https://github.com/jonesrussell/north-cloud)"
	DefaultFetchTimeout   = 30 * time.Second
	DefaultMaxBodySize    = 10 * 1024 * 1024
	DefaultFetchRateLimit = 1.0
	DefaultFetchBurst     = 1

	DefaultJobSchedule    = "@every 5m"
	DefaultJobBatchSize   = 10
	DefaultJobMaxAttempts = 3
)

// SetViperDefaults registers the defaults on v so they show up in
// v.AllSettings and can be overridden by file or environment.
func SetViperDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"app.name":        DefaultAppName,
		"app.environment": EnvProduction,
		"app.debug":       false,

		"logger.level":    "info",
		"logger.encoding": "json",

		"server.address":       DefaultServerAddress,
		"server.read_timeout":  DefaultServerReadTimeout,
		"server.write_timeout": DefaultServerWriteTimeout,
		"server.idle_timeout":  DefaultServerIdleTimeout,

		"database.host":              DefaultDBHost,
		"database.port":              DefaultDBPort,
		"database.user":              DefaultDBUser,
		"database.password":          "",
		"database.dbname":            DefaultDBName,
		"database.sslmode":           DefaultDBSSLMode,
		"database.max_open_conns":    DefaultDBMaxOpenConns,
		"database.max_idle_conns":    DefaultDBMaxIdleConns,
		"database.conn_max_lifetime": DefaultDBConnMaxLifetime,

		"fetcher.user_agent":         DefaultUserAgent,
		"fetcher.timeout":            DefaultFetchTimeout,
		"fetcher.max_body_size":      DefaultMaxBodySize,
		"fetcher.respect_robots_txt": true,
		"fetcher.rate_limit":         DefaultFetchRateLimit,
		"fetcher.burst":              DefaultFetchBurst,

		"jobs.schedule":     DefaultJobSchedule,
		"jobs.batch_size":   DefaultJobBatchSize,
		"jobs.max_attempts": DefaultJobMaxAttempts,

		"platforms.profile_dir": "",
		"platforms.disabled":    []string{},
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// SetDefaults fills unset app fields.
func (c *AppConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = DefaultAppName
	}
	if c.Environment == "" {
		c.Environment = EnvProduction
	}
}

// SetDefaults fills unset server fields.
func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = DefaultServerAddress
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultServerReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultServerIdleTimeout
	}
}

// SetDefaults fills unset database fields.
func (c *DatabaseConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = DefaultDBHost
	}
	if c.Port == "" {
		c.Port = DefaultDBPort
	}
	if c.User == "" {
		c.User = DefaultDBUser
	}
	if c.DBName == "" {
		c.DBName = DefaultDBName
	}
	if c.SSLMode == "" {
		c.SSLMode = DefaultDBSSLMode
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = DefaultDBMaxOpenConns
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = DefaultDBMaxIdleConns
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = DefaultDBConnMaxLifetime
	}
}

// SetDefaults fills unset fetcher fields.
func (c *FetcherConfig) SetDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultFetchTimeout
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultFetchRateLimit
	}
	if c.Burst == 0 {
		c.Burst = DefaultFetchBurst
	}
}

// SetDefaults fills unset job fields.
func (c *JobsConfig) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = DefaultJobSchedule
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultJobBatchSize
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultJobMaxAttempts
	}
}
