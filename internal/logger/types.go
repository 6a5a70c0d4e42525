package logger

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error, fatal).
	Level string `mapstructure:"level"`
	// Encoding is "json" or "console".
	Encoding string `mapstructure:"encoding"`
	// Development enables development mode (no sampling, DPanic panics).
	Development bool `mapstructure:"development"`
	// OutputPaths lists the sinks log output is written to.
	OutputPaths []string `mapstructure:"output_paths"`
	// Service is added as a "service" field to every entry.
	Service string `mapstructure:"-"`
}

// Default configuration values.
const (
	DefaultLevel    = "info"
	DefaultEncoding = "json"
)

// DefaultOutputPaths is the default list of log sinks.
var DefaultOutputPaths = []string{"stdout"}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = DefaultOutputPaths
	}
}
