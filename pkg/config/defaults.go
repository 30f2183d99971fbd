package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultLogLevel       = "info"
	DefaultOutputFormat   = "text"
	DefaultSampleLines    = 50
	DefaultMaxFileSize    = int64(128 << 20)
	DefaultWebhookTimeout = 10 * time.Second
	DefaultListen         = ":8484"
	DefaultMaxBodyBytes   = int64(32 << 20)
)

// Environment variable names.
const (
	EnvLogLevel = "DRIVERLOG_LOG_LEVEL"
	EnvListen   = "DRIVERLOG_LISTEN"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Parse: ParseConfig{
			Dialect:     "auto",
			SampleLines: DefaultSampleLines,
			MaxFileSize: DefaultMaxFileSize,
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		Server: ServerConfig{
			Listen:       DefaultListen,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides.
func (c *Config) applyEnvironmentOverrides() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if listen := os.Getenv(EnvListen); listen != "" {
		c.Server.Listen = listen
	}
}
