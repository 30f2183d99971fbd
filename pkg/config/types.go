// Package config provides configuration loading and validation for driverlog.
package config

import (
	"time"

	"github.com/ccollicutt/driverlog/pkg/parser"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogLevel sets diagnostic logging verbosity (trace, debug, info,
	// warn, error). Log parsing itself never logs.
	LogLevel string `yaml:"log_level,omitempty"`

	Parse    ParseConfig     `yaml:"parse,omitempty"`
	Output   OutputConfig    `yaml:"output,omitempty"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
	Server   ServerConfig    `yaml:"server,omitempty"`
}

// ParseConfig controls dialect detection and file loading.
type ParseConfig struct {
	// Dialect forces a dialect instead of auto-detection: auto,
	// chromedriver, transcript, webplatform, or protocolmonitor.
	Dialect string `yaml:"dialect,omitempty"`

	// SampleLines is how many leading lines the detector inspects.
	SampleLines int `yaml:"sample_lines,omitempty"`

	// MaxFileSize caps how many bytes of a log file are loaded,
	// measured after decompression.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`

	// forcedDialect is the validated dialect override (populated during
	// validation when Dialect is set and not "auto").
	forcedDialect parser.Dialect
}

// ForcedDialect returns the validated dialect override, if any.
func (p *ParseConfig) ForcedDialect() (parser.Dialect, bool) {
	return p.forcedDialect, p.forcedDialect != ""
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	// Format selects the report formatter: text or json.
	Format string `yaml:"format,omitempty"`

	// File writes the report there instead of stdout.
	File string `yaml:"file,omitempty"`
}

// WebhookTrigger determines when the webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnCommands fires only when the report contains
	// command entries (default).
	WebhookTriggerOnCommands WebhookTrigger = "on_commands"
	// WebhookTriggerAlways fires after every parse.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for delivering parse reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication. Supports
	// ${VAR} environment expansion.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_commands" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	// Listen is the address the server binds, e.g. ":8484".
	Listen string `yaml:"listen,omitempty"`

	// MaxBodyBytes caps accepted request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty"`
}
