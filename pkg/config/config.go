package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/driverlog/pkg/parser"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and resolves the dialect
// override.
func Validate(cfg *Config) error {
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if err := validateParse(&cfg.Parse); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	return nil
}

func validateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
		return nil
	}
	return fmt.Errorf("invalid level %q (must be trace, debug, info, warn, error, fatal, or panic)", level)
}

func validateParse(p *ParseConfig) error {
	p.forcedDialect = ""
	if p.Dialect != "" && !strings.EqualFold(p.Dialect, "auto") {
		d, err := parser.ParseDialect(p.Dialect)
		if err != nil {
			return fmt.Errorf("dialect: %w", err)
		}
		p.forcedDialect = d
	}

	if p.SampleLines < 0 {
		return errors.New("sample_lines must be >= 0")
	}
	if p.SampleLines == 0 {
		p.SampleLines = DefaultSampleLines
	}

	if p.MaxFileSize < 0 {
		return errors.New("max_file_size must be >= 0")
	}
	if p.MaxFileSize == 0 {
		p.MaxFileSize = DefaultMaxFileSize
	}

	return nil
}

func validateOutput(o *OutputConfig) error {
	switch o.Format {
	case "":
		o.Format = DefaultOutputFormat
	case "text", "json":
		// Valid
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", o.Format)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnCommands, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_commands, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnCommands
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

func validateServer(s *ServerConfig) error {
	if s.Listen == "" {
		s.Listen = DefaultListen
	}
	if !strings.Contains(s.Listen, ":") {
		return fmt.Errorf("invalid listen address %q (expected host:port or :port)", s.Listen)
	}

	if s.MaxBodyBytes < 0 {
		return errors.New("max_body_bytes must be >= 0")
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
