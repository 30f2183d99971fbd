package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "driverlog.yaml"

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [config-file]",
		Short: "Write a starter configuration file",
		Long: `Write a commented starter configuration file.

The file documents every setting with its default. Existing files are
never overwritten.

Example:
  driverlog init
  driverlog init myproject.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			return runInit(path)
		},
	}
}

func runInit(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Wrote starter config to: %s\n", configPath)
	return nil
}

const starterConfig = `# driverlog Configuration
# Generated by: driverlog init

# Diagnostic logging verbosity: trace, debug, info, warn, error.
# Parse reports themselves are never logged.
log_level: info

parse:
  # Force a dialect instead of auto-detection:
  # auto, chromedriver, transcript, webplatform, protocolmonitor
  dialect: auto

  # How many leading lines the detector inspects.
  sample_lines: 50

  # Largest accepted log file, in bytes, measured after decompression.
  max_file_size: 134217728

output:
  # Report format: text or json.
  format: text

  # Write reports to a file instead of stdout:
  # file: report.json

# Deliver parse reports to HTTP endpoints:
# webhooks:
#   - name: ci-collector
#     url: https://ci.example.com/hooks/driverlog
#     token: ${DRIVERLOG_WEBHOOK_TOKEN}
#     # Fire on_commands (default), always, or never.
#     trigger: on_commands
#     timeout: 10s

server:
  # Address for driverlog serve.
  listen: ":8484"

  # Largest accepted request body, in bytes.
  max_body_bytes: 33554432
`
