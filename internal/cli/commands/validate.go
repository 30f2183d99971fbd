package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/driverlog/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a driverlog configuration file without parsing anything.

Checks:
  - YAML syntax
  - Dialect name validity
  - Output format
  - Webhook URLs and triggers
  - Server listen address`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Validating %s...\n", configPath)

	// Load and validate config
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Report what we found
	fmt.Printf("\nConfiguration valid!\n")

	dialect := cfg.Parse.Dialect
	if dialect == "" {
		dialect = "auto"
	}
	fmt.Printf("  Dialect:       %s\n", dialect)
	fmt.Printf("  Sample lines:  %d\n", cfg.Parse.SampleLines)
	fmt.Printf("  Max file size: %d bytes\n", cfg.Parse.MaxFileSize)
	fmt.Printf("  Output format: %s\n", cfg.Output.Format)
	if cfg.Output.File != "" {
		fmt.Printf("  Output file:   %s\n", cfg.Output.File)
	}
	fmt.Printf("  Server listen: %s\n", cfg.Server.Listen)

	if len(cfg.Webhooks) > 0 {
		fmt.Printf("\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}
			fmt.Printf("  %d. %s (trigger: %s, timeout: %s)\n", i+1, name, wh.Trigger, wh.Timeout)
		}
	}

	return nil
}
