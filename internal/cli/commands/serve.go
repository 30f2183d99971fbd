package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/driverlog/internal/logging"
	"github.com/ccollicutt/driverlog/internal/server"
	"github.com/ccollicutt/driverlog/pkg/detector"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	ConfigPath string
	Listen     string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the parse HTTP API",
		Long: `Run an HTTP server exposing dialect detection and log parsing.

Endpoints:
  GET  /api/v1/health   Liveness and version
  POST /api/v1/detect   Detect the dialect of the posted log text
  POST /api/v1/parse    Parse the posted log text into a full report

Bodies may be gzip-encoded (Content-Encoding: gzip). JSON requests carry
a {"name": ..., "content": ...} envelope. The server shuts down
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVarP(&opts.Listen, "listen", "l", "", "Listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)

	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	det := detector.New(detector.WithSampleLines(cfg.Parse.SampleLines))
	srv := server.New(cfg.Server, det, Version)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
