package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/driverlog/internal/logging"
	"github.com/ccollicutt/driverlog/pkg/config"
	"github.com/ccollicutt/driverlog/pkg/detector"
	"github.com/ccollicutt/driverlog/pkg/logfile"
	"github.com/ccollicutt/driverlog/pkg/output"
	"github.com/ccollicutt/driverlog/pkg/parser"
	"github.com/ccollicutt/driverlog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	ConfigPath string
	Format     string
	OutputFile string
	Dialect    string
	Verbose    bool
	Quiet      bool
	FailOrphan bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse browser automation logs into a correlated timeline",
		Long: `Parse browser automation log files into a normalized, correlated timeline.

The dialect (chromedriver, transcript, webplatform, protocolmonitor) is
auto-detected unless forced with --dialect. Commands are paired with their
responses and assigned waterfall lanes for visualization.

Reads stdin when no files are given or a file is "-". Gzip and zstd
compressed files are decompressed transparently.

Exit codes:
  0 - Parse succeeded
  1 - Orphaned entries found (with --fail-on-orphans)
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (text|json)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Write report to file instead of stdout")
	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "Force a dialect instead of auto-detection")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show event entries and metadata, not just commands")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no entry rows")
	cmd.Flags().BoolVar(&opts.FailOrphan, "fail-on-orphans", false, "Exit 1 when any command or response is uncorrelated")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_commands", "When to fire webhook (on_commands|always|never)")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)

	// CLI dialect flag wins over config
	forced, hasForced := cfg.Parse.ForcedDialect()
	if opts.Dialect != "" && opts.Dialect != "auto" {
		d, err := parser.ParseDialect(opts.Dialect)
		if err != nil {
			return err
		}
		forced, hasForced = d, true
	}

	sources, err := resolveSources(args)
	if err != nil {
		return err
	}

	det := detector.New(detector.WithSampleLines(cfg.Parse.SampleLines))

	formatter, err := createFormatter(cfg, opts)
	if err != nil {
		return err
	}

	out, cleanup, err := openOutput(cfg, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	orphans := false
	for _, src := range sources {
		text, err := readSource(src, cfg.Parse.MaxFileSize)
		if err != nil {
			return fmt.Errorf("reading %s: %w", src, err)
		}

		var (
			entries []*parser.LogEntry
			res     detector.Result
		)
		if hasForced {
			entries = parser.New(forced).Parse(text)
			res = detector.Result{Dialect: forced, Rule: "forced"}
		} else {
			entries, res = det.ParseText(text)
		}

		report := output.NewReport(src, res.Dialect, res.Rule, entries)

		if err := formatter.Format(ctx, report, out); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}

		// Send webhooks (errors logged but don't fail the parse)
		sendWebhooks(ctx, cfg, opts, report)

		if report.HasOrphans() {
			orphans = true
		}
	}

	if opts.FailOrphan && orphans {
		ExitCode = 1
	}

	return nil
}

// loadConfig loads the given config file, or defaults when none is set.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("validating defaults: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// resolveSources expands glob arguments into file paths. No arguments or a
// lone "-" means stdin.
func resolveSources(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"-"}, nil
	}

	patterns := make([]string, 0, len(args))
	stdin := false
	for _, a := range args {
		if a == "-" {
			stdin = true
			continue
		}
		patterns = append(patterns, a)
	}

	var sources []string
	if stdin {
		sources = append(sources, "-")
	}
	if len(patterns) > 0 {
		files, err := logfile.ExpandGlobs(patterns)
		if err != nil {
			return nil, fmt.Errorf("expanding patterns: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no log files matched patterns: %v", patterns)
		}
		sources = append(sources, files...)
	}
	return sources, nil
}

// readSource loads one source, "-" meaning stdin.
func readSource(src string, maxSize int64) (string, error) {
	if src == "-" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxSize))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return logfile.Read(src, maxSize)
}

func createFormatter(cfg *config.Config, opts *ParseOptions) (output.Formatter, error) {
	name := cfg.Output.Format
	if opts.Format != "" {
		name = opts.Format
	}

	return output.New(name, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// openOutput picks the report writer: --output flag, then config file
// setting, then stdout.
func openOutput(cfg *config.Config, opts *ParseOptions) (io.Writer, func(), error) {
	path := cfg.Output.File
	if opts.OutputFile != "" {
		path = opts.OutputFile
	}
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path) // #nosec G304 -- user-provided output path is expected
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are logged to stderr but don't fail the parse.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *ParseOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.HasCommands()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			fmt.Fprintf(os.Stderr, "Webhook %s: sent (%d, %s)\n", name, resp.StatusCode, resp.Duration)
		} else {
			fmt.Fprintf(os.Stderr, "Webhook %s: failed (%v)\n", name, resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ParseOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnCommands
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

// shouldFireWebhook determines if a webhook fires for this report.
func shouldFireWebhook(trigger config.WebhookTrigger, hasCommands bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	case config.WebhookTriggerOnCommands:
		return hasCommands
	default:
		// Default to on_commands
		return hasCommands
	}
}
