package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/driverlog/pkg/detector"
	"github.com/ccollicutt/driverlog/pkg/logfile"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleLines int
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>...",
		Short: "Detect the dialect of log files",
		Long: `Identify which log dialect each file uses without parsing it.

Dialects:
  chromedriver     ChromeDriver verbose logs (--verbose / --log-path)
  transcript       Client-side transcripts with SEND/RECV sentinels
  webplatform      web-platform-tests BiDi debug output
  protocolmonitor  DevTools protocol monitor JSON exports

Example:
  driverlog detect chromedriver.log
  driverlog detect --output json run-*.log`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleLines, "sample", "n", 0, "Number of leading lines to inspect (default 50)")

	return cmd
}

// DetectFileResult is one file's detection outcome in JSON output.
type DetectFileResult struct {
	File     string `json:"file"`
	Dialect  string `json:"dialect"`
	Rule     string `json:"rule"`
	Marker   string `json:"marker,omitempty"`
	Fallback bool   `json:"fallback"`
}

func runDetect(args []string, opts *DetectOptions) error {
	files, err := logfile.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding patterns: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched patterns: %v", args)
	}

	var detOpts []detector.Option
	if opts.SampleLines > 0 {
		detOpts = append(detOpts, detector.WithSampleLines(opts.SampleLines))
	}
	d := detector.New(detOpts...)

	results := make([]DetectFileResult, 0, len(files))
	for _, file := range files {
		text, err := logfile.Read(file, logfile.DefaultMaxSize)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		res := d.Detect(text)
		results = append(results, DetectFileResult{
			File:     file,
			Dialect:  string(res.Dialect),
			Rule:     res.Rule,
			Marker:   res.Marker,
			Fallback: res.Fallback,
		})
	}

	switch opts.Output {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	default:
		for _, r := range results {
			line := fmt.Sprintf("%s: %s (rule: %s", r.File, r.Dialect, r.Rule)
			if r.Marker != "" {
				line += fmt.Sprintf(", marker: %q", r.Marker)
			}
			line += ")"
			if r.Fallback {
				line += " [fallback]"
			}
			fmt.Println(line)
		}
		return nil
	}
}
