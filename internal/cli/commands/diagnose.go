package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/driverlog/pkg/detector"
	"github.com/ccollicutt/driverlog/pkg/logfile"
	"github.com/ccollicutt/driverlog/pkg/output"
	"github.com/ccollicutt/driverlog/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
	Dialect string
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Diagnose dialect detection and correlation for a log file",
		Long: `Diagnose how a log file is detected, parsed, and correlated.

This command traces every detection rule against the file and reports:
- File existence and accessibility
- Which dialect rule fired (and which did not)
- Entry, command, and response counts
- Correlation coverage and orphaned entries
- Timestamp coverage and waterfall lane depth

Example:
  driverlog diagnose chromedriver.log
  driverlog diagnose -v session.log  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")
	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "Force a dialect instead of auto-detection")

	return cmd
}

func runDiagnose(logPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check log file existence
	result := checkLogFile(logPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(results, opts)
		return nil
	}

	text, err := logfile.Read(logPath, logfile.DefaultMaxSize)
	if err != nil {
		results = append(results, DiagnosticResult{
			Check:    "Log File Read",
			Status:   "error",
			Message:  fmt.Sprintf("Cannot read file: %v", err),
			Suggests: []string{"Check file permissions and compression integrity"},
		})
		printDiagnostics(results, opts)
		return nil
	}

	// 2. Trace dialect detection
	d := detector.New()
	entries, detection, detResults := checkDetection(d, text, opts)
	results = append(results, detResults...)

	// 3. Check parse results
	report := output.NewReport(logPath, detection.Dialect, detection.Rule, entries)
	results = append(results, checkEntries(report)...)

	// 4. Check correlation coverage
	results = append(results, checkCorrelation(report)...)

	// 5. Check timestamp coverage and lane depth
	results = append(results, checkTimeline(report)...)

	printDiagnostics(results, opts)
	return nil
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Log file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access log file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Log file is empty"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

// checkDetection traces every detection rule against the text and parses
// with the selected (or forced) dialect.
func checkDetection(d *detector.Detector, text string, opts *DiagnoseOptions) ([]*parser.LogEntry, detector.Result, []DiagnosticResult) {
	results := []DiagnosticResult{}

	trace := d.Explain(text)
	traceLines := make([]string, 0, len(trace))
	for _, ev := range trace {
		if !ev.Matched {
			traceLines = append(traceLines, fmt.Sprintf("%s (%s): no match", ev.Rule, ev.Dialect))
			continue
		}
		line := fmt.Sprintf("%s (%s): matched", ev.Rule, ev.Dialect)
		if ev.Marker != "" {
			line += fmt.Sprintf(" %q", ev.Marker)
		}
		if ev.Line > 0 {
			line += fmt.Sprintf(" at line %d", ev.Line)
		}
		traceLines = append(traceLines, line)
	}

	var (
		detection detector.Result
		entries   []*parser.LogEntry
	)

	result := DiagnosticResult{
		Check:   "Dialect Detection",
		Details: traceLines,
	}

	if opts.Dialect != "" {
		forced, err := parser.ParseDialect(opts.Dialect)
		if err != nil {
			result.Status = "error"
			result.Message = err.Error()
			return nil, detection, append(results, result)
		}
		detection = detector.Result{Dialect: forced, Rule: "forced"}
		entries = parser.New(forced).Parse(text)
		result.Status = "ok"
		result.Message = fmt.Sprintf("Forced dialect: %s", forced)
	} else {
		detection = d.Detect(text)
		entries = parser.New(detection.Dialect).Parse(text)
		if detection.Fallback {
			result.Status = "warning"
			result.Message = fmt.Sprintf("No rule matched; defaulting to %s", detection.Dialect)
			result.Suggests = []string{
				"The file may not be a browser automation log",
				"Force a dialect with --dialect if detection picks wrong",
			}
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Detected: %s (rule: %s)", detection.Dialect, detection.Rule)
		}
	}

	return entries, detection, append(results, result)
}

func checkEntries(report *output.Report) []DiagnosticResult {
	result := DiagnosticResult{
		Check: "Parsed Entries",
	}

	s := report.Summary
	if s.TotalEntries == 0 {
		result.Status = "warning"
		result.Message = "No entries parsed"
		result.Suggests = []string{
			"The dialect may be wrong for this file",
			"Try forcing another dialect with --dialect",
		}
		return []DiagnosticResult{result}
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d entries", s.TotalEntries)
	result.Details = []string{
		fmt.Sprintf("Commands: %d", s.Commands),
		fmt.Sprintf("Responses: %d", s.Responses),
		fmt.Sprintf("Events: %d", s.Events),
	}
	return []DiagnosticResult{result}
}

func checkCorrelation(report *output.Report) []DiagnosticResult {
	result := DiagnosticResult{
		Check: "Correlation",
	}

	s := report.Summary
	pairable := s.Commands + s.Responses
	if pairable == 0 {
		result.Status = "warning"
		result.Message = "No commands or responses to correlate"
		return []DiagnosticResult{result}
	}

	result.Details = []string{
		fmt.Sprintf("Correlated: %d", s.Correlated),
		fmt.Sprintf("Orphans: %d", s.Orphans),
	}

	if s.Orphans > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d of %d entries uncorrelated", s.Orphans, pairable)
		result.Suggests = []string{
			"The log may be truncated mid-session",
			"Responses before their commands cannot be paired",
		}
	} else {
		result.Status = "ok"
		result.Message = fmt.Sprintf("All %d commands and responses paired", pairable)
	}
	return []DiagnosticResult{result}
}

func checkTimeline(report *output.Report) []DiagnosticResult {
	results := []DiagnosticResult{}

	stamped := 0
	for _, e := range report.Entries {
		if e.Timestamp != "" {
			stamped++
		}
	}

	tsResult := DiagnosticResult{
		Check: "Timestamps",
	}
	switch {
	case len(report.Entries) == 0:
		tsResult.Status = "warning"
		tsResult.Message = "No entries to inspect"
	case stamped == 0:
		tsResult.Status = "warning"
		tsResult.Message = "No entries carry timestamps"
		tsResult.Suggests = []string{
			"Waterfall duration rendering needs timestamps",
		}
	default:
		tsResult.Status = "ok"
		tsResult.Message = fmt.Sprintf("%d/%d entries carry timestamps", stamped, len(report.Entries))
	}
	results = append(results, tsResult)

	laneResult := DiagnosticResult{
		Check:  "Waterfall Lanes",
		Status: "ok",
		Message: fmt.Sprintf("%d concurrent lane(s) at peak",
			report.Summary.MaxLanes),
	}
	results = append(results, laneResult)

	return results
}

func printDiagnostics(results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Println("=== driverlog Log Diagnostics ===")
	fmt.Println()

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		// Status icon
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Printf("[%s] %s\n", icon, r.Check)
		fmt.Printf("    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Printf("      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Printf("      Hint: %s\n", s)
		}

		fmt.Println()
	}

	// Summary
	fmt.Println("---")
	fmt.Printf("Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Println("\nFix the errors above before parsing.")
	} else if warnCount > 0 {
		fmt.Println("\nThe file parses but has warnings.")
	} else {
		fmt.Println("\nLog file looks good!")
	}
}
