package output

import (
	"context"
	"fmt"
	"io"

	"github.com/ccollicutt/driverlog/pkg/parser"
)

// TextFormatter formats reports as human-readable text with a lane column
// sketching the command/response waterfall.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "driverlog: %s: %d entries, %d commands, %d responses, %d correlated, %d orphans\n",
		report.Source,
		report.Summary.TotalEntries,
		report.Summary.Commands,
		report.Summary.Responses,
		report.Summary.Correlated,
		report.Summary.Orphans)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== driverlog Parse Report ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Source:  %s\n", report.Source)
	if report.DetectionRule != "" {
		fmt.Fprintf(w, "Dialect: %s (%s)\n", report.Dialect, report.DetectionRule)
	} else {
		fmt.Fprintf(w, "Dialect: %s\n", report.Dialect)
	}
	fmt.Fprintln(w)

	width := report.Summary.MaxLanes
	for _, e := range report.Entries {
		// without --verbose only protocol traffic rows are shown
		if !f.opts.Verbose && !e.IsCommand && !e.IsResponse {
			continue
		}
		f.formatEntry(e, width, w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d entries (%d commands, %d responses, %d events), %d correlated, %d orphans, peak %d lane(s)\n",
		report.Summary.TotalEntries,
		report.Summary.Commands,
		report.Summary.Responses,
		report.Summary.Events,
		report.Summary.Correlated,
		report.Summary.Orphans,
		report.Summary.MaxLanes)

	if f.opts.Verbose {
		if len(report.Summary.TargetIDs) > 0 {
			fmt.Fprintf(w, "Targets:  %v\n", report.Summary.TargetIDs)
		}
		if len(report.Summary.SessionIDs) > 0 {
			fmt.Fprintf(w, "Sessions: %v\n", report.Summary.SessionIDs)
		}
	}

	return nil
}

func (f *TextFormatter) formatEntry(e *parser.LogEntry, width int, w io.Writer) {
	kind := "event"
	switch {
	case e.IsCommand:
		kind = "command"
	case e.IsResponse:
		kind = "response"
	}

	ts := e.Timestamp
	if ts == "" {
		ts = "-"
	}

	fmt.Fprintf(w, "%5d  %s  %-26s %-8s %s\n",
		e.ID, laneGlyphs(e, width), ts, kind, e.Message)
}

// laneGlyphs draws the row's lane occupancy: '+' opens a lane, 'x' closes
// one, '|' carries an open lane through, ' ' is free.
func laneGlyphs(e *parser.LogEntry, width int) string {
	if width == 0 {
		return ""
	}
	g := make([]byte, width)
	for i := range g {
		g[i] = ' '
	}
	lc := e.LaneConfig
	if lc == nil {
		return string(g)
	}
	for _, lane := range lc.ActiveLanes {
		if lane < width {
			g[lane] = '|'
		}
	}
	if lc.StartLane != nil && *lc.StartLane < width {
		g[*lc.StartLane] = '+'
	}
	if lc.EndLane != nil && *lc.EndLane < width {
		g[*lc.EndLane] = 'x'
	}
	return string(g)
}
