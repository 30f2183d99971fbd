// Package detector selects which log dialect a raw text belongs to.
package detector

import (
	"strings"

	"github.com/ccollicutt/driverlog/pkg/parser"
)

// Result holds a detection outcome.
type Result struct {
	Dialect  parser.Dialect // Selected dialect
	Rule     string         // Name of the rule that fired
	Marker   string         // Marker that matched, if any
	Fallback bool           // True when no rule matched and the default applied
}

// RuleEval records one rule's outcome during Explain.
type RuleEval struct {
	Rule    string
	Dialect parser.Dialect
	Matched bool
	Marker  string // marker that hit, when matched
	Line    int    // 1-based line of the first hit, 0 otherwise
}

// Detector picks exactly one dialect parser for a raw log text.
type Detector struct {
	rules       []DialectRule
	sampleLines int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleLines sets how many leading lines the line-scan rules inspect
// (default 50).
func WithSampleLines(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleLines = n
		}
	}
}

// New creates a Detector with the default rules.
func New(opts ...Option) *Detector {
	d := &Detector{
		rules:       DefaultRules(),
		sampleLines: 50,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs the ordered dialect heuristics over text: the structural
// protocol-monitor check first, then the line-scan rules loosest-last.
// Detection never fails; the ChromeDriver dialect is the fallback, its
// parser degrading most gracefully on arbitrary input.
func (d *Detector) Detect(text string) Result {
	if isMonitorDump(text) {
		return Result{Dialect: parser.DialectProtocolMonitor, Rule: monitorRuleName}
	}

	window := headLines(text, d.sampleLines)
	for _, r := range d.rules {
		if marker, _, ok := scanWindow(window, r.Markers); ok {
			return Result{Dialect: r.Dialect, Rule: r.Name, Marker: marker}
		}
	}
	return Result{Dialect: parser.DialectChromeDriver, Rule: "default", Fallback: true}
}

// ParseText detects the dialect of text and runs the selected parser.
func (d *Detector) ParseText(text string) ([]*parser.LogEntry, Result) {
	res := d.Detect(text)
	return parser.New(res.Dialect).Parse(text), res
}

// Explain evaluates every rule over text, regardless of which would fire
// first, for diagnostics.
func (d *Detector) Explain(text string) []RuleEval {
	evals := []RuleEval{{
		Rule:    monitorRuleName,
		Dialect: parser.DialectProtocolMonitor,
		Matched: isMonitorDump(text),
	}}

	window := headLines(text, d.sampleLines)
	for _, r := range d.rules {
		ev := RuleEval{Rule: r.Name, Dialect: r.Dialect}
		if marker, line, ok := scanWindow(window, r.Markers); ok {
			ev.Matched = true
			ev.Marker = marker
			ev.Line = line
		}
		evals = append(evals, ev)
	}
	return evals
}

// isMonitorDump checks for a protocol-monitor export: a leading [ that is
// not a timestamp bracket (no digit follows) plus a "method" token anywhere
// in the text.
func isMonitorDump(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || trimmed[0] != '[' {
		return false
	}
	if trimmed[1] >= '0' && trimmed[1] <= '9' {
		return false
	}
	return strings.Contains(text, `"method"`)
}

// scanWindow searches the window for the first line containing any marker.
func scanWindow(window []string, markers []string) (marker string, line int, ok bool) {
	for i, l := range window {
		for _, m := range markers {
			if strings.Contains(l, m) {
				return m, i + 1, true
			}
		}
	}
	return "", 0, false
}

// headLines returns up to n leading lines without splitting the whole text.
func headLines(text string, n int) []string {
	var lines []string
	for len(text) > 0 && len(lines) < n {
		line, rest, found := strings.Cut(text, "\n")
		lines = append(lines, line)
		if !found {
			break
		}
		text = rest
	}
	return lines
}
