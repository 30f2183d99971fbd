package parser

import (
	"fmt"
	"strings"
)

// Parser is the contract shared by all dialect parsers. Parse never fails:
// text with no recognizable framing yields an empty sequence, malformed
// fragments degrade to entries without payloads.
type Parser interface {
	// Parse consumes one log text and returns the finished entry
	// sequence, correlated and lane-assigned.
	Parse(text string) []*LogEntry
}

// Dialect identifies one of the recognized log formats.
type Dialect string

const (
	DialectChromeDriver    Dialect = "chromedriver"
	DialectTranscript      Dialect = "transcript"
	DialectWebPlatform     Dialect = "webplatform"
	DialectProtocolMonitor Dialect = "protocolmonitor"
)

// Dialects returns all recognized dialects in detection-precedence order.
func Dialects() []Dialect {
	return []Dialect{
		DialectProtocolMonitor,
		DialectTranscript,
		DialectWebPlatform,
		DialectChromeDriver,
	}
}

// ParseDialect maps a user-supplied name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(name)))
	switch d {
	case DialectChromeDriver, DialectTranscript, DialectWebPlatform, DialectProtocolMonitor:
		return d, nil
	}
	return "", fmt.Errorf("unknown dialect %q (valid: chromedriver, transcript, webplatform, protocolmonitor)", name)
}

// New returns the parser for the given dialect. Unknown dialects fall back
// to the ChromeDriver parser, which tolerates arbitrary input most
// gracefully.
func New(d Dialect) Parser {
	switch d {
	case DialectTranscript:
		return NewTranscriptParser()
	case DialectWebPlatform:
		return NewWebPlatformParser()
	case DialectProtocolMonitor:
		return NewProtocolMonitorParser()
	default:
		return NewChromeDriverParser()
	}
}
