package parser

import (
	"strings"

	"github.com/valyala/fastjson"
)

// WebPlatformParser handles web-platform-test bidi session logs: one JSON
// frame per prefixed line, no timestamps.
type WebPlatformParser struct{}

// NewWebPlatformParser creates a web-platform log parser.
func NewWebPlatformParser() *WebPlatformParser {
	return &WebPlatformParser{}
}

const webPlatformPrefix = "DEBUG:webdriver.bidi:"

// Parse emits one entry per line carrying the bidi prefix; other lines are
// ignored. A frame with method and id is a command, one with id and a
// result or error is a response, everything else an event.
func (p *WebPlatformParser) Parse(text string) []*LogEntry {
	var entries []*LogEntry
	jp := &fastjson.Parser{}

	for lineNo, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		i := strings.Index(line, webPlatformPrefix)
		if i < 0 {
			continue
		}
		content := strings.TrimSpace(line[i+len(webPlatformPrefix):])
		content = strings.TrimPrefix(content, "→ ")
		content = strings.TrimPrefix(content, "← ")

		e := &LogEntry{
			ID:         len(entries),
			LineNumber: lineNo + 1,
			Level:      "DEBUG",
			Message:    content,
			LogType:    LogTypeDevTools,
			Raw:        line,
		}
		if info := decodePayload(jp, content); info != nil {
			e.Payload = info.Value
			e.Method = info.Method
			if info.HasID {
				e.CommandID = info.ID
			}
			e.TargetIDs = info.TargetIDs
			e.SessionIDs = info.SessionIDs

			switch {
			case info.Method != "" && info.HasID:
				e.IsCommand = true
			case info.HasID && (info.HasResult || info.HasError):
				e.IsResponse = true
			}
		}
		mergeTags(e)
		entries = append(entries, e)
	}

	correlate(entries)
	return entries
}
