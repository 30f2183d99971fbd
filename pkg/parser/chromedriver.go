package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

// ChromeDriverParser handles chromedriver verbose logs: fixed-prefix
// timestamped lines with JSON continuation blocks, carrying DevTools
// WebSocket traffic alongside the bracket-keyword WebDriver layer.
type ChromeDriverParser struct{}

// NewChromeDriverParser creates a ChromeDriver log parser.
func NewChromeDriverParser() *ChromeDriverParser {
	return &ChromeDriverParser{}
}

const (
	devtoolsCommandMarker  = "DevTools WebSocket Command:"
	devtoolsResponseMarker = "DevTools WebSocket Response:"
	devtoolsEventMarker    = "DevTools WebSocket Event:"
)

var (
	// [01-01-2024 12:00:00.001000][DEBUG]: message
	chromeDriverLine = regexp.MustCompile(`^\[(\d{2}-\d{2}-\d{4} \d{2}:\d{2}:\d{2}\.\d{6})\]\[([A-Z]+)\]: (.*)$`)

	devtoolsMethodRe = regexp.MustCompile(`Method:\s*([A-Za-z0-9_.]+)`)
	inlineCommandID  = regexp.MustCompile(`\(id=(\d+)\)`)
	inlineSessionID  = regexp.MustCompile(`session_id=([0-9a-fA-F-]+)`)
	hexToken         = regexp.MustCompile(`\b[0-9a-fA-F]{32}\b`)

	// [226b4fe83dbc064f3a01c2f47b251d10] COMMAND Navigate; the tag is
	// optional, session-less commands print bare COMMAND/RESPONSE.
	webdriverKeyword = regexp.MustCompile(`^(?:\[([0-9a-fA-F]{32})\]\s+)?(COMMAND|RESPONSE)\s+(\S+)`)

	hexTagBracket = regexp.MustCompile(`^\[[0-9a-fA-F]{32}\]`)
)

// Parse frames the text into timestamped entries. A line matching the
// timestamp template starts an entry; every other line continues the
// current one. Leading lines before the first match are dropped.
func (p *ChromeDriverParser) Parse(text string) []*LogEntry {
	var entries []*LogEntry
	jp := &fastjson.Parser{}

	var cur *LogEntry
	var body []string

	flush := func() {
		if cur == nil {
			return
		}
		finishChromeDriverEntry(cur, strings.Join(body, "\n"), jp)
		entries = append(entries, cur)
		cur = nil
		body = body[:0]
	}

	for lineNo, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		m := chromeDriverLine.FindStringSubmatch(line)
		if m == nil {
			if cur != nil {
				cur.Raw += "\n" + line
				body = append(body, line)
			}
			continue
		}
		flush()
		cur = &LogEntry{
			ID:         len(entries),
			LineNumber: lineNo + 1,
			Timestamp:  m[1],
			Level:      m[2],
			Message:    m[3],
			LogType:    LogTypeOther,
			Raw:        line,
		}
		body = append(body, m[3])
	}
	flush()

	correlate(entries)
	return entries
}

// finishChromeDriverEntry classifies a framed entry and extracts method,
// command id, identifiers, and the JSON payload from its full body text.
func finishChromeDriverEntry(e *LogEntry, body string, jp *fastjson.Parser) {
	msg := e.Message
	switch {
	case strings.Contains(msg, devtoolsCommandMarker):
		e.IsCommand = true
		e.LogType = LogTypeDevTools
	case strings.Contains(msg, devtoolsResponseMarker):
		e.IsResponse = true
		e.LogType = LogTypeDevTools
	case strings.Contains(msg, devtoolsEventMarker):
		e.LogType = LogTypeDevTools
	default:
		if m := webdriverKeyword.FindStringSubmatch(msg); m != nil {
			e.LogType = LogTypeWebDriver
			e.IsCommand = m[2] == "COMMAND"
			e.IsResponse = m[2] == "RESPONSE"
			e.Method = m[3]
		}
	}

	if e.LogType == LogTypeDevTools {
		if m := devtoolsMethodRe.FindStringSubmatch(msg); m != nil {
			e.Method = m[1]
		}
		if m := inlineCommandID.FindStringSubmatch(msg); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				e.CommandID = id
			}
		}
	}

	collectMessageIdentifiers(e, msg)

	if i := payloadStart(body); i >= 0 {
		if info := decodePayload(jp, body[i:]); info != nil {
			e.Payload = info.Value
			e.TargetIDs = mergeUnique(e.TargetIDs, info.TargetIDs)
			e.SessionIDs = mergeUnique(e.SessionIDs, info.SessionIDs)
		}
	}
	mergeTags(e)
}

// collectMessageIdentifiers pulls identifiers from the message text: 32-hex
// tokens (bare or bracket-tagged) are target ids, session_id markers are
// session ids. Hex claimed by a session marker is not re-collected as a
// target.
func collectMessageIdentifiers(e *LogEntry, msg string) {
	sessionSpans := inlineSessionID.FindAllStringSubmatchIndex(msg, -1)
	for _, span := range sessionSpans {
		e.SessionIDs = mergeUnique(e.SessionIDs, []string{msg[span[2]:span[3]]})
	}
	for _, loc := range hexToken.FindAllStringIndex(msg, -1) {
		if insideAny(loc, sessionSpans) {
			continue
		}
		e.TargetIDs = mergeUnique(e.TargetIDs, []string{msg[loc[0]:loc[1]]})
	}
}

func insideAny(loc []int, spans [][]int) bool {
	for _, s := range spans {
		if loc[0] >= s[0] && loc[1] <= s[1] {
			return true
		}
	}
	return false
}

// payloadStart finds the first byte of body that plausibly starts a JSON
// payload. Brackets framing a 32-hex tag are skipped; the timestamp and
// level brackets never appear, body begins after the line prefix.
func payloadStart(body string) int {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			return i
		case '[':
			if m := hexTagBracket.FindString(body[i:]); m != "" {
				i += len(m) - 1
				continue
			}
			return i
		}
	}
	return -1
}
