package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/valyala/fastjson"
)

// TranscriptParser handles protocol transcript logs: multi-line send and
// receive blocks framed by direction sentinels, every block line carrying
// the same namespace prefix, payloads wrapped in quoted string fragments.
type TranscriptParser struct{}

// NewTranscriptParser creates a transcript log parser.
func NewTranscriptParser() *TranscriptParser {
	return &TranscriptParser{}
}

const (
	sendSentinel = "SEND ►"
	recvSentinel = "RECV ◀"
)

var (
	// closer of a multi-line bracket block: ] or ] +12ms
	bracketCloser = regexp.MustCompile(`^\]\s*(?:\+\d+(?:\.\d+)?(?:ms|s|m|h))?$`)

	// trailing +12ms timing decoration on a content line
	timingSuffix = regexp.MustCompile(`\s+\+\d+(?:\.\d+)?(?:ms|s|m|h)$`)
)

// transcriptBlock accumulates one send/receive block until it closes.
type transcriptBlock struct {
	entry     *LogEntry
	outbound  bool
	multiline bool
	content   []string
}

// Parse frames the text into sentinel-delimited blocks. A sentinel line
// opens a block; a multi-line bracket block stays open until its closing
// bracket; prefix-less lines continue the open block.
func (p *TranscriptParser) Parse(text string) []*LogEntry {
	var entries []*LogEntry
	jp := &fastjson.Parser{}

	var cur *transcriptBlock

	flush := func() {
		if cur == nil {
			return
		}
		finishTranscriptBlock(cur, jp)
		entries = append(entries, cur.entry)
		cur = nil
	}

	open := func(outbound bool, content, raw string, lineNo int) {
		flush()
		cur = &transcriptBlock{
			entry: &LogEntry{
				ID:         len(entries),
				LineNumber: lineNo,
				LogType:    LogTypeDevTools,
				Raw:        raw,
			},
			outbound:  outbound,
			multiline: opensBracketBlock(content),
			content:   []string{content},
		}
		if !cur.multiline {
			flush()
		}
	}

	for i, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		outbound, content, ok := splitSentinel(line)
		if !ok {
			if cur != nil {
				cur.entry.Raw += "\n" + line
				cur.content = append(cur.content, line)
			}
			continue
		}
		content = timingSuffix.ReplaceAllString(content, "")

		switch {
		case cur == nil || outbound != cur.outbound || opensBracketBlock(content):
			open(outbound, content, line, i+1)
		case bracketCloser.MatchString(content):
			cur.entry.Raw += "\n" + line
			cur.content = append(cur.content, content)
			flush()
		default:
			cur.entry.Raw += "\n" + line
			cur.content = append(cur.content, content)
		}
	}
	flush()

	correlate(entries)
	return entries
}

// splitSentinel locates a direction sentinel in the line and returns the
// direction plus the content after it, trimmed. The prefix before the
// sentinel (debug namespace, indentation) is discarded.
func splitSentinel(line string) (outbound bool, content string, ok bool) {
	if i := strings.Index(line, sendSentinel); i >= 0 {
		return true, strings.TrimSpace(line[i+len(sendSentinel):]), true
	}
	if i := strings.Index(line, recvSentinel); i >= 0 {
		return false, strings.TrimSpace(line[i+len(recvSentinel):]), true
	}
	return false, "", false
}

// opensBracketBlock reports whether content begins a multi-line inspect
// array (a bare [ or an unclosed one).
func opensBracketBlock(content string) bool {
	return content == "[" || (strings.HasPrefix(content, "[") && !strings.HasSuffix(content, "]"))
}

// finishTranscriptBlock reconstructs the block's payload and classifies it:
// outbound without result/error is a command, inbound with result or error
// is a response, anything else an event.
func finishTranscriptBlock(b *transcriptBlock, jp *fastjson.Parser) {
	e := b.entry
	info := decodePayload(jp, reconstructPayloadText(b.content))
	if info != nil {
		e.Payload = info.Value
		e.Method = info.Method
		if info.HasID {
			e.CommandID = info.ID
		}
		e.TargetIDs = info.TargetIDs
		e.SessionIDs = info.SessionIDs

		switch {
		case b.outbound && !info.HasResult && !info.HasError:
			e.IsCommand = true
		case !b.outbound && (info.HasResult || info.HasError):
			e.IsResponse = true
		}
	}
	e.Message = transcriptMessage(b, info)
	mergeTags(e)
}

// transcriptMessage renders a human row label for the block.
func transcriptMessage(b *transcriptBlock, info *payloadInfo) string {
	dir := recvSentinel
	if b.outbound {
		dir = sendSentinel
	}
	switch {
	case info != nil && info.Method != "":
		return dir + " " + info.Method
	case info != nil && b.entry.IsResponse:
		return dir + " response"
	}
	first := strings.TrimSpace(b.content[0])
	if len(first) > 120 {
		first = first[:120] + "..."
	}
	if first == "" {
		return dir
	}
	return dir + " " + first
}

// reconstructPayloadText turns the collected block content back into JSON
// text: strip the outer inspect-array brackets if present, then either join
// single-quoted fragments, decode a JSON string literal, or keep raw JSON.
func reconstructPayloadText(content []string) string {
	joined := strings.TrimSpace(strings.Join(content, "\n"))
	if strings.HasPrefix(joined, "[") && strings.HasSuffix(joined, "]") {
		joined = strings.TrimSpace(joined[1 : len(joined)-1])
	}
	switch {
	case strings.HasPrefix(joined, "'"):
		if s, ok := joinQuotedFragments(joined); ok {
			return s
		}
	case strings.HasPrefix(joined, `"`):
		var s string
		if err := json.Unmarshal([]byte(joined), &s); err == nil {
			return s
		}
	}
	return joined
}

// joinQuotedFragments concatenates the single-quoted string fragments in s,
// un-escaping \' and \\. Text between fragments (the + joiners, newlines)
// is skipped.
func joinQuotedFragments(s string) (string, bool) {
	var b strings.Builder
	found := false
	for i := 0; i < len(s); {
		if s[i] != '\'' {
			i++
			continue
		}
		found = true
		i++
		for i < len(s) {
			c := s[i]
			if c == '\\' && i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '\\') {
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			if c == '\'' {
				i++
				break
			}
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), found
}
