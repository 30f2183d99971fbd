package parser

import "github.com/valyala/fastjson"

// Identifier field names harvested from payloads at any nesting depth.
var (
	targetKeys  = map[string]bool{"targetId": true}
	sessionKeys = map[string]bool{"sessionId": true}
)

// maxWalkDepth bounds the payload walk. Payloads are decoded JSON and
// cannot be cyclic; the bound is hardening against absurdly nested input.
const maxWalkDepth = 64

// idCollector accumulates target and session identifiers, deduplicated,
// in first-occurrence order.
type idCollector struct {
	targets  []string
	sessions []string

	seenTarget  map[string]bool
	seenSession map[string]bool
}

func newIDCollector() *idCollector {
	return &idCollector{
		seenTarget:  make(map[string]bool),
		seenSession: make(map[string]bool),
	}
}

func (c *idCollector) addTarget(s string) {
	if s == "" || c.seenTarget[s] {
		return
	}
	c.seenTarget[s] = true
	c.targets = append(c.targets, s)
}

func (c *idCollector) addSession(s string) {
	if s == "" || c.seenSession[s] {
		return
	}
	c.seenSession[s] = true
	c.sessions = append(c.sessions, s)
}

// walk visits v in document order, collecting scalar values stored under
// identifier field names. fastjson keeps object fields in source order,
// which fixes the first-occurrence ordering; decoded Go maps would not.
func (c *idCollector) walk(v *fastjson.Value, depth int) {
	if v == nil || depth > maxWalkDepth {
		return
	}
	switch v.Type() {
	case fastjson.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return
		}
		obj.Visit(func(key []byte, item *fastjson.Value) {
			k := string(key)
			if targetKeys[k] {
				c.addTarget(scalarString(item))
			} else if sessionKeys[k] {
				c.addSession(scalarString(item))
			}
			c.walk(item, depth+1)
		})
	case fastjson.TypeArray:
		items, err := v.Array()
		if err != nil {
			return
		}
		for _, item := range items {
			c.walk(item, depth+1)
		}
	}
}

// scalarString renders a string or number value; other types yield "".
func scalarString(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		b, err := v.StringBytes()
		if err != nil {
			return ""
		}
		return string(b)
	case fastjson.TypeNumber:
		return v.String()
	}
	return ""
}

// mergeUnique appends the elements of src not already present in dst,
// preserving order.
func mergeUnique(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

// mergeTags fills e.Tags with the union of its identifier lists, targets
// first, preserving order.
func mergeTags(e *LogEntry) {
	if len(e.TargetIDs) == 0 && len(e.SessionIDs) == 0 {
		return
	}
	seen := make(map[string]bool, len(e.TargetIDs)+len(e.SessionIDs))
	for _, t := range e.TargetIDs {
		if !seen[t] {
			seen[t] = true
			e.Tags = append(e.Tags, t)
		}
	}
	for _, s := range e.SessionIDs {
		if !seen[s] {
			seen[s] = true
			e.Tags = append(e.Tags, s)
		}
	}
}
