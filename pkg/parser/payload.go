package parser

import (
	"encoding/json"

	"github.com/valyala/fastjson"
)

// payloadInfo carries one parsed payload together with the fields
// classification and correlation need, probed without reflection.
type payloadInfo struct {
	// Value is the decoded payload as stored on the entry.
	Value any

	Method    string
	ID        int64
	HasID     bool
	HasResult bool
	HasError  bool

	TargetIDs  []string
	SessionIDs []string
}

// decodePayload parses one JSON payload candidate. Returns nil when the
// text is not valid JSON. The fastjson parser p is reused across calls and
// its values are consumed before the next call, per its ownership rules.
func decodePayload(p *fastjson.Parser, text string) *payloadInfo {
	v, err := p.Parse(text)
	if err != nil {
		return nil
	}
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil
	}

	info := &payloadInfo{Value: value}
	info.Method = string(v.GetStringBytes("method"))
	if idv := v.Get("id"); idv != nil {
		if id, err := idv.Int64(); err == nil {
			info.ID = id
			info.HasID = true
		}
	}
	info.HasResult = v.Exists("result")
	info.HasError = v.Exists("error")

	c := newIDCollector()
	c.walk(v, 0)
	info.TargetIDs = c.targets
	info.SessionIDs = c.sessions
	return info
}

// payloadValue decodes a fastjson subtree into the generic form stored on
// entries. Returns nil for a nil subtree or a (practically impossible)
// re-encode failure.
func payloadValue(v *fastjson.Value) any {
	if v == nil {
		return nil
	}
	var value any
	if err := json.Unmarshal(v.MarshalTo(nil), &value); err != nil {
		return nil
	}
	return value
}
