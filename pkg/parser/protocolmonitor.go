package parser

import "github.com/valyala/fastjson"

// ProtocolMonitorParser handles protocol-monitor exports: the whole file is
// one JSON array of already-structured protocol records. A record carrying
// an id is split into a command/response entry pair; an id-less record
// becomes a single event.
type ProtocolMonitorParser struct{}

// NewProtocolMonitorParser creates a protocol-monitor dump parser.
func NewProtocolMonitorParser() *ProtocolMonitorParser {
	return &ProtocolMonitorParser{}
}

// Parse decodes the record array. Unparseable input yields an empty
// sequence. Records have no line framing, so lineNumber stays 0 and
// timestamps are synthesized from requestTime/elapsedTime when present.
func (p *ProtocolMonitorParser) Parse(text string) []*LogEntry {
	var entries []*LogEntry
	jp := &fastjson.Parser{}

	root, err := jp.Parse(text)
	if err != nil {
		correlate(entries)
		return entries
	}
	records, err := root.Array()
	if err != nil {
		correlate(entries)
		return entries
	}

	for _, rec := range records {
		if rec.Type() != fastjson.TypeObject {
			continue
		}
		entries = monitorRecordEntries(entries, rec)
	}

	correlate(entries)
	return entries
}

// monitorRecordEntries appends the entries synthesized from one record.
func monitorRecordEntries(entries []*LogEntry, rec *fastjson.Value) []*LogEntry {
	method := string(rec.GetStringBytes("method"))
	raw := string(rec.MarshalTo(nil))

	var id int64
	hasID := false
	if idv := rec.Get("id"); idv != nil {
		if n, err := idv.Int64(); err == nil {
			id, hasID = n, true
		}
	}

	reqTime, hasReqTime := numberField(rec, "requestTime")
	elapsed, hasElapsed := numberField(rec, "elapsedTime")

	if !hasID {
		e := &LogEntry{
			ID:      len(entries),
			Message: method,
			Method:  method,
			LogType: LogTypeDevTools,
			Raw:     raw,
		}
		if hasReqTime {
			e.Timestamp = stampFromMillis(reqTime)
		}
		payload := rec.Get("params")
		if payload == nil {
			payload = rec.Get("result")
		}
		attachMonitorPayload(e, rec, payload)
		return append(entries, e)
	}

	cmd := &LogEntry{
		ID:        len(entries),
		Message:   method,
		Method:    method,
		IsCommand: true,
		CommandID: id,
		LogType:   LogTypeDevTools,
		Raw:       raw,
	}
	if hasReqTime {
		cmd.Timestamp = stampFromMillis(reqTime)
	}
	attachMonitorPayload(cmd, rec, rec.Get("params"))
	entries = append(entries, cmd)

	respMsg := "Response"
	respPayload := rec.Get("result")
	if errv := rec.Get("error"); errv != nil && errv.Type() != fastjson.TypeNull {
		respMsg = "Error"
		respPayload = errv
	}
	resp := &LogEntry{
		ID:         len(entries),
		Message:    respMsg,
		Method:     method,
		IsResponse: true,
		CommandID:  id,
		LogType:    LogTypeDevTools,
		Raw:        raw,
	}
	switch {
	case hasReqTime && hasElapsed:
		resp.Timestamp = stampFromMillis(reqTime + elapsed)
	case hasReqTime:
		resp.Timestamp = cmd.Timestamp
	}
	attachMonitorPayload(resp, rec, respPayload)
	return append(entries, resp)
}

// attachMonitorPayload stores the payload subtree on e and gathers
// identifiers, record-level sessionId/targetId fields first, then the
// payload walk.
func attachMonitorPayload(e *LogEntry, rec, v *fastjson.Value) {
	c := newIDCollector()
	c.addTarget(scalarString(rec.Get("targetId")))
	c.addSession(scalarString(rec.Get("sessionId")))
	if v != nil {
		e.Payload = payloadValue(v)
		c.walk(v, 0)
	}
	e.TargetIDs = c.targets
	e.SessionIDs = c.sessions
	mergeTags(e)
}

func numberField(v *fastjson.Value, key string) (float64, bool) {
	f := v.Get(key)
	if f == nil || f.Type() != fastjson.TypeNumber {
		return 0, false
	}
	n, err := f.Float64()
	if err != nil {
		return 0, false
	}
	return n, true
}
