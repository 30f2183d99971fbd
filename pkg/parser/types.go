// Package parser normalizes browser-automation logs into typed entries.
//
// Four structurally incompatible dialects are supported: ChromeDriver
// verbose logs, protocol transcripts, web-platform-test output, and
// protocol-monitor JSON dumps. Each dialect parser emits the same entry
// shape and runs the shared correlation and lane-allocation pass before
// returning, so consumers see one uniform, already-linked sequence.
package parser

// LogType classifies which protocol layer an entry belongs to.
type LogType string

const (
	// LogTypeDevTools marks DevTools wire traffic (commands, responses,
	// events carrying numeric protocol ids).
	LogTypeDevTools LogType = "DevTools"

	// LogTypeWebDriver marks the bracket-keyword WebDriver layer, which
	// has no numeric ids and correlates by nesting order.
	LogTypeWebDriver LogType = "WebDriver"

	// LogTypeOther marks everything else (banners, plain diagnostics).
	LogTypeOther LogType = "Other"
)

// LogEntry is one normalized event. Entries are created by a dialect
// parser, mutated exactly once by the correlation pass (relatedIds,
// laneConfig, and synthesized commandIds), and are read-only afterwards.
type LogEntry struct {
	// ID is the entry's position in creation order, starting at 0 per
	// parse call. Correlation and lane structures reference entries by it.
	ID int `json:"id"`

	// LineNumber is the 1-based source line of the entry's first physical
	// line, or 0 for dialects without line framing.
	LineNumber int `json:"lineNumber"`

	// Timestamp is the formatted stamp, empty when the dialect has none.
	Timestamp string `json:"timestamp,omitempty"`

	Level   string `json:"level,omitempty"`
	Message string `json:"message"`

	// Payload is the parsed command/response/event body. Absent when no
	// JSON could be located or it failed to parse.
	Payload any `json:"payload,omitempty"`

	// TargetIDs and SessionIDs are deduplicated identifier lists gathered
	// from the payload walk and dialect-specific message patterns, in
	// first-occurrence order.
	TargetIDs  []string `json:"targetIds,omitempty"`
	SessionIDs []string `json:"sessionIds,omitempty"`

	// CommandID is the protocol-level correlation key: a positive id taken
	// from the payload or log line, or a negative synthesized id for
	// traffic without one. Zero means no id has been assigned.
	CommandID int64 `json:"commandId,omitempty"`

	// RelatedIDs lists the IDs of linked entries. A command and its
	// response each list the other; orphans have none.
	RelatedIDs []int `json:"relatedIds,omitempty"`

	Method     string `json:"method,omitempty"`
	IsCommand  bool   `json:"isCommand,omitempty"`
	IsResponse bool   `json:"isResponse,omitempty"`

	LogType LogType `json:"logType"`

	// Raw is the original text span the entry was built from.
	Raw string `json:"raw,omitempty"`

	// Tags is the union of TargetIDs and SessionIDs, targets first.
	Tags []string `json:"tags,omitempty"`

	// LaneConfig is set by the lane-allocation pass only.
	LaneConfig *LaneConfig `json:"laneConfig,omitempty"`
}

// LaneConfig is one row's snapshot of the lane layout. Lanes model open
// command/response intervals as parallel vertical columns; the snapshot is
// taken after the row opens its lane and before it frees one.
type LaneConfig struct {
	// ActiveLanes lists the occupied lane indices at this row, ascending.
	ActiveLanes []int `json:"activeLanes"`

	// LaneDetails maps each occupied lane to the commandId that opened it.
	LaneDetails map[int]int64 `json:"laneDetails"`

	// LaneEntryIndices maps each occupied lane to the ID of the entry that
	// opened it, letting consumers pin the opening row while its lane
	// remains open.
	LaneEntryIndices map[int]int `json:"laneEntryIndices"`

	// StartLane is set on correlated command rows: the lane this row opened.
	StartLane *int `json:"startLane,omitempty"`

	// EndLane is set on correlated response rows: the lane this row closed.
	EndLane *int `json:"endLane,omitempty"`
}
