// Package output renders parse reports for humans and machines.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/driverlog/pkg/parser"
)

// Report is the complete parse output for one log source.
type Report struct {
	// ID uniquely identifies this report.
	ID string `json:"id"`

	// Source names where the log text came from: a file path, "-" for
	// stdin, or an upload name.
	Source string `json:"source"`

	// Dialect is the dialect that parsed the text.
	Dialect parser.Dialect `json:"dialect"`

	// DetectionRule names the detector rule that selected the dialect,
	// or "forced" for an explicit override.
	DetectionRule string `json:"detectionRule,omitempty"`

	// Entries is the normalized, correlated entry sequence.
	Entries []*parser.LogEntry `json:"entries"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// GeneratedAt is when the parse ran.
	GeneratedAt time.Time `json:"generatedAt"`
}

// Summary provides aggregate statistics over an entry sequence.
type Summary struct {
	TotalEntries int `json:"totalEntries"`
	Commands     int `json:"commands"`
	Responses    int `json:"responses"`
	Events       int `json:"events"`

	// Correlated counts entries linked to a counterpart; Orphans counts
	// commands and responses left unlinked.
	Correlated int `json:"correlated"`
	Orphans    int `json:"orphans"`

	// MaxLanes is the peak number of concurrently open lanes.
	MaxLanes int `json:"maxLanes"`

	// TargetIDs and SessionIDs union the identifiers seen across all
	// entries, in first-occurrence order.
	TargetIDs  []string `json:"targetIds,omitempty"`
	SessionIDs []string `json:"sessionIds,omitempty"`
}

// NewReport assembles a report over a parsed entry sequence.
func NewReport(source string, dialect parser.Dialect, detectionRule string, entries []*parser.LogEntry) *Report {
	if entries == nil {
		entries = []*parser.LogEntry{}
	}
	return &Report{
		ID:            uuid.NewString(),
		Source:        source,
		Dialect:       dialect,
		DetectionRule: detectionRule,
		Entries:       entries,
		Summary:       Summarize(entries),
		GeneratedAt:   time.Now().UTC(),
	}
}

// Summarize computes aggregate statistics for an entry sequence.
func Summarize(entries []*parser.LogEntry) Summary {
	var s Summary
	s.TotalEntries = len(entries)

	seenTarget := make(map[string]bool)
	seenSession := make(map[string]bool)

	for _, e := range entries {
		switch {
		case e.IsCommand:
			s.Commands++
		case e.IsResponse:
			s.Responses++
		default:
			s.Events++
		}

		if len(e.RelatedIDs) > 0 {
			s.Correlated++
		} else if e.IsCommand || e.IsResponse {
			s.Orphans++
		}

		if e.LaneConfig != nil && len(e.LaneConfig.ActiveLanes) > s.MaxLanes {
			s.MaxLanes = len(e.LaneConfig.ActiveLanes)
		}

		for _, t := range e.TargetIDs {
			if !seenTarget[t] {
				seenTarget[t] = true
				s.TargetIDs = append(s.TargetIDs, t)
			}
		}
		for _, id := range e.SessionIDs {
			if !seenSession[id] {
				seenSession[id] = true
				s.SessionIDs = append(s.SessionIDs, id)
			}
		}
	}
	return s
}

// HasCommands reports whether any command entries were found.
func (r *Report) HasCommands() bool {
	return r.Summary.Commands > 0
}

// HasOrphans reports whether any command or response went unmatched.
func (r *Report) HasOrphans() bool {
	return r.Summary.Orphans > 0
}
