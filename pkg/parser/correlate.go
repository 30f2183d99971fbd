package parser

import "sort"

// correlate links command entries to their responses and computes the lane
// layout for the waterfall view. Every dialect parser runs it once over its
// freshly built entries, in creation order. All bookkeeping lives in locals,
// so concurrent parse calls never interact.
//
// Correlation is two-tier. Entries carrying a positive protocol id pair
// through a pending map keyed by that id. Entries without one, and all
// WebDriver-layer traffic, pair through a single LIFO stack: commands push,
// responses pop, which matches the strictly nested discipline of that
// layer. Stack-paired commands receive a synthesized negative commandId
// (-1, -2, ...) exactly once, so consumers can still group the pair.
//
// A second command reusing a still-pending positive id silently replaces
// the first in the pending map; the earlier command is left an orphan. This
// mirrors the reference behavior and is deliberately not corrected.
func correlate(entries []*LogEntry) {
	pending := make(map[int64]int)
	var stack []int
	synthetic := int64(-1)

	for i, e := range entries {
		switch {
		case e.IsCommand:
			if stackCorrelated(e) {
				if e.CommandID == 0 {
					e.CommandID = synthetic
					synthetic--
				}
				stack = append(stack, i)
				continue
			}
			pending[e.CommandID] = i
		case e.IsResponse:
			if stackCorrelated(e) {
				if n := len(stack); n > 0 {
					cmd := entries[stack[n-1]]
					stack = stack[:n-1]
					link(e, cmd)
					e.CommandID = cmd.CommandID
				}
				continue
			}
			if j, ok := pending[e.CommandID]; ok {
				delete(pending, e.CommandID)
				link(e, entries[j])
			}
		}
	}

	allocateLanes(entries)
}

// stackCorrelated reports whether e pairs by nesting order instead of by
// protocol id.
func stackCorrelated(e *LogEntry) bool {
	return e.CommandID <= 0 || e.LogType == LogTypeWebDriver
}

// link records the relation on both sides. Append-if-absent keeps a rerun
// of the correlator over already-linked entries from doubling the lists.
func link(a, b *LogEntry) {
	a.RelatedIDs = appendID(a.RelatedIDs, b.ID)
	b.RelatedIDs = appendID(b.RelatedIDs, a.ID)
}

func appendID(ids []int, id int) []int {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

// allocateLanes assigns each correlated command the lowest free lane and
// closes that lane on its response, modeling open command/response pairs as
// concurrently live intervals. Every row gets a snapshot of the occupancy
// so the view can draw parallel lanes and pin still-open opening rows.
func allocateLanes(entries []*LogEntry) {
	laneCommand := make(map[int]int64) // lane -> commandId that opened it
	laneOpener := make(map[int]int)    // lane -> entry ID that opened it

	for _, e := range entries {
		var startLane, endLane *int
		closing := -1

		if e.IsCommand && len(e.RelatedIDs) > 0 {
			lane := lowestFreeLane(laneCommand)
			laneCommand[lane] = e.CommandID
			laneOpener[lane] = e.ID
			startLane = &lane
		}
		if e.IsResponse && len(e.RelatedIDs) > 0 {
			opener := e.RelatedIDs[0]
			for lane, id := range laneOpener {
				if id == opener {
					l := lane
					endLane = &l
					closing = lane
					break
				}
			}
		}

		e.LaneConfig = snapshotLanes(laneCommand, laneOpener, startLane, endLane)

		// the closing row's snapshot still shows its own lane; free after
		if closing >= 0 {
			delete(laneCommand, closing)
			delete(laneOpener, closing)
		}
	}
}

func lowestFreeLane(occupied map[int]int64) int {
	for lane := 0; ; lane++ {
		if _, ok := occupied[lane]; !ok {
			return lane
		}
	}
}

func snapshotLanes(laneCommand map[int]int64, laneOpener map[int]int, start, end *int) *LaneConfig {
	cfg := &LaneConfig{
		ActiveLanes:      make([]int, 0, len(laneCommand)),
		LaneDetails:      make(map[int]int64, len(laneCommand)),
		LaneEntryIndices: make(map[int]int, len(laneCommand)),
		StartLane:        start,
		EndLane:          end,
	}
	for lane, cmdID := range laneCommand {
		cfg.ActiveLanes = append(cfg.ActiveLanes, lane)
		cfg.LaneDetails[lane] = cmdID
		cfg.LaneEntryIndices[lane] = laneOpener[lane]
	}
	sort.Ints(cfg.ActiveLanes)
	return cfg
}
