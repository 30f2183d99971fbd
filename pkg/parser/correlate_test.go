package parser

import (
	"reflect"
	"testing"
)

func testCommand(id int, commandID int64, lt LogType) *LogEntry {
	return &LogEntry{ID: id, IsCommand: true, CommandID: commandID, LogType: lt}
}

func testResponse(id int, commandID int64, lt LogType) *LogEntry {
	return &LogEntry{ID: id, IsResponse: true, CommandID: commandID, LogType: lt}
}

func TestCorrelateByProtocolID(t *testing.T) {
	entries := []*LogEntry{
		testCommand(0, 1, LogTypeDevTools),
		testCommand(1, 2, LogTypeDevTools),
		testResponse(2, 2, LogTypeDevTools),
		testResponse(3, 1, LogTypeDevTools),
	}
	correlate(entries)

	// pairing follows the id, not arrival order
	if !reflect.DeepEqual(entries[0].RelatedIDs, []int{3}) {
		t.Errorf("entries[0].RelatedIDs = %v, want [3]", entries[0].RelatedIDs)
	}
	if !reflect.DeepEqual(entries[1].RelatedIDs, []int{2}) {
		t.Errorf("entries[1].RelatedIDs = %v, want [2]", entries[1].RelatedIDs)
	}
	if !reflect.DeepEqual(entries[2].RelatedIDs, []int{1}) {
		t.Errorf("entries[2].RelatedIDs = %v, want [1]", entries[2].RelatedIDs)
	}
	if !reflect.DeepEqual(entries[3].RelatedIDs, []int{0}) {
		t.Errorf("entries[3].RelatedIDs = %v, want [0]", entries[3].RelatedIDs)
	}
}

func TestCorrelateDuplicatePendingID(t *testing.T) {
	entries := []*LogEntry{
		testCommand(0, 5, LogTypeDevTools),
		testCommand(1, 5, LogTypeDevTools),
		testResponse(2, 5, LogTypeDevTools),
	}
	correlate(entries)

	// a reused live id replaces the earlier command, orphaning it
	if len(entries[0].RelatedIDs) != 0 {
		t.Errorf("entries[0].RelatedIDs = %v, want empty", entries[0].RelatedIDs)
	}
	if !reflect.DeepEqual(entries[1].RelatedIDs, []int{2}) {
		t.Errorf("entries[1].RelatedIDs = %v, want [2]", entries[1].RelatedIDs)
	}
	if !reflect.DeepEqual(entries[2].RelatedIDs, []int{1}) {
		t.Errorf("entries[2].RelatedIDs = %v, want [1]", entries[2].RelatedIDs)
	}
}

func TestCorrelateStackNesting(t *testing.T) {
	entries := []*LogEntry{
		testCommand(0, 0, LogTypeWebDriver),
		testCommand(1, 0, LogTypeWebDriver),
		testResponse(2, 0, LogTypeWebDriver),
		testResponse(3, 0, LogTypeWebDriver),
	}
	correlate(entries)

	// LIFO: the inner pair resolves first
	if !reflect.DeepEqual(entries[2].RelatedIDs, []int{1}) {
		t.Errorf("entries[2].RelatedIDs = %v, want [1]", entries[2].RelatedIDs)
	}
	if !reflect.DeepEqual(entries[3].RelatedIDs, []int{0}) {
		t.Errorf("entries[3].RelatedIDs = %v, want [0]", entries[3].RelatedIDs)
	}

	if entries[0].CommandID != -1 {
		t.Errorf("entries[0].CommandID = %d, want -1", entries[0].CommandID)
	}
	if entries[1].CommandID != -2 {
		t.Errorf("entries[1].CommandID = %d, want -2", entries[1].CommandID)
	}
	if entries[2].CommandID != -2 {
		t.Errorf("entries[2].CommandID = %d, want -2 (inherited)", entries[2].CommandID)
	}
	if entries[3].CommandID != -1 {
		t.Errorf("entries[3].CommandID = %d, want -1 (inherited)", entries[3].CommandID)
	}
}

func TestCorrelateWebDriverIgnoresPositiveID(t *testing.T) {
	// WebDriver traffic always pairs by nesting, even with an id present
	entries := []*LogEntry{
		testCommand(0, 42, LogTypeWebDriver),
		testResponse(1, 99, LogTypeWebDriver),
	}
	correlate(entries)

	if !reflect.DeepEqual(entries[0].RelatedIDs, []int{1}) {
		t.Errorf("entries[0].RelatedIDs = %v, want [1]", entries[0].RelatedIDs)
	}
	if entries[0].CommandID != 42 {
		t.Errorf("entries[0].CommandID = %d, want 42 (kept, not synthesized)", entries[0].CommandID)
	}
	if entries[1].CommandID != 42 {
		t.Errorf("entries[1].CommandID = %d, want 42 (inherited)", entries[1].CommandID)
	}
}

func TestCorrelateRerunIsStable(t *testing.T) {
	entries := []*LogEntry{
		testCommand(0, 0, LogTypeWebDriver),
		testResponse(1, 0, LogTypeWebDriver),
		testCommand(2, 7, LogTypeDevTools),
		testResponse(3, 7, LogTypeDevTools),
	}
	correlate(entries)
	correlate(entries)

	if !reflect.DeepEqual(entries[0].RelatedIDs, []int{1}) {
		t.Errorf("entries[0].RelatedIDs = %v, want [1] after rerun", entries[0].RelatedIDs)
	}
	if !reflect.DeepEqual(entries[3].RelatedIDs, []int{2}) {
		t.Errorf("entries[3].RelatedIDs = %v, want [2] after rerun", entries[3].RelatedIDs)
	}
	if entries[0].CommandID != -1 {
		t.Errorf("entries[0].CommandID = %d, want -1 after rerun", entries[0].CommandID)
	}
}

func TestCorrelateOrphans(t *testing.T) {
	entries := []*LogEntry{
		testResponse(0, 0, LogTypeWebDriver), // empty stack
		testResponse(1, 9, LogTypeDevTools),  // no pending command
		testCommand(2, 3, LogTypeDevTools),   // never answered
	}
	correlate(entries)

	for i, e := range entries {
		if len(e.RelatedIDs) != 0 {
			t.Errorf("entries[%d].RelatedIDs = %v, want empty", i, e.RelatedIDs)
		}
		if e.LaneConfig == nil {
			t.Errorf("entries[%d].LaneConfig is nil", i)
		}
	}

	// an unanswered command never opens a lane
	if entries[2].LaneConfig.StartLane != nil {
		t.Errorf("orphan command StartLane = %d, want nil", *entries[2].LaneConfig.StartLane)
	}
}

func TestAllocateLanesOverlap(t *testing.T) {
	entries := []*LogEntry{
		testCommand(0, 1, LogTypeDevTools),
		testCommand(1, 2, LogTypeDevTools),
		testResponse(2, 2, LogTypeDevTools),
		testResponse(3, 1, LogTypeDevTools),
	}
	correlate(entries)

	a, b, respB, respA := entries[0], entries[1], entries[2], entries[3]

	if a.LaneConfig.StartLane == nil || *a.LaneConfig.StartLane != 0 {
		t.Fatalf("first command StartLane = %v, want 0", a.LaneConfig.StartLane)
	}
	if b.LaneConfig.StartLane == nil || *b.LaneConfig.StartLane != 1 {
		t.Fatalf("second command StartLane = %v, want 1", b.LaneConfig.StartLane)
	}

	if !reflect.DeepEqual(b.LaneConfig.ActiveLanes, []int{0, 1}) {
		t.Errorf("second command ActiveLanes = %v, want [0 1]", b.LaneConfig.ActiveLanes)
	}
	if b.LaneConfig.LaneDetails[0] != 1 || b.LaneConfig.LaneDetails[1] != 2 {
		t.Errorf("LaneDetails = %v, want lane 0 -> 1, lane 1 -> 2", b.LaneConfig.LaneDetails)
	}
	if b.LaneConfig.LaneEntryIndices[0] != 0 || b.LaneConfig.LaneEntryIndices[1] != 1 {
		t.Errorf("LaneEntryIndices = %v, want lane 0 -> 0, lane 1 -> 1", b.LaneConfig.LaneEntryIndices)
	}

	// the closing row still shows its own lane in the snapshot
	if respB.LaneConfig.EndLane == nil || *respB.LaneConfig.EndLane != 1 {
		t.Fatalf("respB EndLane = %v, want 1", respB.LaneConfig.EndLane)
	}
	if !reflect.DeepEqual(respB.LaneConfig.ActiveLanes, []int{0, 1}) {
		t.Errorf("respB ActiveLanes = %v, want [0 1]", respB.LaneConfig.ActiveLanes)
	}

	// the lane is gone by the next row
	if respA.LaneConfig.EndLane == nil || *respA.LaneConfig.EndLane != 0 {
		t.Fatalf("respA EndLane = %v, want 0", respA.LaneConfig.EndLane)
	}
	if !reflect.DeepEqual(respA.LaneConfig.ActiveLanes, []int{0}) {
		t.Errorf("respA ActiveLanes = %v, want [0]", respA.LaneConfig.ActiveLanes)
	}
}

func TestAllocateLanesReusesLowestFree(t *testing.T) {
	entries := []*LogEntry{
		testCommand(0, 1, LogTypeDevTools),
		testCommand(1, 2, LogTypeDevTools),
		testCommand(2, 3, LogTypeDevTools),
		testResponse(3, 2, LogTypeDevTools), // frees lane 1
		testCommand(4, 4, LogTypeDevTools),  // should land on lane 1
		testResponse(5, 1, LogTypeDevTools),
		testResponse(6, 3, LogTypeDevTools),
		testResponse(7, 4, LogTypeDevTools),
	}
	correlate(entries)

	if got := *entries[4].LaneConfig.StartLane; got != 1 {
		t.Errorf("reopened StartLane = %d, want 1", got)
	}
}

func TestLaneConfigOnEveryRow(t *testing.T) {
	entries := []*LogEntry{
		testCommand(0, 1, LogTypeDevTools),
		{ID: 1, LogType: LogTypeOther, Message: "browser info line"},
		testResponse(2, 1, LogTypeDevTools),
	}
	correlate(entries)

	for i, e := range entries {
		if e.LaneConfig == nil {
			t.Fatalf("entries[%d].LaneConfig is nil", i)
		}
	}

	// the bystander row sees the open lane but has no endpoints
	mid := entries[1].LaneConfig
	if !reflect.DeepEqual(mid.ActiveLanes, []int{0}) {
		t.Errorf("bystander ActiveLanes = %v, want [0]", mid.ActiveLanes)
	}
	if mid.StartLane != nil || mid.EndLane != nil {
		t.Errorf("bystander StartLane/EndLane = %v/%v, want nil/nil", mid.StartLane, mid.EndLane)
	}
}
