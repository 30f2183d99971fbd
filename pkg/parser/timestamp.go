package parser

import "time"

// StampLayout is the wall-clock stamp layout shared by all dialects, both
// as parsed from ChromeDriver lines and as synthesized for protocol-monitor
// records: month-day-year with microsecond precision.
const StampLayout = "01-02-2006 15:04:05.000000"

// stampFromMillis renders a stamp from a millisecond epoch value, as found
// in protocol-monitor records. Rendered in UTC so synthesized stamps are
// stable across hosts.
func stampFromMillis(ms float64) string {
	sec := int64(ms) / 1000
	nsec := (int64(ms) % 1000) * int64(time.Millisecond)
	// keep sub-millisecond precision when the record carries it
	nsec += int64((ms - float64(int64(ms))) * float64(time.Millisecond))
	return time.Unix(sec, nsec).UTC().Format(StampLayout)
}
