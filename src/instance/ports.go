package instance

import (
	"os"
	"strconv"
)

const (
	defaultPortStart = 49500
	defaultPortEnd   = 49510
)

// portRange returns the loopback port range to bind and scan. Overridable via
// SCOREWATCH_PORT_START and SCOREWATCH_PORT_END (inclusive); values are
// clamped to [1024, 65535] and swapped when reversed.
func portRange() (int, int) {
	start := defaultPortStart
	end := defaultPortEnd
	if v := os.Getenv("SCOREWATCH_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			start = n
		}
	}
	if v := os.Getenv("SCOREWATCH_PORT_END"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			end = n
		}
	}
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}
