// Package duration parses human-readable duration strings used in config
// files and flags.
package duration

import (
	"fmt"
	"time"
)

// Parse parses durations like "90s", "30m", "1h30m", "1d" or "2w".
// Anything time.ParseDuration accepts is accepted as-is; day and week
// units are layered on top since cache lifetimes are often written that way.
func Parse(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration: %s", s)
		}
		return d, nil
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use e.g., 30m, 1h, 1d)", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative duration: %s", s)
	}

	switch unit {
	case "min", "mins":
		return time.Duration(n) * time.Minute, nil
	case "hr", "hrs", "hour", "hours":
		return time.Duration(n) * time.Hour, nil
	case "d", "day", "days":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w", "wk", "wks", "week", "weeks":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}
}

// ParseOr parses s, returning def when s is empty.
func ParseOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return Parse(s)
}
