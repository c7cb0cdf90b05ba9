package format

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Age formats a duration as a compact age: "now", "5m", "2h", "3d", "2w",
// "3mo" or "2y". Negative durations are treated as zero.
func Age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < day:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}

	days := int(d / day)
	switch {
	case days < 7:
		return fmt.Sprintf("%dd", days)
	case days < 30:
		return fmt.Sprintf("%dw", days/7)
	case days < 365:
		return fmt.Sprintf("%dmo", days/30)
	default:
		return fmt.Sprintf("%dy", days/365)
	}
}

// Since is Age(now.Sub(t)).
func Since(t, now time.Time) string {
	return Age(now.Sub(t))
}
