package format

import (
	"fmt"
	"math"
	"strings"
)

// eighths are the partial block glyphs, from one eighth to seven eighths.
var eighths = []string{"▏", "▎", "▍", "▌", "▋", "▊", "▉"}

const fullBlock = "█"

// Bar renders value as a horizontal bar scaled so that maxValue fills width
// columns. Non-zero values always get at least a sliver.
func Bar(value, maxValue, width int) string {
	if value <= 0 || maxValue <= 0 || width <= 0 {
		return ""
	}
	value = min(value, maxValue)

	units := int(math.Round(float64(value) / float64(maxValue) * float64(width*8)))
	units = max(units, 1)

	var b strings.Builder
	b.WriteString(strings.Repeat(fullBlock, units/8))
	if rem := units % 8; rem > 0 {
		b.WriteString(eighths[rem-1])
	}
	return b.String()
}

// Compact formats a count the way GitHub does: 999, 1.2k, 15k, 3.4m.
func Compact(n int) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 1000:
		return fmt.Sprintf("%d", n)
	case abs < 10_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1000)) + "k"
	case abs < 1_000_000:
		return fmt.Sprintf("%dk", n/1000)
	default:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1_000_000)) + "m"
	}
}

// Percent formats p (0-100) with one decimal place.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
