// Package format provides shared text formatting utilities for terminal output.
package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/spiffcs/gitgazer/internal/constants"
)

// ansiRegex matches SGR color sequences and OSC 8 hyperlink markers.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m|\x1b\]8;[^\x1b\a]*(?:\x1b\\|\a)`)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of a string in terminal columns,
// ignoring escape sequences and counting wide characters as two.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// Truncate shortens plain text to fit within maxWidth columns, ending it
// with "..." when anything was cut.
func Truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= constants.TruncationSuffixWidth {
		return strings.Repeat(".", max(maxWidth, 0))
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces up to width visible columns.
func PadRight(s string, width int) string {
	if w := DisplayWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// PadLeft right-aligns s within width visible columns.
func PadLeft(s string, width int) string {
	if w := DisplayWidth(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

// Hyperlink wraps text in an OSC 8 escape so supporting terminals render it
// as a clickable link to url.
func Hyperlink(url, text string) string {
	return "\x1b]8;;" + url + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}
