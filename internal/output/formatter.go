// Package output renders an analysis report for the terminal, as JSON or
// as Markdown.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/spiffcs/gitgazer/internal/service"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatMarkdown}
}

// ParseFormat validates a user-supplied format name. An empty name selects
// FormatTable.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: table, json, markdown)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(report service.Report, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{Now: time.Now}
	default:
		return &TableFormatter{
			Hyperlinks: term.IsTerminal(int(os.Stdout.Fd())),
			Now:        time.Now,
		}
	}
}
