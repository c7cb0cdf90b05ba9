package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spiffcs/gitgazer/internal/output"
	"github.com/spiffcs/gitgazer/internal/tui"
)

const tuiAuto = "auto"

// tuiFlag backs --tui. Options.TUI stays nil until the user picks a side,
// which leaves the progress view to terminal detection.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return tuiAuto
	}
	return strconv.FormatBool(*f.opts.TUI)
}

// Set accepts "auto" plus anything strconv.ParseBool does, along with
// yes/no and on/off.
func (f *tuiFlag) Set(s string) error {
	value := strings.ToLower(strings.TrimSpace(s))
	switch value {
	case tuiAuto:
		f.opts.TUI = nil
		return nil
	case "yes", "on":
		value = "true"
	case "no", "off":
		value = "false"
	}

	on, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid --tui value %q: want true, false or auto", s)
	}
	f.opts.TUI = &on
	return nil
}

// Type reports "bool" so a bare --tui parses without a value.
func (f *tuiFlag) Type() string { return "bool" }

func (f *tuiFlag) IsBoolFlag() bool { return true }

// shouldUseTUI decides whether analyze shows live progress. Verbose runs
// log to stderr instead, and only the table format is rendered after the
// progress view.
func shouldUseTUI(opts *Options, format output.Format) bool {
	if opts.Verbosity > 0 || format != output.FormatTable {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	return tui.ShouldUseTUI()
}
