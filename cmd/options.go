package cmd

// Options holds the command-line options shared by the root and analyze
// commands. Zero values defer to the config file.
type Options struct {
	Format    string
	TopN      int
	MaxPages  int
	NoCache   bool
	Refresh   bool // skip the cache read but still store the fresh result
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithTopN sets how many repositories the star ranking shows.
func WithTopN(n int) Option {
	return func(o *Options) {
		o.TopN = n
	}
}

// WithMaxPages bounds repository pagination.
func WithMaxPages(n int) Option {
	return func(o *Options) {
		o.MaxPages = n
	}
}

// WithNoCache disables the result cache entirely.
func WithNoCache(noCache bool) Option {
	return func(o *Options) {
		o.NoCache = noCache
	}
}

// WithRefresh forces a fresh fetch while still updating the cache.
func WithRefresh(refresh bool) Option {
	return func(o *Options) {
		o.Refresh = refresh
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}
