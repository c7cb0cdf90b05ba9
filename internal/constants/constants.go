// Package constants provides a centralized location for the configuration
// defaults and magic numbers used throughout gitgazer.
package constants

import "time"

// GitHub API constants
const (
	// DefaultBaseURL is the REST endpoint used when no override is configured.
	DefaultBaseURL = "https://api.github.com/"

	// PageSize is the number of repositories requested per page. It is also
	// the tolerance used when comparing a fetched collection against the
	// profile's declared public repository count.
	PageSize = 100

	// DefaultMaxPages bounds repository pagination. 100 pages of 100 covers
	// any realistic account while stopping a misbehaving server.
	DefaultMaxPages = 100

	// DefaultRequestTimeout bounds every individual HTTP call.
	DefaultRequestTimeout = 30 * time.Second

	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 10
)

// Cache constants
const (
	// ProfileCacheTTL is how long a successful analysis is reused before the
	// API is queried again.
	ProfileCacheTTL = 1 * time.Hour

	// DefaultRedisAddr is used by the redis backend when no address is set.
	DefaultRedisAddr = "localhost:6379"
)

// Presentation constants
const (
	// DefaultTopN is the number of repositories shown in the star ranking.
	DefaultTopN = 10

	// MissingValue is shown wherever an optional field is absent.
	MissingValue = "N/A"

	// DateLayout is used for repository creation dates.
	DateLayout = "2006-01-02"

	// BarWidth is the width in columns of the longest chart bar.
	BarWidth = 30

	// TUIUpdateInterval is the minimum time between TUI progress updates.
	TUIUpdateInterval = 50 * time.Millisecond

	// TruncationSuffixWidth is the width of the "..." suffix when truncating strings.
	TruncationSuffixWidth = 3
)

// Server constants
const (
	// DefaultServerAddr is the listen address for `gitgazer serve`.
	DefaultServerAddr = ":8080"

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout = 10 * time.Second
)
