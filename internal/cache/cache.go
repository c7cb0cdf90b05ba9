// Package cache stores successful profile fetches so repeated queries for the
// same user within the TTL do not hit the GitHub API again.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/model"
)

// Version should be incremented when the entry format changes so that
// entries written by older builds are ignored.
const Version = 1

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Backends lists every backend name in display order.
func Backends() []string {
	return []string{BackendFile, BackendMemory, BackendRedis, BackendNone}
}

// Store defines the caching operations used by the analyzer.
// Only successful fetches are ever stored.
type Store interface {
	Get(ctx context.Context, key string) (*model.SuccessResult, bool)
	Set(ctx context.Context, key string, result *model.SuccessResult) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats describes the contents of a Store.
type Stats struct {
	Backend  string
	Location string
	Total    int
	Valid    int
}

// Clock returns the current time. Stores call it for every expiry decision.
type Clock func() time.Time

// Key normalizes a username into a cache key. GitHub logins are
// case-insensitive, so "Octocat" and "octocat" share an entry.
func Key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Entry is the stored form of a cached result.
type Entry struct {
	Result    model.SuccessResult `json:"result"`
	CachedAt  time.Time           `json:"cachedAt"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Version   int                 `json:"version"`
}

func newEntry(result *model.SuccessResult, now time.Time, ttl time.Duration) Entry {
	return Entry{
		Result:    *result,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
		Version:   Version,
	}
}

// Valid reports whether the entry can be served at now.
func (e Entry) Valid(now time.Time) bool {
	return e.Version == Version && now.Before(e.ExpiresAt)
}

// Options selects and configures a Store.
type Options struct {
	Backend   string
	TTL       time.Duration
	Dir       string // file backend; defaults to the user cache dir
	RedisAddr string
	RedisDB   int
	Clock     Clock
}

func (o Options) ttl() time.Duration {
	if o.TTL <= 0 {
		return constants.ProfileCacheTTL
	}
	return o.TTL
}

func (o Options) clock() Clock {
	if o.Clock == nil {
		return time.Now
	}
	return o.Clock
}

// New creates the Store named by opts.Backend. An empty backend selects the
// file store. BackendNone returns a nil Store, which callers treat as
// caching disabled.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		s, err := NewFileStore(opts.Dir, opts.ttl(), opts.clock())
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(opts.ttl(), opts.clock()), nil
	case BackendRedis:
		s, err := NewRedisStore(ctx, RedisConfig{
			Addr: opts.RedisAddr,
			DB:   opts.RedisDB,
			TTL:  opts.ttl(),
		}, opts.clock())
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (valid: %s)", opts.Backend, strings.Join(Backends(), ", "))
	}
}
