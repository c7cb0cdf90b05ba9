// Package service provides orchestration between the GitHub fetcher, the
// cache and the aggregations.
package service

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/spiffcs/gitgazer/internal/aggregate"
	"github.com/spiffcs/gitgazer/internal/cache"
	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/log"
	"github.com/spiffcs/gitgazer/internal/model"
)

// Fetcher retrieves a profile and its repositories.
// *ghclient.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, username string) model.Result
}

// Options configures an Analyzer.
type Options struct {
	// TopN bounds the star ranking. Zero selects constants.DefaultTopN;
	// negative values produce an empty ranking.
	TopN int

	// Refresh skips cache reads but still stores fresh results.
	Refresh bool
}

// Analyzer runs the fetch, cache and aggregation pipeline for one profile
// at a time. It is safe for concurrent use when its Store is.
type Analyzer struct {
	fetcher Fetcher
	cache   cache.Store
	topN    int
	refresh bool
	flight  singleflight.Group

	mu      sync.Mutex
	fetches map[string]*sharedFetch
}

// sharedFetch is the context a flight runs under. It outlives any single
// caller and is cancelled once every waiting caller has gone away.
type sharedFetch struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates an Analyzer. If store is nil, caching is disabled.
func New(fetcher Fetcher, store cache.Store, opts Options) *Analyzer {
	topN := opts.TopN
	if topN == 0 {
		topN = constants.DefaultTopN
	}
	return &Analyzer{
		fetcher: fetcher,
		cache:   store,
		topN:    topN,
		refresh: opts.Refresh,
		fetches: make(map[string]*sharedFetch),
	}
}

// TopN returns the configured ranking size.
func (a *Analyzer) TopN() int {
	return a.topN
}

// Report is the analysis of a single profile. The aggregate fields are
// empty when Result is an *model.ErrorResult.
type Report struct {
	Username   string
	Result     model.Result
	FromCache  bool
	Languages  []aggregate.LanguageShare
	TopStarred []model.Repository
	Timeline   []aggregate.YearCount
	Rows       []aggregate.Row
	TotalStars int
	TotalForks int
}

// Success returns the successful result, if there is one.
func (r Report) Success() (*model.SuccessResult, bool) {
	s, ok := r.Result.(*model.SuccessResult)
	return s, ok
}

// Error returns the error result, if there is one.
func (r Report) Error() (*model.ErrorResult, bool) {
	e, ok := r.Result.(*model.ErrorResult)
	return e, ok
}

type outcome struct {
	result    model.Result
	fromCache bool
	cancelled bool // every waiter left before the fetch finished
}

// Analyze fetches username (or reads it from the cache) and computes every
// aggregate view. It never returns an error: failures are carried by
// Report.Result.
func (a *Analyzer) Analyze(ctx context.Context, username string) Report {
	username = strings.TrimSpace(username)
	if username == "" {
		return a.report(username, outcome{result: a.fetcher.Fetch(ctx, username)})
	}

	key := cache.Key(username)

	if !a.refresh {
		if cached, ok := a.cached(ctx, key); ok {
			return a.report(username, outcome{result: cached, fromCache: true})
		}
	}

	o := a.fetchShared(ctx, key, username)
	if o.cancelled && ctx.Err() == nil {
		// Joined a flight whose waiters had all left; ours are still here.
		o = a.fetchShared(ctx, key, username)
	}
	return a.report(username, o)
}

// fetchShared fetches username, collapsing concurrent calls for the same key
// into one flight. The fetch runs under a context shared by every waiter so
// one caller going away does not fail the others.
func (a *Analyzer) fetchShared(ctx context.Context, key, username string) outcome {
	fetchCtx, leave := a.join(ctx, key)
	defer leave()

	v, _, shared := a.flight.Do(key, func() (any, error) {
		if !a.refresh {
			// Another flight may have stored the result since the check above.
			if cached, ok := a.cached(fetchCtx, key); ok {
				return outcome{result: cached, fromCache: true}, nil
			}
		}

		result := a.fetcher.Fetch(fetchCtx, username)
		if fetchCtx.Err() != nil {
			return outcome{result: result, cancelled: true}, nil
		}
		a.save(fetchCtx, key, result)
		return outcome{result: result}, nil
	})
	if shared {
		log.Debug("joined in-flight fetch", "user", key)
	}
	return v.(outcome)
}

// join registers the caller as a waiter on the shared fetch for key and
// returns the context that fetch runs under. The returned func must be called
// once the caller has its result. If ctx ends first the caller stops waiting,
// and the shared context is cancelled when no waiters remain.
func (a *Analyzer) join(ctx context.Context, key string) (context.Context, func()) {
	a.mu.Lock()
	sf, ok := a.fetches[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		sf = &sharedFetch{ctx: fctx, cancel: cancel}
		a.fetches[key] = sf
	}
	sf.waiters++
	a.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			sf.waiters--
			if sf.waiters > 0 {
				return
			}
			sf.cancel()
			if a.fetches[key] == sf {
				delete(a.fetches, key)
			}
		})
	}

	stop := context.AfterFunc(ctx, func() {
		log.Debug("caller left in-flight fetch", "user", key)
		release()
	})
	return sf.ctx, func() {
		stop()
		release()
	}
}

// save caches complete successes. Partial results are left out so the
// next query retries the pages that failed.
func (a *Analyzer) save(ctx context.Context, key string, result model.Result) {
	success, ok := result.(*model.SuccessResult)
	if !ok || a.cache == nil {
		return
	}
	if success.Partial {
		log.Debug("not caching partial result", "user", key, "reason", success.PartialReason)
		return
	}
	if err := a.cache.Set(ctx, key, success); err != nil {
		log.Debug("failed to cache profile", "user", key, "error", err)
	}
}

func (a *Analyzer) cached(ctx context.Context, key string) (*model.SuccessResult, bool) {
	if a.cache == nil {
		return nil, false
	}
	result, ok := a.cache.Get(ctx, key)
	if ok {
		log.Debug("cache hit", "user", key, "fetched_at", result.FetchedAt)
	}
	return result, ok
}

func (a *Analyzer) report(username string, o outcome) Report {
	r := Report{
		Username:   username,
		Result:     o.result,
		FromCache:  o.fromCache,
		Languages:  []aggregate.LanguageShare{},
		TopStarred: []model.Repository{},
		Timeline:   []aggregate.YearCount{},
		Rows:       []aggregate.Row{},
	}

	success, ok := o.result.(*model.SuccessResult)
	if !ok {
		return r
	}

	repos := success.Repositories
	r.Languages = aggregate.Shares(aggregate.LanguageFrequency(repos))
	r.TopStarred = aggregate.TopByStars(repos, a.topN)
	r.Timeline = aggregate.CreationTimeline(repos)
	r.Rows = aggregate.Table(repos)
	r.TotalStars, r.TotalForks = aggregate.Totals(repos)
	return r
}
