package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/gitgazer/config"
	"github.com/spiffcs/gitgazer/internal/cache"
	"github.com/spiffcs/gitgazer/internal/ghclient"
	"github.com/spiffcs/gitgazer/internal/log"
	"github.com/spiffcs/gitgazer/internal/output"
	"github.com/spiffcs/gitgazer/internal/service"
	"github.com/spiffcs/gitgazer/internal/tui"
)

// analyzeRuntime bundles the TUI state threaded through an analysis.
type analyzeRuntime struct {
	useTUI  bool
	events  chan tui.Event
	tuiDone chan error
}

// startTUI starts the progress display if enabled. cancel is called when the
// user quits so the in-flight fetch stops.
func (rt *analyzeRuntime) startTUI(username string, cancel context.CancelFunc) {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 100)
	rt.tuiDone = make(chan error, 1)
	go func() {
		err := tui.Run(rt.events, tui.WithUsername(username))
		if errors.Is(err, tui.ErrCancelled) {
			cancel()
		}
		rt.tuiDone <- err
	}()
}

// close closes the event channel and waits for the TUI to finish.
func (rt *analyzeRuntime) close() error {
	if rt.events == nil {
		return nil
	}
	close(rt.events)
	err := <-rt.tuiDone
	rt.events = nil
	return err
}

func (rt *analyzeRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	tui.SendTaskEvent(rt.events, task, status, opts...)
}

// NewCmdAnalyze creates the analyze command.
func NewCmdAnalyze(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <username>",
		Short: "Analyze a GitHub user's public repositories (same as root gitgazer)",
		Long: `Fetches the profile and every public repository of a GitHub user and
prints the language distribution, the most starred repositories, a creation
timeline and a table of all repositories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	addAnalyzeFlags(cmd, opts)
	return cmd
}

// addAnalyzeFlags adds the analyze flags to a command.
func addAnalyzeFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table, json, markdown)")
	cmd.Flags().IntVarP(&opts.TopN, "top", "n", 0, "Number of most starred repositories to show (default from config, 10)")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "Maximum repository pages of 100 to fetch (default from config, 100)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Neither read nor write the result cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Ignore cached results but store the fresh one")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")
	cmd.Flags().Lookup("tui").NoOptDefVal = "true"
}

func runAnalyze(cmd *cobra.Command, username string, opts *Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	formatName := opts.Format
	if formatName == "" {
		formatName = cfg.GetDefaultFormat()
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	rt := &analyzeRuntime{useTUI: shouldUseTUI(opts, format)}

	// Keep log lines from interleaving with the progress display
	if rt.useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	rt.startTUI(username, cancel)

	analyzer, client, release, err := newAnalyzer(ctx, cfg, opts, rt.events)
	if err != nil {
		_ = rt.close()
		return err
	}
	defer release()

	rt.sendEvent(tui.TaskProfile, tui.StatusRunning)
	report := analyzer.Analyze(ctx, username)
	reportProgress(rt, report, client)

	if err := rt.close(); err != nil {
		if errors.Is(err, tui.ErrCancelled) {
			return err
		}
		log.Warn("progress display failed", "error", err)
	}

	if err := output.NewFormatter(format).Format(report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if res, failed := report.Error(); failed {
		return fmt.Errorf("%w: %w", ErrReported, res)
	}
	return nil
}

// newAnalyzer wires the GitHub client, the configured cache and the service.
// The returned func releases the cache backend.
func newAnalyzer(ctx context.Context, cfg *config.Config, opts *Options, events chan tui.Event) (*service.Analyzer, *ghclient.Client, func(), error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = cfg.GetMaxPages()
	}

	clientOpts := ghclient.Options{
		Token:    cfg.GetGitHubToken(),
		BaseURL:  cfg.GetBaseURL(),
		Timeout:  cfg.GetRequestTimeout(),
		MaxPages: maxPages,
	}
	if events != nil {
		clientOpts.Progress = tui.FetchProgress(events)
	}
	client, err := ghclient.NewClient(clientOpts)
	if err != nil {
		return nil, nil, nil, err
	}
	if !client.Authenticated() {
		log.Info("GITHUB_TOKEN not set, using unauthenticated requests")
	}

	var store cache.Store
	if !opts.NoCache {
		store, err = openStore(ctx, cfg, "")
		if err != nil {
			// A broken cache should not block the analysis itself
			log.Warn("cache unavailable, continuing without it", "error", err)
			store = nil
		}
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = cfg.GetTopN()
	}

	analyzer := service.New(client, store, service.Options{
		TopN:    topN,
		Refresh: opts.Refresh,
	})
	return analyzer, client, func() { closeStore(store) }, nil
}

// reportProgress translates the finished analysis into task events.
func reportProgress(rt *analyzeRuntime, report service.Report, client *ghclient.Client) {
	if status := client.RateLimitStatus(); status.Limited {
		tui.SendEvent(rt.events, tui.RateLimitEvent{Limited: true, ResetAt: status.ResetAt})
	}

	if res, failed := report.Error(); failed {
		rt.sendEvent(tui.TaskProfile, tui.StatusError, tui.WithError(res))
		rt.sendEvent(tui.TaskRepos, tui.StatusSkipped)
		rt.sendEvent(tui.TaskAnalyze, tui.StatusSkipped)
		return
	}

	res, _ := report.Success()
	if report.FromCache {
		rt.sendEvent(tui.TaskProfile, tui.StatusComplete, tui.WithMessage("cached"))
		rt.sendEvent(tui.TaskRepos, tui.StatusComplete, tui.WithMessage("cached"), tui.WithCount(len(res.Repositories)))
	} else {
		rt.sendEvent(tui.TaskRepos, tui.StatusComplete, tui.WithCount(len(res.Repositories)), tui.WithProgress(1))
	}
	rt.sendEvent(tui.TaskAnalyze, tui.StatusComplete, tui.WithCount(len(report.Languages)))
}

// openStore opens the cache backend from config. backend overrides the
// configured backend when non-empty. A nil Store means caching is disabled.
func openStore(ctx context.Context, cfg *config.Config, backend string) (cache.Store, error) {
	if backend == "" {
		backend = cfg.GetCacheBackend()
	}
	return cache.New(ctx, cache.Options{
		Backend:   backend,
		TTL:       cfg.GetCacheTTL(),
		Dir:       cfg.GetCacheDir(),
		RedisAddr: cfg.GetRedisAddr(),
		RedisDB:   cfg.GetRedisDB(),
	})
}

// closeStore releases backends that hold connections.
func closeStore(store cache.Store) {
	c, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Debug("failed to close cache", "error", err)
	}
}
