package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiffcs/gitgazer/config"
	"github.com/spiffcs/gitgazer/internal/cache"
	"github.com/spiffcs/gitgazer/internal/ghclient"
	"github.com/spiffcs/gitgazer/internal/log"
	"github.com/spiffcs/gitgazer/internal/server"
	"github.com/spiffcs/gitgazer/internal/service"
)

type serveOptions struct {
	Addr      string
	Cache     string
	Verbosity int
}

// NewCmdServe creates the serve command.
func NewCmdServe() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve profile analyses over HTTP",
		Long: `Starts an HTTP API that analyzes GitHub profiles on request.

Endpoints:
  GET /health
  GET /api/v1/profiles/{username}
  GET /api/v1/profiles/{username}/languages
  GET /api/v1/profiles/{username}/top?n=10
  GET /api/v1/profiles/{username}/timeline
  GET /api/v1/profiles/{username}/repositories

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.Cache, "cache", cache.BackendMemory, "Cache backend (memory, file, redis, none)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	// Request logs are the point of a server, so info is the floor
	log.Initialize(max(opts.Verbosity, 1), os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ghclient.NewClient(ghclient.Options{
		Token:    cfg.GetGitHubToken(),
		BaseURL:  cfg.GetBaseURL(),
		Timeout:  cfg.GetRequestTimeout(),
		MaxPages: cfg.GetMaxPages(),
	})
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, opts.Cache)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer closeStore(store)

	analyzer := service.New(client, store, service.Options{TopN: cfg.GetTopN()})

	addr := opts.Addr
	if addr == "" {
		addr = cfg.GetServerAddr()
	}

	srv := server.New(analyzer, server.Options{
		AllowOrigins: cfg.GetAllowOrigins(),
		Version:      version,
	})
	return srv.Run(ctx, addr)
}
