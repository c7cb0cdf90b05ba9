package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/gitgazer/config"
	"github.com/spiffcs/gitgazer/internal/cache"
	"github.com/spiffcs/gitgazer/internal/format"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the profile result cache",
	}

	cmd.PersistentFlags().StringVar(&backend, "backend", "", "Cache backend to act on (default from config)")

	cmd.AddCommand(newCmdCacheClear(&backend))
	cmd.AddCommand(newCmdCacheStats(&backend))

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear(backend *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClear(cmd, *backend)
		},
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats(backend *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheStats(cmd, *backend)
		},
	}
}

func loadStore(cmd *cobra.Command, backend string) (cache.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStore(cmd.Context(), cfg, backend)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access cache: %w", err)
	}
	return store, cfg, nil
}

func runCacheClear(cmd *cobra.Command, backend string) error {
	store, _, err := loadStore(cmd, backend)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Caching is disabled.")
		return nil
	}
	defer closeStore(store)

	if err := store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, backend string) error {
	store, cfg, err := loadStore(cmd, backend)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Caching is disabled.")
		return nil
	}
	defer closeStore(store)

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Cache statistics:\n")
	fmt.Fprintf(w, "  Backend:  %s\n", stats.Backend)
	if stats.Location != "" {
		fmt.Fprintf(w, "  Location: %s\n", stats.Location)
	}
	fmt.Fprintf(w, "  TTL:      %s\n", format.Age(cfg.GetCacheTTL()))
	fmt.Fprintf(w, "  Profiles (total):   %d\n", stats.Total)
	fmt.Fprintf(w, "  Profiles (valid):   %d\n", stats.Valid)
	fmt.Fprintf(w, "  Profiles (expired): %d\n", stats.Total-stats.Valid)
	return nil
}
