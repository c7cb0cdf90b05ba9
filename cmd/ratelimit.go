package cmd

import (
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/spiffcs/gitgazer/config"
	"github.com/spiffcs/gitgazer/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus())
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long: `Display the REST API quota available to gitgazer. Without GITHUB_TOKEN
this is the unauthenticated per-IP quota.`,
		RunE: runRateLimitStatus,
	}
}

func runRateLimitStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := ghclient.NewClient(ghclient.Options{
		Token:   cfg.GetGitHubToken(),
		BaseURL: cfg.GetBaseURL(),
		Timeout: cfg.GetRequestTimeout(),
	})
	if err != nil {
		return err
	}

	limits, err := client.RateLimits(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	auth := "unauthenticated"
	if client.Authenticated() {
		auth = "authenticated"
	}
	fmt.Fprintf(w, "GitHub API Rate Limits (%s):\n\n", auth)
	printRate(w, "Core API:  ", limits.Core, time.Now())
	printRate(w, "Search API:", limits.Search, time.Now())
	return nil
}

func printRate(w io.Writer, label string, rate *gh.Rate, now time.Time) {
	if rate == nil {
		return
	}
	resetIn := rate.Reset.Time.Sub(now).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}
	fmt.Fprintf(w, "%s %d/%d remaining (resets in %s)\n", label, rate.Remaining, rate.Limit, resetIn)
}
