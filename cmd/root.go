package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrReported marks failures whose message has already been written to
// stdout, so main should exit non-zero without printing it again.
var ErrReported = errors.New("analysis failed")

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "gitgazer [username]",
		Short: "Analyze a GitHub user's public repositories",
		Long: `Fetches a GitHub profile and all of its public repositories, then
summarizes them: language distribution, most starred repositories, a
repository creation timeline and a full repository table.

Results are cached for an hour. Set GITHUB_TOKEN for higher rate limits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runAnalyze(cmd, args[0], opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// `gitgazer octocat` and `gitgazer analyze octocat` take the same flags
	addAnalyzeFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdAnalyze(opts))
	rootCmd.AddCommand(NewCmdServe())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit())

	return rootCmd
}
