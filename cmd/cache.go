package cmd

import (
	"github.com/spf13/cobra"
)

// cacheCmd groups the incremental cache maintenance commands.
var cacheCmd = newCacheCmd()

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the incremental scan cache",
	}

	cmd.AddCommand(newCacheStatsCmd(), newCacheClearCmd())

	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [path]",
		Short: "Show cache statistics for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := getWorkflow(cmd, false)
			if err != nil {
				return err
			}

			return wf.CacheStats(cmd.Context(), rootArg(args))
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [path]",
		Short: "Delete the cache file so the next incremental scan starts fresh",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := getWorkflow(cmd, false)
			if err != nil {
				return err
			}

			return wf.ClearCache(cmd.Context(), rootArg(args))
		},
	}
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
