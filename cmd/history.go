package cmd

import (
	"github.com/spf13/cobra"
)

var historyLimitFlag int

// historyCmd represents the history command.
var historyCmd = newHistoryCmd()

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := getWorkflow(cmd, false)
			if err != nil {
				return err
			}

			return wf.History(cmd.Context(), historyLimitFlag)
		},
	}

	cmd.Flags().IntVarP(&historyLimitFlag, limitFlagName, "n", defaultHistoryLimit, "maximum number of scans to list")
	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Show the issues of a recorded scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := getWorkflow(cmd, false)
			if err != nil {
				return err
			}

			return wf.Show(cmd.Context(), args[0])
		},
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
