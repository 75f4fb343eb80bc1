package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

var (
	watchDebounceFlag time.Duration
	watchVerifyFlag   bool
)

// newSourceWatcher is replaced in tests.
var newSourceWatcher = func(debounce time.Duration) adapter.SourceWatcher {
	return adapter.NewFSNotifyWatcher(adapter.NewLocalSourceFSAdapter(), debounce)
}

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Rescan incrementally whenever source files change",
		Long: `Run an incremental scan, then watch the tree and rescan after each burst
of source file changes. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := getWorkflow(cmd, flagOrConfigBool(cmd, verifyFlagName, scanVerifyKey))
			if err != nil {
				return err
			}

			return runWatch(cmd.Context(), wf, rootArg(args))
		},
	}

	cmd.Flags().DurationVar(&watchDebounceFlag, debounceFlagName, defaultWatchDebounce, "quiet period before a rescan")
	bindFlagToConfig(cmd.Flags().Lookup(debounceFlagName), watchDebounceKey)

	cmd.Flags().BoolVar(&watchVerifyFlag, verifyFlagName, defaultVerify, "re-check critical findings with a second inference call")

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, wf domain.Workflow, root m.Path) error {
	args := domain.ScanArgs{Root: root, Incremental: true}

	if _, err := wf.Scan(ctx, args); err != nil {
		return err
	}

	watcher := newSourceWatcher(viper.GetDuration(watchDebounceKey))

	return watcher.Watch(ctx, root, scanDiscoverOptions(), func(ctx context.Context, changed []m.Path) error {
		slog.Info("changes detected, rescanning", "root", root, "files", len(changed))

		if _, err := wf.Scan(ctx, args); err != nil {
			if errors.Is(err, adapter.ErrInvalidRoot) || ctx.Err() != nil {
				return err
			}

			// A failed rescan waits for the next change.
			slog.Error("rescan failed", "root", root, "error", err)
		}

		return nil
	})
}
