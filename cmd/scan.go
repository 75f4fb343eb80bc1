package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vulnsift.dev/pkg/vulnsift/internal/controller"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

var (
	scanIncrementalFlag bool
	scanForceFullFlag   bool
	scanVerifyFlag      bool
	scanWorkersFlag     int
	scanFormatFlag      string
	scanOutputFlag      string
	scanNoHistoryFlag   bool
)

const scanLongDescription = `Scan a directory (default: current directory) for vulnerabilities.

A full scan analyzes every source file and leaves the cache untouched.
With --incremental only files whose content changed since the last
incremental scan are analyzed; --force-full re-analyzes everything and
rebuilds the cache.`

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a source tree for vulnerabilities",
		Long:  scanLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanArgs, err := scanArgsFromFlags(args)
			if err != nil {
				return err
			}

			wf, err := getWorkflow(cmd, flagOrConfigBool(cmd, verifyFlagName, scanVerifyKey))
			if err != nil {
				return err
			}

			_, err = wf.Scan(cmd.Context(), scanArgs)

			return err
		},
	}

	configureScanFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func configureScanFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.BoolVarP(&scanIncrementalFlag, incrementalFlagName, "i", defaultIncremental, "only analyze files changed since the last incremental scan")
	bindFlagToConfig(flags.Lookup(incrementalFlagName), scanIncrementalKey)

	flags.BoolVar(&scanForceFullFlag, forceFullFlagName, false, "ignore the cache and re-analyze every file (rebuilds the cache)")

	flags.BoolVar(&scanVerifyFlag, verifyFlagName, defaultVerify, "re-check critical findings with a second inference call")

	flags.IntVarP(&scanWorkersFlag, workersFlagName, "w", domain.DefaultValidationWorkers, "concurrent validation calls")
	bindFlagToConfig(flags.Lookup(workersFlagName), scanWorkersKey)

	flags.StringVarP(&scanFormatFlag, formatFlagName, "f", string(controller.FormatJSON), "report format for --output (json, yaml, sarif)")
	flags.StringVarP(&scanOutputFlag, outputFlagName, "o", "", "write a machine-readable report to this file")
	flags.BoolVar(&scanNoHistoryFlag, noHistoryFlagName, false, "do not record the scan in the history database")
}

func scanArgsFromFlags(args []string) (domain.ScanArgs, error) {
	format, err := controller.ParseFormat(scanFormatFlag)
	if err != nil {
		return domain.ScanArgs{}, err
	}

	return domain.ScanArgs{
		Root:        rootArg(args),
		Incremental: viper.GetBool(scanIncrementalKey),
		ForceFull:   scanForceFullFlag,
		Format:      format,
		Output:      m.Path(scanOutputFlag),
		NoHistory:   scanNoHistoryFlag,
	}, nil
}
