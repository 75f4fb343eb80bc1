package cmd

import (
	"github.com/spf13/cobra"

	"vulnsift.dev/pkg/vulnsift/internal/controller"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

var (
	exportFormatFlag string
	exportOutputFlag string
)

// exportCmd represents the export command.
var exportCmd = newExportCmd()

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <scan-id>",
		Short: "Export a recorded scan as SARIF, JSON or YAML",
		Long: `Export a recorded scan. The report is written to stdout unless --output is set.
SARIF output can be uploaded to code scanning dashboards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := controller.ParseFormat(exportFormatFlag)
			if err != nil {
				return err
			}

			wf, err := getWorkflow(cmd, false)
			if err != nil {
				return err
			}

			return wf.Export(cmd.Context(), domain.ExportArgs{
				ID:     args[0],
				Format: format,
				Output: m.Path(exportOutputFlag),
				Writer: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&exportFormatFlag, formatFlagName, "f", string(controller.FormatSARIF), "report format (json, yaml, sarif)")
	cmd.Flags().StringVarP(&exportOutputFlag, outputFlagName, "o", "", "output file (default: stdout)")

	return cmd
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
