package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vulnsift.dev/pkg/vulnsift/internal/controller"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

func TestExportCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		match func(domain.ExportArgs) bool
	}{
		{
			name: "sarif to stdout by default",
			args: []string{"export", "scan-1"},
			match: func(a domain.ExportArgs) bool {
				return a.ID == "scan-1" && a.Format == controller.FormatSARIF && a.Output == "" && a.Writer != nil
			},
		},
		{
			name: "yaml to file",
			args: []string{"export", "scan-2", "-f", "yml", "-o", "report.yaml"},
			match: func(a domain.ExportArgs) bool {
				return a.ID == "scan-2" && a.Format == controller.FormatYAML && a.Output == m.Path("report.yaml")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockWorkflow := useMockWorkflow(t)
			cmd, _ := newTestRoot(t, newExportCmd())

			mockWorkflow.On("Export", mock.Anything, mock.MatchedBy(tt.match)).Return(nil).Once()

			cmd.SetArgs(tt.args)
			require.NoError(t, cmd.Execute())
		})
	}
}

func TestExportCmd_UnknownFormat(t *testing.T) {
	useMockWorkflow(t)
	cmd, _ := newTestRoot(t, newExportCmd())

	cmd.SetArgs([]string{"export", "scan-1", "-f", "pdf"})
	require.ErrorIs(t, cmd.Execute(), controller.ErrUnknownFormat)
}
