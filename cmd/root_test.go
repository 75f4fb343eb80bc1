package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	domainmocks "vulnsift.dev/pkg/vulnsift/internal/domain/mocks"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// useMockWorkflow swaps the package workflow for a mock until the test ends.
func useMockWorkflow(t *testing.T) *domainmocks.MockWorkflow {
	t.Helper()

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	original := workflow
	workflow = mockWorkflow

	t.Cleanup(func() { workflow = original })

	return mockWorkflow
}

// newTestRoot builds a root command with sub attached and output captured.
func newTestRoot(t *testing.T, sub *cobra.Command) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	chdir(t, t.TempDir())

	out := &bytes.Buffer{}

	cmd := newRootCmd()
	cmd.AddCommand(sub)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	return cmd, out
}

func TestRootArg(t *testing.T) {
	assert.Equal(t, m.Path("."), rootArg(nil))
	assert.Equal(t, m.Path("./src"), rootArg([]string{"./src"}))
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "vulnsift", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)

	for _, name := range []string{verboseFlagName, logFileFlagName, excludeFlagName, noGitignoreFlagName, providerFlagName, modelFlagName, urlFlagName} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd, out := newTestRoot(t, newVersionCmd())
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "taint tracker")
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"scan", "history", "export", "cache", "watch", "serve", "init", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestNewInferenceClient(t *testing.T) {
	t.Cleanup(func() { viper.Set(inferenceProviderKey, nil) })

	viper.Set(inferenceProviderKey, "ollama")

	client, err := newInferenceClient()
	require.NoError(t, err)
	assert.IsType(t, &adapter.OllamaClient{}, client)

	viper.Set(inferenceProviderKey, "bogus")

	_, err = newInferenceClient()
	assert.ErrorContains(t, err, "bogus")
}

func TestScanDiscoverOptions(t *testing.T) {
	t.Cleanup(func() { noGitignoreFlag = false })

	assert.True(t, scanDiscoverOptions().UseGitignore)

	noGitignoreFlag = true

	assert.False(t, scanDiscoverOptions().UseGitignore)
}

func TestExecute_WithError(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() {
		rootCmd = originalRootCmd
	}()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("command failed")
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	// Execute would exit the process, so check the command itself.
	err := rootCmd.Execute()
	require.Error(t, err)
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		rootCmd = &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				return fmt.Errorf("command failed")
			},
		}

		Execute()

		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	err := cmd.Run()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
}
