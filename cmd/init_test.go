package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_WritesConfigFile(t *testing.T) {
	cmd, out := newTestRoot(t, newInitCmd())
	cmd.SetArgs([]string{"init"})

	require.NoError(t, cmd.Execute())

	targetPath := filepath.Join(".", configFileName)

	info, err := os.Stat(targetPath)
	require.NoError(t, err)
	require.False(t, info.IsDir())

	contents, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "inference:")
	assert.Contains(t, out.String(), "Wrote")
}

func TestInitCmd_ErrorsWhenFileExists(t *testing.T) {
	cmd, _ := newTestRoot(t, newInitCmd())
	require.NoError(t, os.WriteFile(configFileName, []byte("existing: true\n"), 0o644))

	cmd.SetArgs([]string{"init"})
	require.Error(t, cmd.Execute())
}
