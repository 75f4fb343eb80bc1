package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// scriptedWatcher delivers fixed batches, then returns.
type scriptedWatcher struct {
	batches  [][]m.Path
	debounce time.Duration
	err      error
}

func (w *scriptedWatcher) Watch(ctx context.Context, _ m.Path, _ adapter.DiscoverOptions, onChange adapter.ChangeHandler) error {
	for _, batch := range w.batches {
		if err := onChange(ctx, batch); err != nil {
			w.err = err
			return err
		}
	}

	return nil
}

func useScriptedWatcher(t *testing.T, batches ...[]m.Path) *scriptedWatcher {
	t.Helper()

	watcher := &scriptedWatcher{batches: batches}

	original := newSourceWatcher
	newSourceWatcher = func(debounce time.Duration) adapter.SourceWatcher {
		watcher.debounce = debounce
		return watcher
	}

	t.Cleanup(func() { newSourceWatcher = original })

	return watcher
}

func incrementalScanOf(root m.Path) interface{} {
	return mock.MatchedBy(func(a domain.ScanArgs) bool {
		return a.Root == root && a.Incremental && !a.ForceFull
	})
}

func TestWatchCmd_RescansOnChanges(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)
	watcher := useScriptedWatcher(t, []m.Path{"a.py"}, []m.Path{"b.go", "c.js"})
	cmd, _ := newTestRoot(t, newWatchCmd())

	mockWorkflow.On("Scan", mock.Anything, incrementalScanOf("./src")).Return(m.ScanResult{}, nil).Times(3)

	cmd.SetArgs([]string{"watch", "./src", "--debounce", "250ms"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 250*time.Millisecond, watcher.debounce)
}

func TestWatchCmd_InitialScanFailureStops(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)
	useScriptedWatcher(t, []m.Path{"a.py"})
	cmd, _ := newTestRoot(t, newWatchCmd())

	mockWorkflow.On("Scan", mock.Anything, mock.Anything).Return(m.ScanResult{}, adapter.ErrInvalidRoot).Once()

	cmd.SetArgs([]string{"watch", "/missing"})
	require.ErrorIs(t, cmd.Execute(), adapter.ErrInvalidRoot)
}

func TestWatchCmd_RescanFailureKeepsWatching(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)
	watcher := useScriptedWatcher(t, []m.Path{"a.py"}, []m.Path{"b.py"})
	cmd, _ := newTestRoot(t, newWatchCmd())

	mockWorkflow.On("Scan", mock.Anything, mock.Anything).Return(m.ScanResult{}, nil).Once()
	mockWorkflow.On("Scan", mock.Anything, mock.Anything).Return(m.ScanResult{}, errors.New("model offline")).Once()
	mockWorkflow.On("Scan", mock.Anything, mock.Anything).Return(m.ScanResult{}, nil).Once()

	cmd.SetArgs([]string{"watch"})
	require.NoError(t, cmd.Execute())
	assert.NoError(t, watcher.err)
}
