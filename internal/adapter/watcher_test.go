package adapter

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

func TestFSNotifyWatcher_DebouncesSourceChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))

	watcher := NewFSNotifyWatcher(NewLocalSourceFSAdapter(), 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		batches [][]m.Path
	)

	done := make(chan error, 1)

	go func() {
		done <- watcher.Watch(ctx, m.Path(root), DiscoverOptions{}, func(_ context.Context, changed []m.Path) error {
			mu.Lock()
			batches = append(batches, changed)
			mu.Unlock()
			cancel()

			return nil
		})
	}()

	// Give the watcher time to register its directories.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "lib.go"), []byte("package pkg\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored\n"), 0o644))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, batches, 1)
	assert.Contains(t, batches[0], m.Path(filepath.Join(root, "app.py")))
	assert.Contains(t, batches[0], m.Path(filepath.Join(root, "pkg", "lib.go")))
	assert.NotContains(t, batches[0], m.Path(filepath.Join(root, "notes.txt")))
}

func TestFSNotifyWatcher_InvalidRoot(t *testing.T) {
	watcher := NewFSNotifyWatcher(NewLocalSourceFSAdapter(), 0)

	err := watcher.Watch(context.Background(), m.Path(filepath.Join(t.TempDir(), "missing")), DiscoverOptions{},
		func(context.Context, []m.Path) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidRoot)
}
