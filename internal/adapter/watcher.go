package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// DefaultDebounce is the quiet period after the last event before a change batch fires.
const DefaultDebounce = 500 * time.Millisecond

// ChangeHandler receives one debounced batch of changed source files.
type ChangeHandler func(ctx context.Context, changed []m.Path) error

// SourceWatcher reports changes to source files under a root.
type SourceWatcher interface {
	// Watch blocks until ctx is cancelled. onChange runs on the watching
	// goroutine, so batches never overlap. An error from onChange stops the watch.
	Watch(ctx context.Context, root m.Path, opts DiscoverOptions, onChange ChangeHandler) error
}

// FSNotifyWatcher watches every directory discovery would descend into.
type FSNotifyWatcher struct {
	fs       SourceFSAdapter
	debounce time.Duration
}

// NewFSNotifyWatcher creates a watcher. A non-positive debounce uses DefaultDebounce.
func NewFSNotifyWatcher(fsAdapter SourceFSAdapter, debounce time.Duration) *FSNotifyWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &FSNotifyWatcher{fs: fsAdapter, debounce: debounce}
}

// Watch implements SourceWatcher.
func (w *FSNotifyWatcher) Watch(ctx context.Context, root m.Path, opts DiscoverOptions, onChange ChangeHandler) error {
	absRoot, err := w.fs.AbsRoot(root)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, absRoot, opts); err != nil {
		return err
	}

	slog.Info("watching for changes", "root", absRoot, "debounce", w.debounce)

	excluded := excludedDirSet(opts.ExcludeDirs)
	pending := map[m.Path]struct{}{}

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			path := m.Path(event.Name)

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if _, skip := excluded[strings.ToLower(info.Name())]; skip {
						continue
					}

					if err := w.addTree(watcher, path, opts); err != nil {
						slog.Warn("failed to watch new directory", "path", path, "error", err)
					}

					continue
				}
			}

			if !m.IsSupportedPath(path) || (event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write)) {
				continue
			}

			slog.Debug("source changed", "path", path, "op", event.Op.String())

			pending[path] = struct{}{}

			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("watch error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			changed := make([]m.Path, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}

			sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
			clear(pending)

			if err := onChange(ctx, changed); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}

				return fmt.Errorf("handle changes: %w", err)
			}
		}
	}
}

func (w *FSNotifyWatcher) addTree(watcher *fsnotify.Watcher, root m.Path, opts DiscoverOptions) error {
	err := w.fs.Walk(root, opts, func(dir m.Path) error {
		if err := watcher.Add(string(dir)); err != nil {
			slog.Warn("failed to watch directory", "path", dir, "error", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	return nil
}
