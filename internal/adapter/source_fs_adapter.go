// Package adapter contains infrastructure adapters for the vulnsift CLI.
package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// ErrInvalidRoot is returned when the scan root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid scan root")

// defaultExcludedDirs holds lower-cased directory names that are never descended into.
var defaultExcludedDirs = []string{
	".git", ".venv", "venv", "env", "node_modules", "dist", "build", "__pycache__",
	"target", ".idea", ".vscode", ".tox", "coverage", "tmp", "temp", "logs",
	"vendor", "bin", "obj", ".next", ".nuxt",
}

// DiscoverOptions tunes file discovery.
type DiscoverOptions struct {
	// ExcludeDirs adds directory names to the built-in exclusion set.
	ExcludeDirs []string
	// UseGitignore skips paths matched by the root .gitignore.
	UseGitignore bool
}

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning user projects. It hides direct `os` access so the
// pipeline can be tested without touching the disk.
type SourceFSAdapter interface {
	// Discover returns absolute paths of every allow-listed file under root.
	// Unreadable entries are logged and omitted.
	Discover(ctx context.Context, root m.Path, opts DiscoverOptions) ([]m.Path, error)

	// Walk visits every directory under root that discovery would descend into.
	Walk(root m.Path, opts DiscoverOptions, fn func(dir m.Path) error) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns the hex SHA-256 of the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// AbsRoot resolves root to a cleaned absolute directory path.
	AbsRoot(root m.Path) (m.Path, error)

	// WriteFileAtomic replaces path with content so readers never see a partial write.
	WriteFileAtomic(path m.Path, content []byte) error

	// RemoveFile deletes path, ignoring a missing file.
	RemoveFile(path m.Path) error
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// AbsRoot resolves root and checks it is an existing directory.
func (a *LocalSourceFSAdapter) AbsRoot(root m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(root))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	return m.Path(filepath.Clean(abs)), nil
}

// Discover walks root and collects allow-listed source files.
func (a *LocalSourceFSAdapter) Discover(ctx context.Context, root m.Path, opts DiscoverOptions) ([]m.Path, error) {
	absRoot, err := a.AbsRoot(root)
	if err != nil {
		return nil, err
	}

	var files []m.Path

	err = a.walk(ctx, absRoot, opts, func(path string, entry fs.DirEntry) {
		if entry.IsDir() || !entry.Type().IsRegular() {
			return
		}

		if m.IsSupportedPath(m.Path(path)) {
			files = append(files, m.Path(path))
		}
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Walk visits root and every non-excluded directory below it.
func (a *LocalSourceFSAdapter) Walk(root m.Path, opts DiscoverOptions, fn func(dir m.Path) error) error {
	absRoot, err := a.AbsRoot(root)
	if err != nil {
		return err
	}

	var visitErr error

	err = a.walk(context.Background(), absRoot, opts, func(path string, entry fs.DirEntry) {
		if visitErr != nil || !entry.IsDir() {
			return
		}

		visitErr = fn(m.Path(path))
	})
	if err != nil {
		return err
	}

	return visitErr
}

func (a *LocalSourceFSAdapter) walk(ctx context.Context, root m.Path, opts DiscoverOptions, visit func(string, fs.DirEntry)) error {
	excluded := excludedDirSet(opts.ExcludeDirs)
	matcher := a.loadGitignore(root, opts.UseGitignore)
	rootStr := string(root)

	return filepath.WalkDir(rootStr, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == rootStr {
				return fmt.Errorf("%w: %w", ErrInvalidRoot, err)
			}

			slog.Warn("skipping unreadable path", "path", path, "error", err)

			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if path != rootStr {
			if entry.IsDir() {
				if _, skip := excluded[strings.ToLower(entry.Name())]; skip {
					return filepath.SkipDir
				}
			}

			if matcher != nil {
				if rel, relErr := filepath.Rel(rootStr, path); relErr == nil && matcher.MatchesPath(filepath.ToSlash(rel)) {
					if entry.IsDir() {
						return filepath.SkipDir
					}

					return nil
				}
			}
		}

		visit(path, entry)

		return nil
	})
}

func (a *LocalSourceFSAdapter) loadGitignore(root m.Path, enabled bool) *ignore.GitIgnore {
	if !enabled {
		return nil
	}

	path := filepath.Join(string(root), ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		slog.Warn("ignoring unreadable .gitignore", "path", path, "error", err)
		return nil
	}

	return matcher
}

func excludedDirSet(extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(defaultExcludedDirs)+len(extra))
	for _, name := range defaultExcludedDirs {
		set[name] = struct{}{}
	}

	for _, name := range extra {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			set[name] = struct{}{}
		}
	}

	return set
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// WriteFileAtomic writes to a sibling temp file, fsyncs it and renames it over path.
func (a *LocalSourceFSAdapter) WriteFileAtomic(path m.Path, content []byte) error {
	target := string(path)
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp.*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()

		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()

		return err
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}

	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return err
	}

	return syncDir(dir)
}

// RemoveFile deletes path if it exists.
func (a *LocalSourceFSAdapter) RemoveFile(path m.Path) error {
	err := os.Remove(string(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	d, err := os.Open(dir)
	if err != nil {
		return nil
	}

	defer func() { _ = d.Close() }()

	return d.Sync()
}
