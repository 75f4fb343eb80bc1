// Package controller provides output adapters for displaying scan progress and results.
package controller

import (
	"context"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeReport StartMode = iota
	ModeScan
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
	root m.Path
}

// WithScanMode shows live progress for a scan of root.
func WithScanMode(root m.Path) StartOption {
	return func(c *StartConfig) {
		c.mode = ModeScan
		c.root = root
	}
}

// WithReportMode only renders results.
func WithReportMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeReport
	}
}

func newStartConfig(options []StartOption) StartConfig {
	config := StartConfig{mode: ModeReport}
	for _, opt := range options {
		opt(&config)
	}

	return config
}

// UI displays scan progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
// The progress methods are called from scan goroutines and must be safe for concurrent use.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)

	FilesDiscovered(total int)
	FileProcessed(path m.Path)
	ValidationFinished(elapsed time.Duration, ok bool)
	ScanFinished(mode m.ScanMode, stats m.ScanStats)

	DisplayScanResult(ctx context.Context, result m.ScanResult) error
	DisplayHistory(ctx context.Context, records []m.ScanRecord) error
	DisplayCacheInfo(ctx context.Context, info m.CacheInfo) error
	DisplayCacheCleared(ctx context.Context, path m.Path) error
}

// NewUI picks the interactive TUI for terminals and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
