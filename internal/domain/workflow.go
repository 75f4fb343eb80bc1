package domain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	"vulnsift.dev/pkg/vulnsift/internal/controller"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// ScanArgs selects the scan mode and where a machine-readable report goes.
type ScanArgs struct {
	Root        m.Path
	Incremental bool
	ForceFull   bool
	// Format and Output write a report file next to the UI output when Output is set.
	Format controller.Format
	Output m.Path
	// NoHistory skips recording the scan in the result store.
	NoHistory bool
}

// ExportArgs selects a stored scan and the report destination.
// An empty Output writes to Writer.
type ExportArgs struct {
	ID     string
	Format controller.Format
	Output m.Path
	Writer io.Writer
}

// Workflow is the set of use cases behind the CLI commands.
type Workflow interface {
	Scan(ctx context.Context, args ScanArgs) (m.ScanResult, error)
	History(ctx context.Context, limit int) error
	Show(ctx context.Context, id string) error
	Export(ctx context.Context, args ExportArgs) error
	CacheStats(ctx context.Context, root m.Path) error
	ClearCache(ctx context.Context, root m.Path) error
}

// StoreOpener opens the result store on demand so commands that never touch
// history never create the database.
type StoreOpener func() (adapter.ResultStore, error)

type workflow struct {
	adapter.SourceFSAdapter
	adapter.CacheStore
	controller.UI
	Scanner
	openStore StoreOpener
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	cacheStore adapter.CacheStore,
	ui controller.UI,
	scanner Scanner,
	openStore StoreOpener,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		CacheStore:      cacheStore,
		UI:              ui,
		Scanner:         scanner,
		openStore:       openStore,
	}
}

func (w *workflow) Scan(ctx context.Context, args ScanArgs) (m.ScanResult, error) {
	if err := w.Start(ctx, controller.WithScanMode(args.Root)); err != nil {
		return m.ScanResult{}, fmt.Errorf("start ui: %w", err)
	}

	var (
		result m.ScanResult
		err    error
	)

	if args.Incremental || args.ForceFull {
		result, err = w.ScanIncremental(ctx, args.Root, args.ForceFull)
	} else {
		result, err = w.Scanner.Scan(ctx, args.Root)
	}

	if err != nil {
		w.Close(ctx)
		return m.ScanResult{}, fmt.Errorf("scan %s: %w", args.Root, err)
	}

	if !args.NoHistory {
		w.recordScan(ctx, result)
	}

	if args.Output != "" {
		if err := w.writeReport(result, args.Format, args.Output); err != nil {
			w.Close(ctx)
			return result, err
		}
	}

	if err := w.DisplayScanResult(ctx, result); err != nil {
		w.Close(ctx)
		return result, fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return result, nil
}

// recordScan stores the result; history is best effort and never fails a scan.
func (w *workflow) recordScan(ctx context.Context, result m.ScanResult) {
	store, err := w.openStore()
	if err != nil {
		slog.Warn("result store unavailable, scan not recorded", "error", err)
		return
	}
	defer closeStore(store)

	if err := store.SaveScan(ctx, result); err != nil {
		slog.Warn("failed to record scan", "id", result.ID, "error", err)
	}
}

func (w *workflow) History(ctx context.Context, limit int) error {
	store, err := w.openStore()
	if err != nil {
		return fmt.Errorf("open result store: %w", err)
	}
	defer closeStore(store)

	records, err := store.ListScans(ctx, limit)
	if err != nil {
		return fmt.Errorf("list scans: %w", err)
	}

	return w.DisplayHistory(ctx, records)
}

func (w *workflow) Show(ctx context.Context, id string) error {
	result, err := w.loadScan(ctx, id)
	if err != nil {
		return err
	}

	return w.DisplayScanResult(ctx, result)
}

func (w *workflow) Export(ctx context.Context, args ExportArgs) error {
	result, err := w.loadScan(ctx, args.ID)
	if err != nil {
		return err
	}

	if args.Output != "" {
		return w.writeReport(result, args.Format, args.Output)
	}

	if err := controller.WriteReport(args.Writer, args.Format, result); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (w *workflow) CacheStats(ctx context.Context, root m.Path) error {
	absRoot, err := w.AbsRoot(root)
	if err != nil {
		return err
	}

	info, err := w.Info(absRoot)
	if err != nil {
		return fmt.Errorf("read cache info: %w", err)
	}

	return w.DisplayCacheInfo(ctx, info)
}

func (w *workflow) ClearCache(ctx context.Context, root m.Path) error {
	absRoot, err := w.AbsRoot(root)
	if err != nil {
		return err
	}

	if err := w.Clear(absRoot); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	slog.Info("cache cleared", "root", absRoot)

	return w.DisplayCacheCleared(ctx, w.CachePath(absRoot))
}

func (w *workflow) loadScan(ctx context.Context, id string) (m.ScanResult, error) {
	store, err := w.openStore()
	if err != nil {
		return m.ScanResult{}, fmt.Errorf("open result store: %w", err)
	}
	defer closeStore(store)

	result, err := store.GetScan(ctx, id)
	if err != nil {
		return m.ScanResult{}, fmt.Errorf("get scan %s: %w", id, err)
	}

	return result, nil
}

func (w *workflow) writeReport(result m.ScanResult, format controller.Format, output m.Path) error {
	var buf bytes.Buffer

	if err := controller.WriteReport(&buf, format, result); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if err := w.WriteFileAtomic(output, buf.Bytes()); err != nil {
		return fmt.Errorf("write report %s: %w", output, err)
	}

	slog.Info("report written", "path", output, "format", format)

	return nil
}

func closeStore(store adapter.ResultStore) {
	if err := store.Close(); err != nil {
		slog.Warn("failed to close result store", "error", err)
	}
}
