package domain

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

type scanState int

const (
	stateDiscover scanState = iota
	statePrefilter
	stateCacheDiff
	stateValidate
	stateMerge
	statePersist
	stateDone
)

func (s scanState) String() string {
	switch s {
	case stateDiscover:
		return "discover"
	case statePrefilter:
		return "prefilter"
	case stateCacheDiff:
		return "cache_diff"
	case stateValidate:
		return "validate"
	case stateMerge:
		return "merge"
	case statePersist:
		return "persist"
	case stateDone:
		return "done"
	}

	return "unknown"
}

// Scanner runs the hybrid pipeline over a project root.
type Scanner interface {
	Scan(ctx context.Context, root m.Path) (m.ScanResult, error)
	ScanIncremental(ctx context.Context, root m.Path, forceFull bool) (m.ScanResult, error)
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*scanner)

// WithVerifier enables the second-opinion pass over Critical candidates.
func WithVerifier(v Verifier) ScannerOption {
	return func(s *scanner) { s.verifier = v }
}

// WithObserver attaches progress and metrics hooks.
func WithObserver(o ScanObserver) ScannerOption {
	return func(s *scanner) { s.observer = observerOrNop(o) }
}

// WithDiscoverOptions sets extra excluded dirs and gitignore handling.
func WithDiscoverOptions(opts adapter.DiscoverOptions) ScannerOption {
	return func(s *scanner) { s.discover = opts }
}

// WithAnalysisConcurrency bounds the parallel prefilter and taint pass.
func WithAnalysisConcurrency(n int) ScannerOption {
	return func(s *scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

type scanner struct {
	fsAdapter   adapter.SourceFSAdapter
	cacheStore  adapter.CacheStore
	prefilter   StaticPreFilter
	taint       TaintTracker
	pool        ValidationPool
	verifier    Verifier
	observer    ScanObserver
	discover    adapter.DiscoverOptions
	concurrency int
	now         func() time.Time
}

// NewScanner wires the pipeline stages together.
func NewScanner(
	fsAdapter adapter.SourceFSAdapter,
	cacheStore adapter.CacheStore,
	prefilter StaticPreFilter,
	taint TaintTracker,
	pool ValidationPool,
	opts ...ScannerOption,
) Scanner {
	s := &scanner{
		fsAdapter:   fsAdapter,
		cacheStore:  cacheStore,
		prefilter:   prefilter,
		taint:       taint,
		pool:        pool,
		observer:    nopObserver{},
		discover:    adapter.DiscoverOptions{UseGitignore: true},
		concurrency: runtime.NumCPU(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// fileAnalysis is the prefilter and taint output of one file.
type fileAnalysis struct {
	path     m.Path
	content  []byte
	readable bool
	findings []m.StaticFinding
	taint    []m.IssueCandidate
	flagged  bool
}

// run carries the bookkeeping of one scan.
type run struct {
	result m.ScanResult
	start  time.Time
	state  scanState
}

func (r *run) enter(state scanState) {
	slog.Debug("scan state", "id", r.result.ID, "from", r.state, "to", state)
	r.state = state
}

func (s *scanner) newRun(mode m.ScanMode) *run {
	start := s.now()

	return &run{
		result: m.ScanResult{ID: uuid.NewString(), Mode: mode, StartedAt: start.UTC()},
		start:  start,
		state:  stateDiscover,
	}
}

func (s *scanner) Scan(ctx context.Context, root m.Path) (m.ScanResult, error) {
	r := s.newRun(m.ModeFull)

	absRoot, files, err := s.discoverFiles(ctx, root)
	if err != nil {
		return m.ScanResult{}, err
	}

	r.result.Root = absRoot
	r.result.Stats.TotalFiles = len(files)

	r.enter(statePrefilter)
	analyses := s.analyze(ctx, files)

	perFile := s.validateAndMerge(ctx, r, analyses)

	issues := make([]m.IssueCandidate, 0)
	for _, a := range analyses {
		issues = append(issues, perFile[a.path]...)
	}

	return s.finish(r, issues), nil
}

func (s *scanner) ScanIncremental(ctx context.Context, root m.Path, forceFull bool) (m.ScanResult, error) {
	r := s.newRun(m.ModeIncremental)

	absRoot, files, err := s.discoverFiles(ctx, root)
	if err != nil {
		return m.ScanResult{}, err
	}

	r.result.Root = absRoot
	r.result.Stats.TotalFiles = len(files)

	cache := s.cacheStore.Load(absRoot)

	r.enter(stateCacheDiff)

	diff := DiffCache(cache, files, s.fsAdapter, forceFull)
	r.result.Stats.CachedFiles = len(diff.Unchanged)

	slog.Info("incremental scan analysis",
		"root", absRoot,
		"total", len(files),
		"new", len(diff.New),
		"changed", len(diff.Changed),
		"unchanged", len(diff.Unchanged),
		"to_scan", len(diff.ToScan),
	)

	fresh := map[m.Path][]m.IssueCandidate{}

	if len(diff.ToScan) == 0 {
		slog.Info("no changes detected, using cached results", "root", absRoot)
	} else {
		r.enter(statePrefilter)
		analyses := s.analyze(ctx, diff.ToScan)
		fresh = s.validateAndMerge(ctx, r, analyses)

		for _, a := range analyses {
			if !a.readable {
				cache.Forget(a.path)
				continue
			}

			cache.ScanResults[a.path] = fresh[a.path]
		}
	}

	r.enter(statePersist)

	pruned := PruneCache(cache, files)
	r.result.Stats.PrunedFiles = len(pruned)

	if len(pruned) > 0 {
		slog.Info("removed deleted files from cache", "count", len(pruned))
	}

	issues := make([]m.IssueCandidate, 0)

	for _, path := range files {
		if list, ok := fresh[path]; ok {
			issues = append(issues, list...)
			continue
		}

		issues = append(issues, cache.ScanResults[path]...)
	}

	result := s.finish(r, issues)

	finished := s.now().UTC()
	cache.LastScan = &finished
	cache.Metadata.TotalScans++
	cache.Metadata.LastScanDuration = result.Stats.DurationSeconds

	if err := s.cacheStore.Save(absRoot, cache); err != nil {
		slog.Error("failed to save cache", "root", absRoot, "error", err)
	}

	return result, nil
}

func (s *scanner) discoverFiles(ctx context.Context, root m.Path) (m.Path, []m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	absRoot, err := s.fsAdapter.AbsRoot(root)
	if err != nil {
		return "", nil, err
	}

	files, err := s.fsAdapter.Discover(ctx, absRoot, s.discover)
	if err != nil {
		return "", nil, fmt.Errorf("discover files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	s.observer.FilesDiscovered(len(files))
	slog.Info("discovered files", "root", absRoot, "count", len(files))

	return absRoot, files, nil
}

// analyze runs the prefilter and taint pass in parallel. Each task writes
// only its own slot, so the result keeps the order of paths.
func (s *scanner) analyze(ctx context.Context, paths []m.Path) []fileAnalysis {
	analyses := make([]fileAnalysis, len(paths))

	var group errgroup.Group

	group.SetLimit(s.concurrency)

	for i, path := range paths {
		i, path := i, path

		group.Go(func() error {
			analyses[i] = s.analyzeFile(ctx, path)
			s.observer.FileProcessed(path)

			return nil
		})
	}

	_ = group.Wait()

	return analyses
}

func (s *scanner) analyzeFile(ctx context.Context, path m.Path) fileAnalysis {
	a := fileAnalysis{path: path}

	content, err := s.fsAdapter.ReadFile(path)
	if err != nil {
		slog.Warn("cannot read file, skipping", "path", path, "error", err)
		return a
	}

	a.content = content
	a.readable = true
	a.findings = s.prefilter.QuickScan(path, content)
	a.flagged = s.prefilter.ShouldEscalate(a.findings)

	if s.taint.Supports(m.LanguageForPath(path)) {
		a.taint = s.taint.Analyze(ctx, path, content)
	}

	return a
}

// validateAndMerge escalates flagged files and returns each readable file's
// deduplicated candidates, taint first.
func (s *scanner) validateAndMerge(ctx context.Context, r *run, analyses []fileAnalysis) map[m.Path][]m.IssueCandidate {
	stats := &r.result.Stats

	var jobs []ValidationJob

	for i, a := range analyses {
		if !a.readable {
			continue
		}

		stats.ScannedFiles++
		stats.StaticFindings += len(a.findings)
		stats.TaintFindings += len(a.taint)

		if a.flagged {
			stats.FlaggedFiles++

			jobs = append(jobs, ValidationJob{Index: i, Path: a.path, Content: a.content, Findings: a.findings})
		} else {
			stats.CleanFiles++
		}
	}

	r.enter(stateValidate)

	stats.ValidationTasks = len(jobs)
	validated := map[m.Path][]m.IssueCandidate{}

	if len(jobs) > 0 {
		slog.Info("validating flagged files", "count", len(jobs))
	}

	for _, outcome := range s.pool.Run(ctx, jobs) {
		if outcome.Failed() {
			stats.FailedValidations++
			continue
		}

		stats.ValidatedIssues += len(outcome.Issues)
		validated[outcome.Path] = outcome.Issues
	}

	r.enter(stateMerge)

	perFile := make(map[m.Path][]m.IssueCandidate, len(analyses))

	for _, a := range analyses {
		if !a.readable {
			continue
		}

		candidates := append([]m.IssueCandidate(nil), a.taint...)

		if a.flagged {
			candidates = append(candidates, validated[a.path]...)
		} else {
			for _, f := range a.findings {
				candidates = append(candidates, s.prefilter.ToCandidate(f))
			}
		}

		perFile[a.path] = Deduplicate(candidates)
	}

	if s.verifier != nil {
		s.verifyFresh(ctx, analyses, perFile)
	}

	return perFile
}

// verifyFresh runs the verification pass over this run's candidates only, so
// cached results are never sent again.
func (s *scanner) verifyFresh(ctx context.Context, analyses []fileAnalysis, perFile map[m.Path][]m.IssueCandidate) {
	var all []m.IssueCandidate

	for _, a := range analyses {
		all = append(all, perFile[a.path]...)
	}

	if len(all) == 0 {
		return
	}

	verified := s.verifier.Verify(ctx, all)

	offset := 0

	for _, a := range analyses {
		list, ok := perFile[a.path]
		if !ok {
			continue
		}

		n := len(list)
		perFile[a.path] = verified[offset : offset+n : offset+n]
		offset += n
	}
}

func (s *scanner) finish(r *run, issues []m.IssueCandidate) m.ScanResult {
	issues = Deduplicate(issues)

	r.result.Issues = issues
	r.result.SmellScore = SmellScore(issues)
	r.result.Stats.DurationSeconds = s.now().Sub(r.start).Seconds()

	r.enter(stateDone)

	s.observer.ScanFinished(r.result.Mode, r.result.Stats)

	slog.Info("scan complete",
		"id", r.result.ID,
		"mode", r.result.Mode,
		"issues", len(issues),
		"flagged", r.result.Stats.FlaggedFiles,
		"clean", r.result.Stats.CleanFiles,
		"duration", r.result.Stats.DurationSeconds,
	)

	return r.result
}
