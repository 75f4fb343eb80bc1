package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// SimpleUI implements UI with plain text written to the command's output.
type SimpleUI struct {
	cmd *cobra.Command
	// styled renders severities as lipgloss badges.
	styled bool

	mu        sync.Mutex
	total     int
	processed int
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := newStartConfig(options)
	if config.mode == ModeScan {
		s.printf("Scanning %s\n", config.root)
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// Wait is a no-op; SimpleUI never blocks.
func (s *SimpleUI) Wait(context.Context) {}

// FilesDiscovered records the number of files the scan will look at.
func (s *SimpleUI) FilesDiscovered(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = total
	s.processed = 0

	s.printf("Found %d source file(s)\n", total)
}

// FileProcessed counts analyzed files. Plain output stays quiet per file.
func (s *SimpleUI) FileProcessed(m.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed++
}

// ValidationFinished is silent in plain output.
func (s *SimpleUI) ValidationFinished(time.Duration, bool) {}

// ScanFinished reports how many files were analyzed this run.
func (s *SimpleUI) ScanFinished(mode m.ScanMode, _ m.ScanStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.printf("Analyzed %d/%d file(s) (%s)\n", s.processed, s.total, mode)
}

// DisplayScanResult prints the issue table, fixes and the summary.
func (s *SimpleUI) DisplayScanResult(ctx context.Context, result m.ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(result.Issues) == 0 {
		s.printf("\nNo issues found in %s\n", result.Root)
	} else {
		s.printf("\n%s", renderIssueTable(result.Root, result.Issues, s.styled))
		s.printf("%s", renderFixes(result.Root, result.Issues))
	}

	s.printf("\n%s", renderSummary(result))

	return nil
}

// DisplayHistory prints stored scans, newest first.
func (s *SimpleUI) DisplayHistory(ctx context.Context, records []m.ScanRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(records) == 0 {
		s.printf("No scans recorded yet\n")
		return nil
	}

	s.printf("%s", renderHistoryTable(records))

	return nil
}

// DisplayCacheInfo prints cache statistics.
func (s *SimpleUI) DisplayCacheInfo(ctx context.Context, info m.CacheInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderCacheInfo(info))

	return nil
}

// DisplayCacheCleared confirms the cache file was removed.
func (s *SimpleUI) DisplayCacheCleared(ctx context.Context, path m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Cache cleared: %s\n", path)

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

// sortedIssues orders issues by severity, then path and line.
func sortedIssues(issues []m.IssueCandidate) []m.IssueCandidate {
	sorted := append([]m.IssueCandidate(nil), issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}

		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}

		return a.LineNumber < b.LineNumber
	})

	return sorted
}

func renderIssueTable(root m.Path, issues []m.IssueCandidate, styled bool) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Severity", "Location", "Type", "Rule", "Confidence", "Source"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	for _, issue := range sortedIssues(issues) {
		severity := string(issue.Severity)
		if styled {
			severity = severityBadge(issue.Severity)
		}

		table.Append([]string{
			severity,
			fmt.Sprintf("%s:%d", relPath(root, issue.FilePath), issue.LineNumber),
			issue.VulnerabilityType,
			issue.RuleID,
			string(issue.Confidence),
			string(issue.Origin),
		})
	}

	table.SetFooter([]string{"", fmt.Sprintf("Total %d", len(issues)), "", "", "", ""})
	table.Render()

	return buf.String()
}

// renderFixes prints a unified diff for every issue that carries both the
// vulnerable snippet and a suggested fix.
func renderFixes(root m.Path, issues []m.IssueCandidate) string {
	var b strings.Builder

	for _, issue := range sortedIssues(issues) {
		if issue.Snippet == "" || issue.SuggestedFix == "" {
			continue
		}

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(issue.Snippet + "\n"),
			B:        difflib.SplitLines(issue.SuggestedFix + "\n"),
			FromFile: fmt.Sprintf("%s:%d", relPath(root, issue.FilePath), issue.LineNumber),
			ToFile:   "suggested fix",
			Context:  1,
		})
		if err != nil || diff == "" {
			continue
		}

		fmt.Fprintf(&b, "\n%s (%s)\n%s", issue.VulnerabilityType, issue.RuleID, diff)

		if issue.FixTheory != "" {
			fmt.Fprintf(&b, "Why: %s\n", issue.FixTheory)
		}
	}

	return b.String()
}

func renderSummary(result m.ScanResult) string {
	var buf bytes.Buffer

	stats := result.Stats
	counts := map[m.Severity]int{}

	for _, issue := range result.Issues {
		counts[issue.Severity]++
	}

	table := newTable(&buf, []string{"Metric", "Value"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	rows := [][]string{
		{"Scan", result.ID},
		{"Mode", string(result.Mode)},
		{"Files", fmt.Sprintf("%d", stats.TotalFiles)},
		{"Scanned", fmt.Sprintf("%d", stats.ScannedFiles)},
		{"Cached", fmt.Sprintf("%d", stats.CachedFiles)},
		{"Clean", fmt.Sprintf("%d", stats.CleanFiles)},
		{"Flagged", fmt.Sprintf("%d", stats.FlaggedFiles)},
		{"Static findings", fmt.Sprintf("%d", stats.StaticFindings)},
		{"Taint findings", fmt.Sprintf("%d", stats.TaintFindings)},
		{"Validated issues", fmt.Sprintf("%d", stats.ValidatedIssues)},
		{"Failed validations", fmt.Sprintf("%d", stats.FailedValidations)},
	}

	for _, sev := range m.Severities {
		rows = append(rows, []string{string(sev), fmt.Sprintf("%d", counts[sev])})
	}

	rows = append(rows,
		[]string{"Smell score", fmt.Sprintf("%d", result.SmellScore)},
		[]string{"Speedup", fmt.Sprintf("%.1fx", stats.SpeedupFactor())},
		[]string{"Efficiency", fmt.Sprintf("%.1f%%", stats.Efficiency())},
		[]string{"Duration", fmt.Sprintf("%.2fs", stats.DurationSeconds)},
	)

	table.AppendBulk(rows)
	table.Render()

	return buf.String()
}

func renderHistoryTable(records []m.ScanRecord) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"ID", "Started", "Root", "Mode", "Files", "Issues", "Smell"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, r := range records {
		table.Append([]string{
			r.ID,
			r.StartedAt.Local().Format(timeLayout),
			string(r.Root),
			string(r.Mode),
			fmt.Sprintf("%d", r.FilesScanned),
			fmt.Sprintf("%d", r.IssueCount),
			fmt.Sprintf("%d", r.SmellScore),
		})
	}

	table.Render()

	return buf.String()
}

func renderCacheInfo(info m.CacheInfo) string {
	var buf bytes.Buffer

	lastScan := "never"
	if info.LastScan != nil {
		lastScan = info.LastScan.Local().Format(timeLayout)
	}

	table := newTable(&buf, []string{"Cache", "Value"})
	table.AppendBulk([][]string{
		{"Path", string(info.Path)},
		{"Exists", fmt.Sprintf("%t", info.Exists)},
		{"Size", fmt.Sprintf("%.1f KB", float64(info.SizeBytes)/1024)},
		{"Tracked files", fmt.Sprintf("%d", info.TrackedFiles)},
		{"Cached issues", fmt.Sprintf("%d", info.CachedIssues)},
		{"Total scans", fmt.Sprintf("%d", info.TotalScans)},
		{"Last scan", lastScan},
	})
	table.Render()

	return buf.String()
}

func relPath(root, path m.Path) string {
	if root == "" {
		return string(path)
	}

	rel := strings.TrimPrefix(string(path), string(root))
	rel = strings.TrimLeft(rel, `/\`)

	if rel == "" {
		return string(path)
	}

	return rel
}
