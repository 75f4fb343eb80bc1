package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return cmd, &buf
}

func sampleResult() m.ScanResult {
	return m.ScanResult{
		ID:   "scan-1",
		Root: "/repo",
		Mode: m.ModeFull,
		Issues: []m.IssueCandidate{
			{
				FilePath:          "/repo/app.py",
				LineNumber:        3,
				RuleID:            "PY-003",
				VulnerabilityType: "Command Injection",
				Severity:          m.SeverityCritical,
				Confidence:        m.ConfidenceHigh,
				Snippet:           "os.system(cmd)",
				SuggestedFix:      "subprocess.run(args, check=True)",
				FixTheory:         "Argument lists bypass the shell.",
				Origin:            m.OriginTaint,
			},
			{
				FilePath:          "/repo/util.py",
				LineNumber:        8,
				RuleID:            "PY-008",
				VulnerabilityType: "Weak Hash",
				Severity:          m.SeverityMedium,
				Confidence:        m.ConfidenceMedium,
				Origin:            m.OriginStatic,
			},
		},
		Stats:      m.ScanStats{TotalFiles: 4, ScannedFiles: 4, CleanFiles: 2, FlaggedFiles: 2},
		SmellScore: 7,
	}
}

func TestSimpleUI_DisplayScanResult(t *testing.T) {
	tests := []struct {
		name         string
		result       m.ScanResult
		wantContains []string
	}{
		{
			name:         "no issues",
			result:       m.ScanResult{ID: "scan-0", Root: "/repo", Mode: m.ModeIncremental},
			wantContains: []string{"No issues found in /repo", "scan-0", "incremental"},
		},
		{
			name:   "issues with fix",
			result: sampleResult(),
			wantContains: []string{
				"app.py:3", "util.py:8", "Command Injection", "PY-003", "Total 2",
				"-os.system(cmd)", "+subprocess.run(args, check=True)", "Why: Argument lists bypass the shell.",
				"Smell score", "2.0x", "50.0%",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, buf := newTestCmd()

			ui := NewSimpleUI(cmd)
			if err := ui.DisplayScanResult(context.Background(), tt.result); err != nil {
				t.Fatalf("DisplayScanResult() error = %v", err)
			}

			got := buf.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("DisplayScanResult() output missing %q, got: %s", want, got)
				}
			}
		})
	}
}

func TestSimpleUI_IssuesOrderedBySeverity(t *testing.T) {
	cmd, buf := newTestCmd()

	result := sampleResult()
	result.Issues[0], result.Issues[1] = result.Issues[1], result.Issues[0]

	if err := NewSimpleUI(cmd).DisplayScanResult(context.Background(), result); err != nil {
		t.Fatalf("DisplayScanResult() error = %v", err)
	}

	got := buf.String()
	if strings.Index(got, "app.py:3") > strings.Index(got, "util.py:8") {
		t.Errorf("critical issue should be listed first, got: %s", got)
	}
}

func TestSimpleUI_Progress(t *testing.T) {
	cmd, buf := newTestCmd()
	ui := NewSimpleUI(cmd)

	if err := ui.Start(context.Background(), WithScanMode("/repo")); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ui.FilesDiscovered(3)
	ui.FileProcessed("/repo/a.py")
	ui.FileProcessed("/repo/b.py")
	ui.ValidationFinished(time.Second, true)
	ui.ScanFinished(m.ModeFull, m.ScanStats{})

	got := buf.String()
	for _, want := range []string{"Scanning /repo", "Found 3 source file(s)", "Analyzed 2/3 file(s) (full)"} {
		if !strings.Contains(got, want) {
			t.Errorf("progress output missing %q, got: %s", want, got)
		}
	}
}

func TestSimpleUI_StartReportModeIsQuiet(t *testing.T) {
	cmd, buf := newTestCmd()

	if err := NewSimpleUI(cmd).Start(context.Background(), WithReportMode()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("report mode should print nothing on start, got: %s", buf.String())
	}
}

func TestSimpleUI_StartCancelled(t *testing.T) {
	cmd, _ := newTestCmd()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewSimpleUI(cmd).Start(ctx); err == nil {
		t.Error("Start() should fail on a cancelled context")
	}
}

func TestSimpleUI_DisplayHistory(t *testing.T) {
	cmd, buf := newTestCmd()
	ui := NewSimpleUI(cmd)

	if err := ui.DisplayHistory(context.Background(), nil); err != nil {
		t.Fatalf("DisplayHistory() error = %v", err)
	}

	if !strings.Contains(buf.String(), "No scans recorded yet") {
		t.Errorf("expected empty message, got: %s", buf.String())
	}

	buf.Reset()

	records := []m.ScanRecord{{
		ID: "abc", Root: "/repo", Mode: m.ModeFull, StartedAt: time.Now(),
		FilesScanned: 12, IssueCount: 3, SmellScore: 9,
	}}

	if err := ui.DisplayHistory(context.Background(), records); err != nil {
		t.Fatalf("DisplayHistory() error = %v", err)
	}

	for _, want := range []string{"abc", "/repo", "12", "9"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("history output missing %q, got: %s", want, buf.String())
		}
	}
}

func TestSimpleUI_DisplayCache(t *testing.T) {
	cmd, buf := newTestCmd()
	ui := NewSimpleUI(cmd)

	info := m.CacheInfo{Path: "/repo/.vulnsift_cache.json", Exists: true, SizeBytes: 2048, TrackedFiles: 5, TotalScans: 2}
	if err := ui.DisplayCacheInfo(context.Background(), info); err != nil {
		t.Fatalf("DisplayCacheInfo() error = %v", err)
	}

	for _, want := range []string{".vulnsift_cache.json", "2.0 KB", "never"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("cache output missing %q, got: %s", want, buf.String())
		}
	}

	buf.Reset()

	if err := ui.DisplayCacheCleared(context.Background(), info.Path); err != nil {
		t.Fatalf("DisplayCacheCleared() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Cache cleared: /repo/.vulnsift_cache.json") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestRelPath(t *testing.T) {
	tests := []struct {
		root, path m.Path
		want       string
	}{
		{"/repo", "/repo/a/b.py", "a/b.py"},
		{"", "/repo/a.py", "/repo/a.py"},
		{"/repo", "/repo", "/repo"},
	}

	for _, tt := range tests {
		if got := relPath(tt.root, tt.path); got != tt.want {
			t.Errorf("relPath(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}
