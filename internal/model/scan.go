package model

import "time"

// ScanMode tells a full scan from an incremental one.
type ScanMode string

// Scan modes.
const (
	ModeFull        ScanMode = "full"
	ModeIncremental ScanMode = "incremental"
)

// ScanStats summarizes one scan run. CleanFiles and FlaggedFiles count only
// the files analyzed in this run; carried-forward files show up in CachedFiles.
type ScanStats struct {
	TotalFiles        int     `json:"total_files" yaml:"total_files"`
	ScannedFiles      int     `json:"scanned_files" yaml:"scanned_files"`
	CachedFiles       int     `json:"cached_files" yaml:"cached_files"`
	CleanFiles        int     `json:"clean_files" yaml:"clean_files"`
	FlaggedFiles      int     `json:"flagged_files" yaml:"flagged_files"`
	StaticFindings    int     `json:"static_findings_count" yaml:"static_findings_count"`
	TaintFindings     int     `json:"taint_findings_count" yaml:"taint_findings_count"`
	ValidatedIssues   int     `json:"validated_issues_count" yaml:"validated_issues_count"`
	ValidationTasks   int     `json:"validation_tasks" yaml:"validation_tasks"`
	FailedValidations int     `json:"failed_validations" yaml:"failed_validations"`
	PrunedFiles       int     `json:"pruned_files" yaml:"pruned_files"`
	DurationSeconds   float64 `json:"duration_seconds" yaml:"duration_seconds"`
}

// SpeedupFactor is how many analyzed files there were per flagged file.
func (s ScanStats) SpeedupFactor() float64 {
	return float64(s.ScannedFiles) / float64(max(s.FlaggedFiles, 1))
}

// Efficiency is the percentage of analyzed files the static stage cleared.
func (s ScanStats) Efficiency() float64 {
	return float64(s.CleanFiles) / float64(max(s.ScannedFiles, 1)) * 100
}

// ScanResult is what a completed scan hands back to its caller.
type ScanResult struct {
	ID         string           `json:"id" yaml:"id"`
	Root       Path             `json:"root" yaml:"root"`
	Mode       ScanMode         `json:"mode" yaml:"mode"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	Issues     []IssueCandidate `json:"issues" yaml:"issues"`
	Stats      ScanStats        `json:"stats" yaml:"stats"`
	SmellScore int              `json:"smell_score" yaml:"smell_score"`
}

// ScanRecord is the summary row kept by the result store.
type ScanRecord struct {
	ID           string    `json:"id" yaml:"id"`
	Root         Path      `json:"root" yaml:"root"`
	Mode         ScanMode  `json:"mode" yaml:"mode"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	SmellScore   int       `json:"smell_score" yaml:"smell_score"`
	Duration     float64   `json:"duration_seconds" yaml:"duration_seconds"`
	FilesScanned int       `json:"files_scanned" yaml:"files_scanned"`
	IssueCount   int       `json:"issue_count" yaml:"issue_count"`
}

// InferenceRequest is one prompt sent to the inference service.
type InferenceRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}
