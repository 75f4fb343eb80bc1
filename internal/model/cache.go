package model

import "time"

// CacheVersion is the schema version written to new cache files.
const CacheVersion = "1.0"

// CacheMetadata carries run counters for a project's cache.
type CacheMetadata struct {
	TotalScans       int     `json:"total_scans"`
	LastScanDuration float64 `json:"last_scan_duration"`
}

// ScanCache is the persisted incremental state of one project root.
// It is owned by a single scan at a time and never shared between goroutines.
type ScanCache struct {
	Version     string                    `json:"version"`
	LastScan    *time.Time                `json:"last_scan"`
	FileHashes  map[Path]string           `json:"file_hashes"`
	ScanResults map[Path][]IssueCandidate `json:"scan_results"`
	Metadata    CacheMetadata             `json:"metadata"`
}

// NewScanCache returns an empty cache at the current schema version.
func NewScanCache() *ScanCache {
	return &ScanCache{
		Version:     CacheVersion,
		FileHashes:  map[Path]string{},
		ScanResults: map[Path][]IssueCandidate{},
	}
}

// Normalize fills nil maps left behind by a sparse cache document.
func (c *ScanCache) Normalize() {
	if c.Version == "" {
		c.Version = CacheVersion
	}

	if c.FileHashes == nil {
		c.FileHashes = map[Path]string{}
	}

	if c.ScanResults == nil {
		c.ScanResults = map[Path][]IssueCandidate{}
	}
}

// Forget drops every entry for path.
func (c *ScanCache) Forget(path Path) {
	delete(c.FileHashes, path)
	delete(c.ScanResults, path)
}

// CacheInfo describes a cache file on disk.
type CacheInfo struct {
	Path         Path       `json:"path" yaml:"path"`
	Exists       bool       `json:"exists" yaml:"exists"`
	SizeBytes    int64      `json:"size_bytes" yaml:"size_bytes"`
	TrackedFiles int        `json:"tracked_files" yaml:"tracked_files"`
	CachedIssues int        `json:"cached_issues" yaml:"cached_issues"`
	TotalScans   int        `json:"total_scans" yaml:"total_scans"`
	LastScan     *time.Time `json:"last_scan" yaml:"last_scan"`
}
