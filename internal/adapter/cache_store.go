package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// DefaultCacheFileName is the cache file created at each project root.
const DefaultCacheFileName = ".vulnsift_cache.json"

// CacheStore loads and persists the incremental scan cache of a project root.
type CacheStore interface {
	// Load returns the cache for root. A missing or corrupt file yields an
	// empty cache; corruption is logged, never returned.
	Load(root m.Path) *m.ScanCache
	// Save atomically replaces the cache file for root.
	Save(root m.Path, cache *m.ScanCache) error
	// Clear removes the cache file for root.
	Clear(root m.Path) error
	// Info describes the cache file for root.
	Info(root m.Path) (m.CacheInfo, error)
	// CachePath returns the cache file location for root.
	CachePath(root m.Path) m.Path
}

type jsonCacheStore struct {
	fs       SourceFSAdapter
	fileName string
}

// NewCacheStore returns a CacheStore writing fileName under each root.
func NewCacheStore(fsAdapter SourceFSAdapter, fileName string) CacheStore {
	if fileName == "" {
		fileName = DefaultCacheFileName
	}

	return &jsonCacheStore{fs: fsAdapter, fileName: fileName}
}

func (s *jsonCacheStore) CachePath(root m.Path) m.Path {
	return m.Path(filepath.Join(string(root), s.fileName))
}

func (s *jsonCacheStore) Load(root m.Path) *m.ScanCache {
	path := s.CachePath(root)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("cache unreadable, starting fresh", "path", path, "error", err)
		}

		return m.NewScanCache()
	}

	var cache m.ScanCache
	if err := json.Unmarshal(data, &cache); err != nil {
		slog.Warn("cache corrupt, starting fresh", "path", path, "error", err)
		return m.NewScanCache()
	}

	cache.Normalize()

	return &cache
}

func (s *jsonCacheStore) Save(root m.Path, cache *m.ScanCache) error {
	cache.Normalize()

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := s.fs.WriteFileAtomic(s.CachePath(root), data); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}

	return nil
}

func (s *jsonCacheStore) Clear(root m.Path) error {
	if err := s.fs.RemoveFile(s.CachePath(root)); err != nil {
		return fmt.Errorf("remove cache: %w", err)
	}

	return nil
}

func (s *jsonCacheStore) Info(root m.Path) (m.CacheInfo, error) {
	path := s.CachePath(root)
	info := m.CacheInfo{Path: path}

	stat, err := s.fs.FileInfo(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, nil
		}

		return info, fmt.Errorf("stat cache: %w", err)
	}

	cache := s.Load(root)

	info.Exists = true
	info.SizeBytes = stat.Size()
	info.TrackedFiles = len(cache.FileHashes)
	info.TotalScans = cache.Metadata.TotalScans
	info.LastScan = cache.LastScan

	for _, issues := range cache.ScanResults {
		info.CachedIssues += len(issues)
	}

	return info, nil
}
