package domain

import (
	"log/slog"
	"sort"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// Hasher fingerprints one file.
type Hasher interface {
	HashFile(path m.Path) (string, error)
}

// DiffResult classifies discovered files against the cache.
type DiffResult struct {
	New       []m.Path
	Changed   []m.Path
	Unchanged []m.Path
	Failed    []m.Path
	// ToScan is New plus Changed, or every hashable file when forced, sorted.
	ToScan []m.Path
}

// DiffCache compares each file's hash with the cache and updates the hash
// entry unconditionally. Files that cannot be hashed are dropped from the cache.
func DiffCache(cache *m.ScanCache, files []m.Path, hasher Hasher, force bool) DiffResult {
	var diff DiffResult

	sorted := append([]m.Path(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, path := range sorted {
		hash, err := hasher.HashFile(path)
		if err != nil {
			slog.Warn("cannot hash file, dropping from cache", "path", path, "error", err)
			cache.Forget(path)

			diff.Failed = append(diff.Failed, path)

			continue
		}

		previous, known := cache.FileHashes[path]
		cache.FileHashes[path] = hash

		switch {
		case !known:
			diff.New = append(diff.New, path)
		case previous != hash:
			diff.Changed = append(diff.Changed, path)
		default:
			diff.Unchanged = append(diff.Unchanged, path)
		}

		if force || !known || previous != hash {
			diff.ToScan = append(diff.ToScan, path)
		}
	}

	return diff
}

// PruneCache removes entries for paths that were not discovered and returns them sorted.
func PruneCache(cache *m.ScanCache, discovered []m.Path) []m.Path {
	present := make(map[m.Path]struct{}, len(discovered))
	for _, path := range discovered {
		present[path] = struct{}{}
	}

	stale := map[m.Path]struct{}{}

	for path := range cache.FileHashes {
		if _, ok := present[path]; !ok {
			stale[path] = struct{}{}
		}
	}

	for path := range cache.ScanResults {
		if _, ok := present[path]; !ok {
			stale[path] = struct{}{}
		}
	}

	pruned := make([]m.Path, 0, len(stale))
	for path := range stale {
		cache.Forget(path)
		pruned = append(pruned, path)
	}

	sort.Slice(pruned, func(i, j int) bool { return pruned[i] < pruned[j] })

	return pruned
}
