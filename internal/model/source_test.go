package model

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashContent(t *testing.T) {
	content := []byte("print('hello')\n")

	first := HashContent(content)
	second := HashContent(content)

	assert.Equal(t, first, second)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(content)), first)
	assert.Len(t, first, 64)

	changed := []byte("print('hellO')\n")
	assert.NotEqual(t, first, HashContent(changed))
}

func TestNewSourceFile(t *testing.T) {
	src := NewSourceFile("/tmp/x.ts", []byte("let a = 1"))

	assert.Equal(t, TypeScript, src.Language)
	assert.Equal(t, Path("/tmp/x.ts"), src.Path)
}

func TestScanStats_Ratios(t *testing.T) {
	stats := ScanStats{TotalFiles: 10, ScannedFiles: 10, FlaggedFiles: 2, CleanFiles: 8}

	assert.InDelta(t, 5.0, stats.SpeedupFactor(), 0.001)
	assert.InDelta(t, 80.0, stats.Efficiency(), 0.001)

	incremental := ScanStats{TotalFiles: 10, ScannedFiles: 4, CachedFiles: 6, FlaggedFiles: 1, CleanFiles: 3}
	assert.InDelta(t, 4.0, incremental.SpeedupFactor(), 0.001)
	assert.InDelta(t, 75.0, incremental.Efficiency(), 0.001)
	assert.InDelta(t, 0.0, ScanStats{}.Efficiency(), 0.001)
	assert.InDelta(t, 0.0, ScanStats{}.SpeedupFactor(), 0.001)
}
