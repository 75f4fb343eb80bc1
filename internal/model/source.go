// Package model defines the data structures shared by the scan pipeline.
package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Path represents a file system path.
type Path string

// SourceFile is a discovered file read at scan time. It is never persisted.
type SourceFile struct {
	Path     Path
	Language Language
	Content  []byte
}

// NewSourceFile builds a SourceFile, deriving the language from the extension.
func NewSourceFile(path Path, content []byte) SourceFile {
	return SourceFile{
		Path:     path,
		Language: LanguageForPath(path),
		Content:  content,
	}
}

// HashContent returns the hex SHA-256 digest of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)

	return hex.EncodeToString(sum[:])
}
