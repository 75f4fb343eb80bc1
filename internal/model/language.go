package model

import (
	"path/filepath"
	"sort"
	"strings"
)

// Language is the closed set of languages the scanner understands.
type Language int

// Supported languages.
const (
	Unknown Language = iota
	Python
	JavaScript
	TypeScript
	Java
	Go
	Rust
	Cpp
	C
)

var languageNames = map[Language]string{
	Unknown:    "unknown",
	Python:     "python",
	JavaScript: "javascript",
	TypeScript: "typescript",
	Java:       "java",
	Go:         "go",
	Rust:       "rust",
	Cpp:        "cpp",
	C:          "c",
}

// extensionLanguages is the single extension allow-list of the scanner.
var extensionLanguages = map[string]Language{
	".py":   Python,
	".js":   JavaScript,
	".jsx":  JavaScript,
	".ts":   TypeScript,
	".tsx":  TypeScript,
	".java": Java,
	".go":   Go,
	".rs":   Rust,
	".cpp":  Cpp,
	".c":    C,
	".h":    C,
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}

	return languageNames[Unknown]
}

// LanguageForPath maps a path to its language by lower-cased extension.
func LanguageForPath(path Path) Language {
	ext := strings.ToLower(filepath.Ext(string(path)))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}

	return Unknown
}

// IsSupportedPath reports whether path has an allow-listed extension.
func IsSupportedPath(path Path) bool {
	return LanguageForPath(path) != Unknown
}

// SupportedExtensions returns the allow-listed extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}

	sort.Strings(exts)

	return exts
}
