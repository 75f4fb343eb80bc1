package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageForPath(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want Language
	}{
		{"python", "/src/app.py", Python},
		{"upper case extension", "/src/APP.PY", Python},
		{"jsx", "/ui/view.jsx", JavaScript},
		{"tsx", "/ui/view.tsx", TypeScript},
		{"java", "/src/Main.java", Java},
		{"go", "/cmd/main.go", Go},
		{"rust", "/src/lib.rs", Rust},
		{"cpp", "/src/a.cpp", Cpp},
		{"header", "/src/a.h", C},
		{"unsupported", "/README.md", Unknown},
		{"no extension", "/Makefile", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LanguageForPath(tt.path))
		})
	}
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t,
		[]string{".c", ".cpp", ".go", ".h", ".java", ".js", ".jsx", ".py", ".rs", ".ts", ".tsx"},
		SupportedExtensions(),
	)
}

func TestLanguage_String(t *testing.T) {
	assert.Equal(t, "python", Python.String())
	assert.Equal(t, "unknown", Language(99).String())
}
