package adapter

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// GoFileAdapter encapsulates Go-specific parsing so the taint tracker can
// walk Go sources without depending on go/parser directly.
type GoFileAdapter interface {
	// Parse builds an AST for the provided filename/source pair.
	Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// CallName renders a call target as a dotted name ("exec.Command"), or "" when
	// the target is not a plain identifier or selector chain.
	CallName(expr ast.Expr) string
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST; comments are skipped since taint tracking never reads them.
func (a *LocalGoFileAdapter) Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	return parser.ParseFile(fileSet, filename, src, parser.SkipObjectResolution)
}

// CallName flattens identifiers and selector chains.
func (a *LocalGoFileAdapter) CallName(expr ast.Expr) string {
	var parts []string

	for {
		switch e := expr.(type) {
		case *ast.Ident:
			parts = append(parts, e.Name)

			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}

			return strings.Join(parts, ".")
		case *ast.SelectorExpr:
			parts = append(parts, e.Sel.Name)
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		default:
			return ""
		}
	}
}
