package adapter

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned when a parsed tree contains error or missing nodes.
var ErrSyntax = errors.New("syntax error")

// PythonParser turns Python source into a concrete syntax tree.
type PythonParser interface {
	// Parse returns the module node. Trees with ERROR or MISSING nodes are
	// rejected with ErrSyntax.
	Parse(ctx context.Context, src []byte) (*sitter.Node, error)
}

// TreeSitterPythonParser is a PythonParser backed by the tree-sitter grammar.
type TreeSitterPythonParser struct{}

// NewTreeSitterPythonParser constructs a TreeSitterPythonParser.
func NewTreeSitterPythonParser() *TreeSitterPythonParser {
	return &TreeSitterPythonParser{}
}

// Parse builds a fresh parser per call; tree-sitter parsers are not safe for concurrent use.
func (p *TreeSitterPythonParser) Parse(ctx context.Context, src []byte) (*sitter.Node, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("parse python: %w", ErrSyntax)
	}

	return root, nil
}
