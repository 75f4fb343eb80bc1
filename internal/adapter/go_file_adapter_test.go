package adapter

import (
	"go/ast"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGoFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	file, err := adapter.Parse(fset, "main.go", []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "main", file.Name.Name)
}

func TestLocalGoFileAdapter_Parse_InvalidSource(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	_, err := adapter.Parse(token.NewFileSet(), "broken.go", []byte("package main\nfunc {"))
	require.Error(t, err)
}

func TestLocalGoFileAdapter_CallName(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	tests := []struct {
		name string
		expr ast.Expr
		want string
	}{
		{"ident", ast.NewIdent("panic"), "panic"},
		{"selector", &ast.SelectorExpr{X: ast.NewIdent("exec"), Sel: ast.NewIdent("Command")}, "exec.Command"},
		{
			"chain",
			&ast.SelectorExpr{
				X:   &ast.SelectorExpr{X: ast.NewIdent("s"), Sel: ast.NewIdent("db")},
				Sel: ast.NewIdent("Query"),
			},
			"s.db.Query",
		},
		{"paren", &ast.ParenExpr{X: ast.NewIdent("f")}, "f"},
		{"call result", &ast.SelectorExpr{X: &ast.CallExpr{Fun: ast.NewIdent("get")}, Sel: ast.NewIdent("Exec")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.CallName(tt.expr))
		})
	}
}
