package domain

import (
	"context"
	"go/ast"
	"go/token"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

var goTaintRules = newTaintRules("GO-TAINT-001",
	[]string{
		"os.Getenv", "os.Args", "flag.Arg", "flag.Args",
		"*.FormValue", "*.PostFormValue", "*.UserAgent", "*.Referer",
	},
	map[string]string{
		"exec.Command":        "Command Injection",
		"exec.CommandContext": "Command Injection",
		"syscall.Exec":        "Command Injection",
		"db.Query":            "SQL Injection",
		"db.QueryRow":         "SQL Injection",
		"db.Exec":             "SQL Injection",
		"db.QueryContext":     "SQL Injection",
		"db.ExecContext":      "SQL Injection",
		"template.HTML":       "Cross-Site Scripting",
	},
)

type goTaintFrontend struct {
	goFileAdapter adapter.GoFileAdapter
}

func newGoTaintFrontend(goFileAdapter adapter.GoFileAdapter) *goTaintFrontend {
	return &goTaintFrontend{goFileAdapter: goFileAdapter}
}

func (f *goTaintFrontend) rules() taintRules {
	return goTaintRules
}

func (f *goTaintFrontend) walk(_ context.Context, path m.Path, content []byte, state *taintState) error {
	fset := token.NewFileSet()

	file, err := f.goFileAdapter.Parse(fset, string(path), content)
	if err != nil {
		return err
	}

	w := goWalker{fset: fset, names: f.goFileAdapter, state: state}
	ast.Inspect(file, w.visit)

	return nil
}

type goWalker struct {
	fset  *token.FileSet
	names adapter.GoFileAdapter
	state *taintState
}

func (w *goWalker) visit(n ast.Node) bool {
	switch node := n.(type) {
	case *ast.AssignStmt:
		w.assign(node.Lhs, node.Rhs)
		return false
	case *ast.ValueSpec:
		lhs := make([]ast.Expr, 0, len(node.Names))
		for _, name := range node.Names {
			lhs = append(lhs, name)
		}

		w.assign(lhs, node.Values)

		return false
	case *ast.CallExpr:
		w.call(node)
	}

	return true
}

// assign visits every value before tainting, pairing values with targets
// when counts match and spreading a single multi-value call over all targets.
func (w *goWalker) assign(lhs, rhs []ast.Expr) {
	for _, value := range rhs {
		ast.Inspect(value, w.visit)
	}

	if len(rhs) == 1 {
		w.state.observeAssign(w.tainted(rhs[0]), identNames(lhs))
		return
	}

	for i, value := range rhs {
		if i < len(lhs) {
			w.state.observeAssign(w.tainted(value), identNames(lhs[i:i+1]))
		}
	}
}

func (w *goWalker) call(call *ast.CallExpr) {
	callee := w.names.CallName(call.Fun)
	if callee == "" {
		return
	}

	var args []string

	for _, arg := range call.Args {
		if ident, ok := arg.(*ast.Ident); ok {
			args = append(args, ident.Name)
		}
	}

	pos := w.fset.Position(call.Pos())
	w.state.observeCall(callee, args, pos.Line, pos.Column-1)
}

func (w *goWalker) tainted(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident:
		return w.state.isTainted(e.Name)
	case *ast.CallExpr:
		return w.state.rules.isSource(w.names.CallName(e.Fun))
	case *ast.SelectorExpr:
		return w.state.rules.isSource(w.names.CallName(e))
	case *ast.IndexExpr:
		return w.state.rules.isSource(w.names.CallName(e.X))
	case *ast.BinaryExpr:
		return w.tainted(e.X) || w.tainted(e.Y)
	case *ast.ParenExpr:
		return w.tainted(e.X)
	}

	return false
}

func identNames(exprs []ast.Expr) []string {
	var names []string

	for _, expr := range exprs {
		if ident, ok := expr.(*ast.Ident); ok {
			names = append(names, ident.Name)
		}
	}

	return names
}
