package domain

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

var pythonTaintRules = newTaintRules("PY-TAINT-001",
	[]string{
		"input", "raw_input",
		"request.args.get", "request.form.get", "request.values.get", "request.get_json",
		"request.json", "request.args", "request.form", "request.GET", "request.POST",
		"sys.argv", "os.environ.get", "os.getenv",
	},
	map[string]string{
		"eval":             "Code Injection",
		"exec":             "Code Injection",
		"os.system":        "Command Injection",
		"os.popen":         "Command Injection",
		"subprocess.call":  "Command Injection",
		"subprocess.run":   "Command Injection",
		"subprocess.Popen": "Command Injection",
		"cursor.execute":   "SQL Injection",
		"sqlite3.execute":  "SQL Injection",
		"conn.execute":     "SQL Injection",
	},
)

type pythonTaintFrontend struct {
	parser adapter.PythonParser
}

func newPythonTaintFrontend(parser adapter.PythonParser) *pythonTaintFrontend {
	return &pythonTaintFrontend{parser: parser}
}

func (f *pythonTaintFrontend) rules() taintRules {
	return pythonTaintRules
}

func (f *pythonTaintFrontend) walk(ctx context.Context, _ m.Path, content []byte, state *taintState) error {
	root, err := f.parser.Parse(ctx, content)
	if err != nil {
		return err
	}

	w := pythonWalker{src: content, state: state}
	w.visit(root)

	return nil
}

// pythonWalker is a single forward pass in source order.
type pythonWalker struct {
	src   []byte
	state *taintState
}

func (w *pythonWalker) visit(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "assignment", "augmented_assignment":
		w.assignment(n)
		return
	case "named_expression":
		value := n.ChildByFieldName("value")
		w.visit(value)
		w.state.observeAssign(w.tainted(value), w.identifiers(n.ChildByFieldName("name")))

		return
	case "call":
		w.call(n)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.visit(n.NamedChild(i))
	}
}

// assignment unrolls chains like a = b = input() and visits the value before tainting targets.
func (w *pythonWalker) assignment(n *sitter.Node) {
	targets := []*sitter.Node{n.ChildByFieldName("left")}
	right := n.ChildByFieldName("right")

	for right != nil && right.Type() == "assignment" {
		targets = append(targets, right.ChildByFieldName("left"))
		right = right.ChildByFieldName("right")
	}

	w.visit(right)

	tainted := right != nil && w.tainted(right)
	for _, target := range targets {
		w.state.observeAssign(tainted, w.identifiers(target))
		w.visit(target)
	}
}

func (w *pythonWalker) call(n *sitter.Node) {
	callee := w.dottedName(n.ChildByFieldName("function"))
	if callee == "" {
		return
	}

	var args []string

	if list := n.ChildByFieldName("arguments"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			arg := list.NamedChild(i)
			if arg.Type() == "keyword_argument" {
				arg = arg.ChildByFieldName("value")
			}

			if arg != nil && arg.Type() == "identifier" {
				args = append(args, arg.Content(w.src))
			}
		}
	}

	pos := n.StartPoint()
	w.state.observeCall(callee, args, int(pos.Row)+1, int(pos.Column))
}

func (w *pythonWalker) tainted(n *sitter.Node) bool {
	if n == nil {
		return false
	}

	switch n.Type() {
	case "identifier":
		return w.state.isTainted(n.Content(w.src))
	case "call":
		return w.state.rules.isSource(w.dottedName(n.ChildByFieldName("function")))
	case "attribute":
		return w.state.rules.isSource(w.dottedName(n))
	case "subscript":
		value := n.ChildByFieldName("value")
		return value != nil && value.Type() == "attribute" && w.state.rules.isSource(w.dottedName(value))
	case "binary_operator":
		return w.tainted(n.ChildByFieldName("left")) || w.tainted(n.ChildByFieldName("right"))
	case "parenthesized_expression":
		return n.NamedChildCount() > 0 && w.tainted(n.NamedChild(0))
	}

	return false
}

// identifiers lists simple names bound by an assignment target.
func (w *pythonWalker) identifiers(n *sitter.Node) []string {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "identifier":
		return []string{n.Content(w.src)}
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list":
		var names []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			names = append(names, w.identifiers(n.NamedChild(i))...)
		}

		return names
	}

	return nil
}

func (w *pythonWalker) dottedName(n *sitter.Node) string {
	if n == nil {
		return ""
	}

	switch n.Type() {
	case "identifier":
		return n.Content(w.src)
	case "attribute":
		object := w.dottedName(n.ChildByFieldName("object"))
		attr := n.ChildByFieldName("attribute")

		if attr == nil {
			return ""
		}

		if object == "" {
			return "?." + attr.Content(w.src)
		}

		return object + "." + attr.Content(w.src)
	}

	return ""
}
