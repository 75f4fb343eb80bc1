package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

const taintSuggestedFix = "Sanitize input before using it in sensitive functions."

// taintRules is the source/sink table one language frontend consults.
// A source or sink written as "*.name" matches any receiver.
type taintRules struct {
	ruleID  string
	sources map[string]struct{}
	sinks   []taintSink
}

type taintSink struct {
	name     string
	vulnType string
}

func newTaintRules(ruleID string, sources []string, sinks map[string]string) taintRules {
	rules := taintRules{ruleID: ruleID, sources: make(map[string]struct{}, len(sources))}
	for _, s := range sources {
		rules.sources[s] = struct{}{}
	}

	for name, vulnType := range sinks {
		rules.sinks = append(rules.sinks, taintSink{name: name, vulnType: vulnType})
	}

	sort.Slice(rules.sinks, func(i, j int) bool { return rules.sinks[i].name < rules.sinks[j].name })

	return rules
}

func (r taintRules) isSource(name string) bool {
	if name == "" {
		return false
	}

	if _, ok := r.sources[name]; ok {
		return true
	}

	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		_, ok := r.sources["*"+name[i:]]
		return ok
	}

	return false
}

// sinkFor matches the full dotted callee first, then any sink sharing its final segment.
func (r taintRules) sinkFor(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	for _, s := range r.sinks {
		if s.name == name {
			return s.vulnType, true
		}
	}

	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}

	suffix := name[i:]
	for _, s := range r.sinks {
		if strings.HasSuffix(s.name, suffix) {
			return s.vulnType, true
		}
	}

	return "", false
}

// taintState is the per-file tainted-variable set. Names never leave it.
type taintState struct {
	rules   taintRules
	tainted map[string]struct{}
	flows   []taintFlow
}

// taintFlow is one tainted variable observed reaching a sink.
type taintFlow struct {
	variable string
	sink     string
	vulnType string
	line     int
	column   int
}

func newTaintState(rules taintRules) *taintState {
	return &taintState{rules: rules, tainted: map[string]struct{}{}}
}

func (s *taintState) isTainted(name string) bool {
	_, ok := s.tainted[name]
	return ok
}

// observeAssign taints every target when the right-hand side is tainted.
func (s *taintState) observeAssign(rhsTainted bool, targets []string) {
	if !rhsTainted {
		return
	}

	for _, t := range targets {
		if t != "" && t != "_" {
			s.tainted[t] = struct{}{}
		}
	}
}

// observeCall records a flow when callee is a sink and an argument is tainted.
func (s *taintState) observeCall(callee string, args []string, line, column int) {
	vulnType, ok := s.rules.sinkFor(callee)
	if !ok {
		return
	}

	for _, arg := range args {
		if s.isTainted(arg) {
			s.flows = append(s.flows, taintFlow{
				variable: arg,
				sink:     callee,
				vulnType: vulnType,
				line:     line,
				column:   column,
			})

			return
		}
	}
}

// taintFrontend walks one language's syntax tree and drives a taintState.
type taintFrontend interface {
	rules() taintRules
	walk(ctx context.Context, path m.Path, content []byte, state *taintState) error
}

// TaintTracker finds single-file source-to-sink flows.
type TaintTracker interface {
	Supports(lang m.Language) bool
	Analyze(ctx context.Context, path m.Path, content []byte) []m.IssueCandidate
}

type taintTracker struct {
	frontends map[m.Language]taintFrontend
}

// NewTaintTracker wires the Python and Go frontends.
func NewTaintTracker(pythonParser adapter.PythonParser, goFileAdapter adapter.GoFileAdapter) TaintTracker {
	frontends := map[m.Language]taintFrontend{}

	if pythonParser != nil {
		frontends[m.Python] = newPythonTaintFrontend(pythonParser)
	}

	if goFileAdapter != nil {
		frontends[m.Go] = newGoTaintFrontend(goFileAdapter)
	}

	return &taintTracker{frontends: frontends}
}

func (t *taintTracker) Supports(lang m.Language) bool {
	_, ok := t.frontends[lang]
	return ok
}

// Analyze fails closed: a parse error yields no findings.
func (t *taintTracker) Analyze(ctx context.Context, path m.Path, content []byte) []m.IssueCandidate {
	frontend, ok := t.frontends[m.LanguageForPath(path)]
	if !ok {
		return nil
	}

	rules := frontend.rules()
	state := newTaintState(rules)

	if err := frontend.walk(ctx, path, content, state); err != nil {
		slog.Warn("taint analysis skipped", "path", path, "error", err)
		return nil
	}

	lines := strings.Split(string(content), "\n")
	issues := make([]m.IssueCandidate, 0, len(state.flows))

	for _, flow := range state.flows {
		snippet := ""
		if flow.line >= 1 && flow.line <= len(lines) {
			snippet = strings.TrimSpace(lines[flow.line-1])
		}

		issues = append(issues, m.IssueCandidate{
			FilePath:          path,
			LineNumber:        flow.line,
			Column:            flow.column,
			RuleID:            rules.ruleID,
			VulnerabilityType: flow.vulnType,
			Severity:          m.SeverityHigh,
			Description:       fmt.Sprintf("Tainted variable '%s' flows into dangerous sink %s.", flow.variable, flow.sink),
			Confidence:        m.ConfidenceMedium,
			Snippet:           snippet,
			SuggestedFix:      taintSuggestedFix,
			Origin:            m.OriginTaint,
		})
	}

	return issues
}
