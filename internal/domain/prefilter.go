package domain

import (
	"strings"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

const maxSnippetRunes = 100

// StaticPreFilter runs catalog rules line by line over one file.
type StaticPreFilter interface {
	QuickScan(path m.Path, content []byte) []m.StaticFinding
	ShouldEscalate(findings []m.StaticFinding) bool
	Summarize(findings []m.StaticFinding) m.FindingSummary
	ToCandidate(finding m.StaticFinding) m.IssueCandidate
}

type staticPreFilter struct {
	catalog *PatternCatalog
}

// NewStaticPreFilter returns a prefilter over catalog, or the default catalog when nil.
func NewStaticPreFilter(catalog *PatternCatalog) StaticPreFilter {
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	return &staticPreFilter{catalog: catalog}
}

// QuickScan records every rule match on every non-empty, non-comment line.
// Comment detection is a prefix check only; multi-line comment bodies are scanned.
func (p *staticPreFilter) QuickScan(path m.Path, content []byte) []m.StaticFinding {
	rules := p.catalog.RulesFor(m.LanguageForPath(path))
	if len(rules) == 0 {
		return nil
	}

	var findings []m.StaticFinding

	for i, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}

		for _, rule := range rules {
			if !rule.Regex.MatchString(line) {
				continue
			}

			findings = append(findings, m.StaticFinding{
				FilePath:        path,
				LineNumber:      i + 1,
				RuleID:          rule.ID,
				Type:            rule.Name,
				Severity:        rule.Severity,
				CWE:             rule.CWE,
				Snippet:         truncateRunes(trimmed, maxSnippetRunes),
				NeedsValidation: rule.Severity.Escalates(),
			})
		}
	}

	return findings
}

// ShouldEscalate is true iff any finding is Critical or High.
func (p *staticPreFilter) ShouldEscalate(findings []m.StaticFinding) bool {
	for _, f := range findings {
		if f.Severity.Escalates() {
			return true
		}
	}

	return false
}

func (p *staticPreFilter) Summarize(findings []m.StaticFinding) m.FindingSummary {
	summary := m.FindingSummary{
		Total:      len(findings),
		BySeverity: map[m.Severity]int{},
		ByType:     map[string]int{},
	}

	for _, f := range findings {
		summary.BySeverity[f.Severity]++
		summary.ByType[f.Type]++
	}

	return summary
}

// ToCandidate reports a static finding as a low-confidence issue.
func (p *staticPreFilter) ToCandidate(f m.StaticFinding) m.IssueCandidate {
	issue := m.IssueCandidate{
		FilePath:          f.FilePath,
		LineNumber:        f.LineNumber,
		RuleID:            f.RuleID,
		VulnerabilityType: f.Type,
		Severity:          f.Severity,
		Description:       "Possible " + f.Type + " (" + f.CWE + ")",
		Confidence:        m.ConfidenceLow,
		Snippet:           f.Snippet,
		Origin:            m.OriginStatic,
	}

	if rule, ok := p.catalog.Rule(f.RuleID); ok {
		issue.SuggestedFix = rule.Fix
		issue.FixTheory = rule.FixTheory
	}

	return issue
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
