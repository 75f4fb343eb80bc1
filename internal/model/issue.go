package model

// Origin names the pipeline stage that produced a candidate.
type Origin string

// Candidate origins.
const (
	OriginTaint      Origin = "taint"
	OriginValidation Origin = "validation"
	OriginStatic     Origin = "static"
)

// Priority orders origins for deduplication. Lower wins.
func (o Origin) Priority() int {
	switch o {
	case OriginTaint:
		return 0
	case OriginValidation:
		return 1
	case OriginStatic:
		return 2
	}

	return 3
}

// StaticFinding is one pattern-rule match on one line.
type StaticFinding struct {
	FilePath        Path     `json:"file_path" yaml:"file_path"`
	LineNumber      int      `json:"line_number" yaml:"line_number"`
	RuleID          string   `json:"rule_id" yaml:"rule_id"`
	Type            string   `json:"vulnerability_type" yaml:"vulnerability_type"`
	Severity        Severity `json:"severity" yaml:"severity"`
	CWE             string   `json:"cwe" yaml:"cwe"`
	Snippet         string   `json:"snippet" yaml:"snippet"`
	NeedsValidation bool     `json:"needs_validation" yaml:"needs_validation"`
}

// IssueCandidate is the canonical unit returned to callers and cached per file.
type IssueCandidate struct {
	FilePath          Path       `json:"file_path" yaml:"file_path"`
	LineNumber        int        `json:"line_number" yaml:"line_number"`
	Column            int        `json:"column" yaml:"column"`
	RuleID            string     `json:"rule_id" yaml:"rule_id"`
	VulnerabilityType string     `json:"vulnerability_type" yaml:"vulnerability_type"`
	Severity          Severity   `json:"severity" yaml:"severity"`
	Description       string     `json:"description" yaml:"description"`
	Confidence        Confidence `json:"confidence" yaml:"confidence"`
	Snippet           string     `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	SuggestedFix      string     `json:"suggested_fix,omitempty" yaml:"suggested_fix,omitempty"`
	FixTheory         string     `json:"fix_theory,omitempty" yaml:"fix_theory,omitempty"`
	Origin            Origin     `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Key is the deduplication key of the candidate.
func (c IssueCandidate) Key() IssueKey {
	return IssueKey{Path: c.FilePath, Line: c.LineNumber}
}

// IssueKey identifies a location in the scanned tree.
type IssueKey struct {
	Path Path
	Line int
}

// FindingSummary aggregates static findings by severity and by type.
type FindingSummary struct {
	Total      int
	BySeverity map[Severity]int
	ByType     map[string]int
}
