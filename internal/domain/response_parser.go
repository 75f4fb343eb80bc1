package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// ErrNoFindingsArray is returned when a response holds no JSON array.
var ErrNoFindingsArray = errors.New("no JSON array in response")

type rawFinding struct {
	Type           string       `json:"type"`
	Severity       string       `json:"severity"`
	Line           flexibleLine `json:"line"`
	Description    string       `json:"description"`
	VulnerableCode string       `json:"vulnerable_code"`
	FixTheory      string       `json:"fix_theory"`
	FixedCode      string       `json:"fixed_code"`
}

// flexibleLine accepts 12, "12", 12.0 or null.
type flexibleLine int

func (l *flexibleLine) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		*l = 0
		return nil
	}

	if n, err := strconv.Atoi(text); err == nil {
		*l = flexibleLine(n)
		return nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		*l = 0
		return nil //nolint:nilerr // an unreadable line number only loses the location
	}

	*l = flexibleLine(int(f))

	return nil
}

// ParseFindings extracts the findings array from free text and converts each entry
// into a validation candidate for path.
func ParseFindings(path m.Path, response string) ([]m.IssueCandidate, error) {
	span, ok := extractArray(response)
	if !ok {
		return nil, ErrNoFindingsArray
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(repairJSON(span)), &raw); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}

	issues := make([]m.IssueCandidate, 0, len(raw))

	for _, r := range raw {
		vulnType := strings.TrimSpace(r.Type)
		if vulnType == "" {
			vulnType = "Unknown"
		}

		description := strings.TrimSpace(r.Description)
		if description == "" {
			description = "Detected by inference validation"
		}

		issues = append(issues, m.IssueCandidate{
			FilePath:          path,
			LineNumber:        int(r.Line),
			RuleID:            "LLM-" + strings.ReplaceAll(vulnType, " ", "-"),
			VulnerabilityType: vulnType,
			Severity:          m.ParseSeverityOr(r.Severity, m.SeverityMedium),
			Description:       description,
			Confidence:        m.ConfidenceMedium,
			Snippet:           r.VulnerableCode,
			SuggestedFix:      r.FixedCode,
			FixTheory:         r.FixTheory,
			Origin:            m.OriginValidation,
		})
	}

	return issues, nil
}

// extractArray returns the first balanced [...] span, honoring JSON strings.
// When nothing balances it falls back to the first '[' through the last ']'.
func extractArray(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	end := strings.LastIndexByte(text, ']')
	if end <= start {
		return "", false
	}

	return text[start : end+1], true
}

// repairJSON doubles backslashes that do not start a valid JSON escape and
// escapes raw control characters inside strings.
func repairJSON(text string) string {
	var b strings.Builder

	b.Grow(len(text) + 16)

	inString := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch {
		case c == '\\':
			if i+1 < len(text) && validEscapeAt(text, i+1) {
				b.WriteByte(c)
				b.WriteByte(text[i+1])
				i++

				continue
			}

			b.WriteString(`\\`)
		case c == '"':
			inString = !inString

			b.WriteByte(c)
		case inString && c == '\n':
			b.WriteString(`\n`)
		case inString && c == '\r':
			b.WriteString(`\r`)
		case inString && c == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

func validEscapeAt(text string, i int) bool {
	switch text[i] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return true
	case 'u':
		if i+4 >= len(text) {
			return false
		}

		for _, h := range text[i+1 : i+5] {
			if !strings.ContainsRune("0123456789abcdefABCDEF", h) {
				return false
			}
		}

		return true
	}

	return false
}
