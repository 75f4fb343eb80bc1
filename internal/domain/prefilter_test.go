package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

func TestQuickScan_CommandInjectionIsCriticalAndEscalates(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	findings := filter.QuickScan("app.py", []byte(`os.system("ls " + user_input)`))

	require.NotEmpty(t, findings)
	assert.Equal(t, "PY-001", findings[0].RuleID)
	assert.Equal(t, "Command Injection", findings[0].Type)
	assert.Equal(t, m.SeverityCritical, findings[0].Severity)
	assert.Equal(t, 1, findings[0].LineNumber)
	assert.True(t, findings[0].NeedsValidation)
	assert.True(t, filter.ShouldEscalate(findings))
}

func TestQuickScan_HardcodedSecretLength(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	long := filter.QuickScan("settings.py", []byte(`api_key = "AAAAAAAAAAAAAAAAAAAAAAAAA"`))
	require.Len(t, long, 1)
	assert.Equal(t, "Hardcoded Secret", long[0].Type)
	assert.Equal(t, m.SeverityHigh, long[0].Severity)

	short := filter.QuickScan("settings.py", []byte(`api_key = "AAAAA"`))
	assert.Empty(t, short)
}

func TestQuickScan_SkipsCommentsAndBlankLines(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	src := strings.Join([]string{
		"# eval(user_input)",
		"",
		"   ",
		"result = eval(data)",
	}, "\n")

	findings := filter.QuickScan("x.py", []byte(src))

	require.Len(t, findings, 1)
	assert.Equal(t, 4, findings[0].LineNumber)
	assert.Equal(t, "result = eval(data)", findings[0].Snippet)
}

func TestQuickScan_RecordsEveryMatchingRule(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	findings := filter.QuickScan("x.py", []byte(`eval(exec(code))`))

	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.RuleID)
	}

	assert.Equal(t, []string{"PY-003", "PY-004"}, ids)
}

func TestQuickScan_UnsupportedExtensionHasNoRules(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	assert.Empty(t, filter.QuickScan("notes.txt", []byte(`eval(x)`)))
}

func TestQuickScan_TruncatesSnippet(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	line := "eval(" + strings.Repeat("a", 200) + ")"
	findings := filter.QuickScan("x.py", []byte(line))

	require.NotEmpty(t, findings)
	assert.Len(t, []rune(findings[0].Snippet), maxSnippetRunes)
}

func TestQuickScan_IsDeterministic(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())
	src := []byte("password = 'supersecretvalue'\nx = eval(y)\nhashlib.md5(b)\n")

	assert.Equal(t, filter.QuickScan("a.py", src), filter.QuickScan("a.py", src))
}

func TestShouldEscalate_MonotonicInFindings(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	low := []m.StaticFinding{{Severity: m.SeverityLow}, {Severity: m.SeverityMedium}}
	assert.False(t, filter.ShouldEscalate(low))
	assert.False(t, filter.ShouldEscalate(nil))

	for _, sev := range []m.Severity{m.SeverityHigh, m.SeverityCritical} {
		grown := append(append([]m.StaticFinding(nil), low...), m.StaticFinding{Severity: sev})
		assert.True(t, filter.ShouldEscalate(grown), sev)

		grown = append(grown, m.StaticFinding{Severity: m.SeverityLow})
		assert.True(t, filter.ShouldEscalate(grown), sev)
	}
}

func TestSummarize(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	summary := filter.Summarize([]m.StaticFinding{
		{Type: "Code Injection", Severity: m.SeverityCritical},
		{Type: "Code Injection", Severity: m.SeverityCritical},
		{Type: "Debug Mode", Severity: m.SeverityLow},
	})

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.BySeverity[m.SeverityCritical])
	assert.Equal(t, 1, summary.BySeverity[m.SeverityLow])
	assert.Equal(t, 2, summary.ByType["Code Injection"])
}

func TestToCandidate_CarriesRuleFix(t *testing.T) {
	filter := NewStaticPreFilter(DefaultCatalog())

	findings := filter.QuickScan("x.py", []byte("DEBUG = debug = True"))
	require.Len(t, findings, 1)

	issue := filter.ToCandidate(findings[0])

	assert.Equal(t, m.OriginStatic, issue.Origin)
	assert.Equal(t, m.ConfidenceLow, issue.Confidence)
	assert.Equal(t, "PY-012", issue.RuleID)
	assert.NotEmpty(t, issue.SuggestedFix)
	assert.NotEmpty(t, issue.FixTheory)
}

func TestDefaultCatalog_CoversEveryLanguage(t *testing.T) {
	catalog := DefaultCatalog()

	for _, lang := range []m.Language{m.Python, m.JavaScript, m.TypeScript, m.Java, m.Go, m.Rust, m.C, m.Cpp} {
		assert.NotEmpty(t, catalog.RulesFor(lang), lang)
	}

	assert.Empty(t, catalog.RulesFor(m.Unknown))

	rule, ok := catalog.Rule("PY-006")
	require.True(t, ok)
	assert.Equal(t, "CWE-798", rule.CWE)
}
