package domain

import (
	"regexp"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// PatternRule is one compiled detection rule. Rules are immutable once built.
type PatternRule struct {
	ID        string
	Name      string
	Regex     *regexp.Regexp
	Severity  m.Severity
	CWE       string
	Fix       string
	FixTheory string
}

// PatternCatalog maps each language to its ordered rule list.
type PatternCatalog struct {
	rules map[m.Language][]PatternRule
}

// RulesFor returns the rules of lang in evaluation order.
func (c *PatternCatalog) RulesFor(lang m.Language) []PatternRule {
	return c.rules[lang]
}

// Rule finds a rule by ID.
func (c *PatternCatalog) Rule(id string) (PatternRule, bool) {
	for _, rules := range c.rules {
		for _, rule := range rules {
			if rule.ID == id {
				return rule, true
			}
		}
	}

	return PatternRule{}, false
}

// Size is the total number of compiled rules.
func (c *PatternCatalog) Size() int {
	total := 0
	for _, rules := range c.rules {
		total += len(rules)
	}

	return total
}

type ruleSpec struct {
	id, name, expr string
	severity       m.Severity
	cwe            string
	fix, theory    string
}

// newPatternCatalog compiles specs. A malformed expression panics.
func newPatternCatalog(specs map[m.Language][]ruleSpec) *PatternCatalog {
	catalog := &PatternCatalog{rules: make(map[m.Language][]PatternRule, len(specs))}

	for lang, list := range specs {
		rules := make([]PatternRule, 0, len(list))
		for _, s := range list {
			rules = append(rules, PatternRule{
				ID:        s.id,
				Name:      s.name,
				Regex:     regexp.MustCompile(s.expr),
				Severity:  s.severity,
				CWE:       s.cwe,
				Fix:       s.fix,
				FixTheory: s.theory,
			})
		}

		catalog.rules[lang] = rules
	}

	return catalog
}

const (
	theorySecret = "Secrets in source code are exposed to anyone with access to the repository. " +
		"Load them from the environment or a secret manager at runtime."
	theoryEval = "Evaluating strings as code lets an attacker run arbitrary logic. " +
		"Parse data with a data-only parser or remove the dynamic execution."
	theoryShell = "A shell interprets metacharacters in its input. " +
		"Pass arguments as a list and keep the shell disabled."
	theorySQL = "Building queries from strings lets input change the query structure. " +
		"Bind values through placeholders."
	theoryXSS = "Assigning markup makes the browser parse and run it. " +
		"Write untrusted text through textContent instead."
)

var pythonRules = []ruleSpec{
	{"PY-001", "Command Injection", `os\.system\s*\([^)]*[\+\%f]`, m.SeverityCritical, "CWE-78",
		"subprocess.run(['ls', path], check=True)", theoryShell},
	{"PY-002", "Command Injection via Shell", `subprocess\.(call|run|Popen)\s*\([^)]*shell\s*=\s*True`, m.SeverityCritical, "CWE-78",
		"subprocess.run(['ls', '-l'], shell=False)", theoryShell},
	{"PY-003", "Code Injection", `\beval\s*\(`, m.SeverityCritical, "CWE-94",
		"ast.literal_eval(data)", theoryEval},
	{"PY-004", "Code Execution", `\bexec\s*\(`, m.SeverityCritical, "CWE-94", "", theoryEval},
	{"PY-005", "Insecure Deserialization", `pickle\.(loads?|dumps?)\s*\(`, m.SeverityHigh, "CWE-502",
		"json.loads(data)", "Unpickling attacker-controlled bytes can execute code. Use a data-only format such as JSON."},
	{"PY-006", "Hardcoded Secret", `(password|api_key|secret|token|api_secret|private_key)\s*=\s*["'][^"']{8,}["']`, m.SeverityHigh, "CWE-798",
		"secret = os.getenv('SECRET_KEY')", theorySecret},
	{"PY-007", "SQL Injection Risk", `(sql|query)\s*=\s*["'].*%s.*["']|\.format\s*\(`, m.SeverityHigh, "CWE-89",
		"cursor.execute('SELECT * FROM users WHERE id = ?', (user_id,))", theorySQL},
	{"PY-008", "Dynamic Import", `__import__\s*\(`, m.SeverityMedium, "CWE-94", "importlib.import_module(ALLOWED[name])", ""},
	{"PY-009", "Path Traversal Risk", `open\s*\([^)]*[\+\%]`, m.SeverityHigh, "CWE-22",
		"open(os.path.join(BASE, os.path.basename(name)))", "Joining untrusted names onto paths lets input escape the intended directory."},
	{"PY-010", "Unsafe YAML Deserialization", `\.yaml\.load\s*\([^,)]*\)`, m.SeverityHigh, "CWE-502",
		"yaml.safe_load(stream)", "The full YAML loader can construct arbitrary objects. The safe loader only builds plain data."},
	{"PY-011", "Insecure Hash", `hashlib\.md5\s*\(`, m.SeverityMedium, "CWE-328",
		"hashlib.sha256(data).hexdigest()", "MD5 collisions are cheap to produce. SHA-256 resists them."},
	{"PY-012", "Debug Mode", `debug\s*=\s*True`, m.SeverityLow, "CWE-489",
		"DEBUG = os.getenv('DEBUG', 'False') == 'True'", "Debug mode leaks stack traces and configuration in production."},
}

var javaScriptRules = []ruleSpec{
	{"JS-001", "Code Injection", `\beval\s*\(`, m.SeverityCritical, "CWE-94", "JSON.parse(data)", theoryEval},
	{"JS-002", "XSS Risk", `innerHTML\s*=`, m.SeverityHigh, "CWE-79", "element.textContent = text;", theoryXSS},
	{"JS-003", "React XSS Risk", `dangerouslySetInnerHTML`, m.SeverityHigh, "CWE-79", "", theoryXSS},
	{"JS-004", "DOM XSS", `document\.write\s*\(`, m.SeverityMedium, "CWE-79", "", theoryXSS},
	{"JS-005", "Hardcoded Secret", `(password|apiKey|secret|token|api_key)\s*[:=]\s*["'][^"']{8,}["']`, m.SeverityHigh, "CWE-798",
		"const apiKey = process.env.API_KEY;", theorySecret},
	{"JS-006", "Dynamic Code Execution", `new\s+Function\s*\(`, m.SeverityHigh, "CWE-94", "", theoryEval},
	{"JS-007", "Code Injection via setTimeout", `setTimeout\s*\(\s*["']`, m.SeverityMedium, "CWE-94",
		"setTimeout(() => run(), 100);", theoryEval},
}

var typeScriptRules = []ruleSpec{
	{"TS-001", "Code Injection", `\beval\s*\(`, m.SeverityCritical, "CWE-94", "JSON.parse(data)", theoryEval},
	{"TS-002", "XSS Risk", `innerHTML\s*=`, m.SeverityHigh, "CWE-79", "element.textContent = text;", theoryXSS},
	{"TS-003", "React XSS Risk", `dangerouslySetInnerHTML`, m.SeverityHigh, "CWE-79", "", theoryXSS},
	{"TS-004", "Hardcoded Secret", `(password|apiKey|secret|token|api_key)\s*[:=]\s*["'][^"']{8,}["']`, m.SeverityHigh, "CWE-798",
		"const apiKey = process.env.API_KEY;", theorySecret},
}

var javaRules = []ruleSpec{
	{"JV-001", "Command Injection Risk", `Runtime\.getRuntime\(\)\.exec\s*\(`, m.SeverityCritical, "CWE-78",
		`new ProcessBuilder("ls", path).start();`, theoryShell},
	{"JV-002", "SQL Injection", `Statement\.execute\s*\([^)]*\+`, m.SeverityCritical, "CWE-89",
		`PreparedStatement stmt = conn.prepareStatement("SELECT * FROM users WHERE id = ?");`, theorySQL},
	{"JV-003", "Hardcoded Secret", `(password|apiKey|secret)\s*=\s*"[^"]{8,}"`, m.SeverityHigh, "CWE-798",
		`String apiKey = System.getenv("API_KEY");`, theorySecret},
}

var goRules = []ruleSpec{
	{"GO-001", "Command Injection via Shell", `exec\.Command(Context)?\s*\([^)]*"(sh|bash)"\s*,\s*"-c"`, m.SeverityCritical, "CWE-78",
		`exec.CommandContext(ctx, "ls", path)`, theoryShell},
	{"GO-002", "SQL Injection Risk", `\.(Query|QueryRow|Exec)(Context)?\s*\([^)]*\+`, m.SeverityHigh, "CWE-89",
		`db.QueryContext(ctx, "SELECT * FROM users WHERE id = ?", id)`, theorySQL},
	{"GO-003", "Hardcoded Secret", `(?i)(password|apikey|api_key|secret|token)\s*:?=\s*"[^"]{8,}"`, m.SeverityHigh, "CWE-798",
		`secret := os.Getenv("SECRET_KEY")`, theorySecret},
	{"GO-004", "TLS Verification Disabled", `InsecureSkipVerify\s*:\s*true`, m.SeverityMedium, "CWE-295",
		"tls.Config{MinVersion: tls.VersionTLS12}", "Skipping certificate checks allows man-in-the-middle interception."},
	{"GO-005", "Insecure Hash", `\b(md5|sha1)\.(New|Sum)\b`, m.SeverityLow, "CWE-328", "sha256.Sum256(data)", ""},
}

var rustRules = []ruleSpec{
	{"RS-001", "Command Injection via Shell", `Command::new\s*\(\s*"(sh|bash)"`, m.SeverityHigh, "CWE-78", "", theoryShell},
	{"RS-002", "Unsafe Block", `\bunsafe\s*\{`, m.SeverityMedium, "CWE-242", "", ""},
	{"RS-003", "Hardcoded Secret", `(?i)(password|api_key|secret|token)\s*[:=]\s*"[^"]{8,}"`, m.SeverityHigh, "CWE-798",
		`let secret = std::env::var("SECRET_KEY")?;`, theorySecret},
}

var cFamilyRules = []ruleSpec{
	{"C-001", "Buffer Overflow", `\bgets\s*\(`, m.SeverityCritical, "CWE-242", "fgets(buf, sizeof buf, stdin);",
		"gets cannot bound its write. fgets takes the buffer size."},
	{"C-002", "Unbounded Copy", `\b(strcpy|strcat)\s*\(`, m.SeverityHigh, "CWE-120", "strncpy(dst, src, sizeof dst - 1);", ""},
	{"C-003", "Command Execution", `\bsystem\s*\(`, m.SeverityHigh, "CWE-78", "", theoryShell},
	{"C-004", "Format String Risk", `\bs?printf\s*\(\s*[a-zA-Z_]\w*\s*[,)]`, m.SeverityMedium, "CWE-134",
		`printf("%s", msg);`, "A non-literal format string lets input read or write memory."},
}

var defaultCatalog = newPatternCatalog(map[m.Language][]ruleSpec{
	m.Python:     pythonRules,
	m.JavaScript: javaScriptRules,
	m.TypeScript: typeScriptRules,
	m.Java:       javaRules,
	m.Go:         goRules,
	m.Rust:       rustRules,
	m.C:          cFamilyRules,
	m.Cpp:        cFamilyRules,
})

// DefaultCatalog returns the process-wide rule catalog.
func DefaultCatalog() *PatternCatalog {
	return defaultCatalog
}
