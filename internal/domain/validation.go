package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

const (
	// DefaultValidationWorkers bounds concurrent calls to the inference service.
	DefaultValidationWorkers = 4
	// DefaultValidationTimeout caps a single inference call.
	DefaultValidationTimeout = 30 * time.Second
	// DefaultModel is the model asked when none is configured.
	DefaultModel = "llama3.1:8b"

	maxHintFindings = 10
)

// FailureReason explains why a validation job produced no candidates.
type FailureReason string

// Failure reasons.
const (
	FailureNone          FailureReason = ""
	FailureInferenceCall FailureReason = "inference_call"
	FailureDecode        FailureReason = "response_decode"
	FailureCancelled     FailureReason = "cancelled"
)

// ValidationJob is one flagged file paired with its static findings.
type ValidationJob struct {
	Index    int
	Path     m.Path
	Content  []byte
	Findings []m.StaticFinding
}

// ValidationOutcome is the per-file result. Failures are values, not errors.
type ValidationOutcome struct {
	Index   int
	Path    m.Path
	Issues  []m.IssueCandidate
	Failure FailureReason
	Err     error
}

// Failed reports whether the job produced no usable answer.
func (o ValidationOutcome) Failed() bool {
	return o.Failure != FailureNone
}

// ValidationConfig tunes the pool and the generation options.
type ValidationConfig struct {
	Workers     int
	Timeout     time.Duration
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultValidationConfig mirrors the defaults of a local Ollama setup.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		Workers:     DefaultValidationWorkers,
		Timeout:     DefaultValidationTimeout,
		Model:       DefaultModel,
		Temperature: 0.2,
		MaxTokens:   512,
	}
}

func (c ValidationConfig) normalized() ValidationConfig {
	def := DefaultValidationConfig()

	if c.Workers <= 0 {
		c.Workers = def.Workers
	}

	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}

	if c.Model == "" {
		c.Model = def.Model
	}

	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}

	return c
}

// ValidationPool sends flagged files to the inference service with a fixed number of workers.
type ValidationPool interface {
	Run(ctx context.Context, jobs []ValidationJob) []ValidationOutcome
}

type validationPool struct {
	client   adapter.InferenceClient
	config   ValidationConfig
	observer ScanObserver
}

// NewValidationPool builds a pool over client. A nil observer is allowed.
func NewValidationPool(client adapter.InferenceClient, config ValidationConfig, observer ScanObserver) ValidationPool {
	return &validationPool{
		client:   client,
		config:   config.normalized(),
		observer: observerOrNop(observer),
	}
}

// Run returns one outcome per job, ordered by job index. Cancelling ctx stops
// dispatch; jobs already handed to a worker finish under their own timeout.
func (p *validationPool) Run(ctx context.Context, jobs []ValidationJob) []ValidationOutcome {
	if len(jobs) == 0 {
		return nil
	}

	jobCh := make(chan ValidationJob)
	resultCh := make(chan ValidationOutcome, len(jobs))

	workers := min(p.config.Workers, len(jobs))

	var group errgroup.Group

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for job := range jobCh {
				resultCh <- p.validate(ctx, job)
			}

			return nil
		})
	}

	dispatched := 0

dispatch:
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			break dispatch
		case jobCh <- job:
			dispatched++
		}
	}

	close(jobCh)

	for _, job := range jobs[dispatched:] {
		resultCh <- ValidationOutcome{Index: job.Index, Path: job.Path, Failure: FailureCancelled, Err: ctx.Err()}
	}

	_ = group.Wait()

	close(resultCh)

	outcomes := make([]ValidationOutcome, 0, len(jobs))
	for outcome := range resultCh {
		outcomes = append(outcomes, outcome)
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })

	return outcomes
}

func (p *validationPool) validate(ctx context.Context, job ValidationJob) ValidationOutcome {
	outcome := ValidationOutcome{Index: job.Index, Path: job.Path}
	start := time.Now()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.Timeout)
	defer cancel()

	response, err := p.client.Generate(callCtx, m.InferenceRequest{
		Model:       p.config.Model,
		Prompt:      BuildValidationPrompt(job.Path, job.Content, BuildContextHint(job.Findings)),
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	})

	p.observer.ValidationFinished(time.Since(start), err == nil)

	if err != nil {
		slog.Warn("validation call failed", "path", job.Path, "error", err)

		outcome.Failure = FailureInferenceCall
		outcome.Err = err

		return outcome
	}

	issues, err := ParseFindings(job.Path, response)
	if err != nil {
		slog.Warn("validation response unreadable", "path", job.Path, "error", err)

		outcome.Failure = FailureDecode
		outcome.Err = err

		return outcome
	}

	slog.Debug("validated file", "path", job.Path, "issues", len(issues))
	outcome.Issues = issues

	return outcome
}

// BuildContextHint lists the ten most severe findings, stable within a severity.
func BuildContextHint(findings []m.StaticFinding) string {
	if len(findings) == 0 {
		return ""
	}

	ranked := append([]m.StaticFinding(nil), findings...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity.Rank() < ranked[j].Severity.Rank()
	})

	if len(ranked) > maxHintFindings {
		ranked = ranked[:maxHintFindings]
	}

	lines := make([]string, 0, len(ranked))
	for _, f := range ranked {
		lines = append(lines, fmt.Sprintf("line %d: possible %s (%s)", f.LineNumber, f.Type, f.Severity))
	}

	return strings.Join(lines, "\n")
}

// BuildValidationPrompt asks for a JSON array of findings for one file.
func BuildValidationPrompt(path m.Path, content []byte, hint string) string {
	var b strings.Builder

	b.WriteString("You are a senior security engineer. Analyze the following code for security vulnerabilities.\n")
	fmt.Fprintf(&b, "File: %s\n\nCode:\n```\n%s\n```\n", path, content)

	if hint != "" {
		fmt.Fprintf(&b, "\nStatic analysis flagged these lines (validate these carefully):\n%s\n", hint)
	}

	b.WriteString(`
Instructions:
1. Identify real security vulnerabilities (OWASP Top 10 and similar).
2. Ignore style issues unless they have security impact.
3. For each vulnerability give type, severity (Critical, High, Medium, Low), line number,
   a concise description, the vulnerable code, the fix theory and the fixed code.

Respond with a JSON array only, for example:
[
  {
    "type": "SQL Injection",
    "severity": "High",
    "line": 10,
    "description": "User input concatenated directly into SQL query.",
    "vulnerable_code": "query = 'SELECT * FROM users WHERE name = ' + user_input",
    "fix_theory": "Parameterized queries keep input out of the query structure.",
    "fixed_code": "cursor.execute('SELECT * FROM users WHERE name = ?', (user_input,))"
  }
]

If there are no vulnerabilities, return [].
`)

	return b.String()
}
