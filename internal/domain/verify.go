package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// Verdict is the answer of a second-opinion call.
type Verdict string

// Verdicts.
const (
	VerdictUnknown       Verdict = ""
	VerdictReal          Verdict = "REAL"
	VerdictFalsePositive Verdict = "FALSE_POSITIVE"
)

// Verifier re-asks the inference service about Critical candidates that are
// not yet High confidence.
type Verifier interface {
	Verify(ctx context.Context, issues []m.IssueCandidate) []m.IssueCandidate
}

type verifier struct {
	client adapter.InferenceClient
	config ValidationConfig
}

// NewVerifier builds a Verifier sharing the validation pool's settings.
func NewVerifier(client adapter.InferenceClient, config ValidationConfig) Verifier {
	return &verifier{client: client, config: config.normalized()}
}

// Verify returns a copy of issues with verified entries updated in place.
// A failed call leaves the issue unchanged.
func (v *verifier) Verify(ctx context.Context, issues []m.IssueCandidate) []m.IssueCandidate {
	out := append([]m.IssueCandidate(nil), issues...)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.config.Workers)

	for i := range out {
		if !needsVerification(out[i]) {
			continue
		}

		i := i

		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}

			out[i] = v.verifyOne(groupCtx, out[i])

			return nil
		})
	}

	_ = group.Wait()

	return out
}

func needsVerification(issue m.IssueCandidate) bool {
	return issue.Severity == m.SeverityCritical && issue.Confidence != m.ConfidenceHigh
}

func (v *verifier) verifyOne(ctx context.Context, issue m.IssueCandidate) m.IssueCandidate {
	callCtx, cancel := context.WithTimeout(ctx, v.config.Timeout)
	defer cancel()

	response, err := v.client.Generate(callCtx, m.InferenceRequest{
		Model:       v.config.Model,
		Prompt:      buildVerifyPrompt(issue),
		Temperature: v.config.Temperature,
		MaxTokens:   v.config.MaxTokens,
	})
	if err != nil {
		slog.Warn("verification call failed", "path", issue.FilePath, "line", issue.LineNumber, "error", err)
		return issue
	}

	verdict, explanation := ParseVerdict(response)

	switch verdict {
	case VerdictFalsePositive:
		issue.Confidence = m.ConfidenceLow
		issue.Description = "[Verified: false positive] " + explanation
	case VerdictReal:
		issue.Confidence = m.ConfidenceHigh
		if explanation != "" {
			issue.Description = fmt.Sprintf("%s [Analysis: %s]", issue.Description, explanation)
		}
	case VerdictUnknown:
		slog.Debug("verification inconclusive", "path", issue.FilePath, "line", issue.LineNumber)
	}

	return issue
}

// ParseVerdict reads "VERDICT: ..." and the text after "EXPLANATION:".
func ParseVerdict(response string) (Verdict, string) {
	upper := strings.ToUpper(response)

	explanation := strings.TrimSpace(response)
	if idx := strings.Index(upper, "EXPLANATION:"); idx >= 0 {
		explanation = strings.TrimSpace(response[idx+len("EXPLANATION:"):])
	}

	switch {
	case strings.Contains(upper, "VERDICT: FALSE_POSITIVE"):
		return VerdictFalsePositive, explanation
	case strings.Contains(upper, "VERDICT: REAL"):
		return VerdictReal, explanation
	}

	return VerdictUnknown, ""
}

func buildVerifyPrompt(issue m.IssueCandidate) string {
	return fmt.Sprintf(`You are a senior security engineer. Analyze this potential vulnerability.

Vulnerability Type: %s
File: %s
Code Snippet:
`+"```"+`
%s
`+"```"+`

Task:
1. Verify if this is a real vulnerability or a false positive.
2. If real, explain why it is dangerous in one short sentence.
3. If false positive, explain why.

Format:
VERDICT: [REAL/FALSE_POSITIVE]
EXPLANATION: [Your explanation]
`, issue.VulnerabilityType, issue.FilePath, issue.Snippet)
}
