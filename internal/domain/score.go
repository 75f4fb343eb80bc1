package domain

import m "vulnsift.dev/pkg/vulnsift/internal/model"

// SmellScore sums severity weights over issues. Zero means nothing was found.
func SmellScore(issues []m.IssueCandidate) int {
	score := 0
	for _, issue := range issues {
		score += issue.Severity.Weight()
	}

	return score
}

// CountBySeverity tallies issues per severity, with every severity present.
func CountBySeverity(issues []m.IssueCandidate) map[m.Severity]int {
	counts := make(map[m.Severity]int, len(m.Severities))
	for _, s := range m.Severities {
		counts[s] = 0
	}

	for _, issue := range issues {
		counts[issue.Severity]++
	}

	return counts
}
