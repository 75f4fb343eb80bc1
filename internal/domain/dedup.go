package domain

import m "vulnsift.dev/pkg/vulnsift/internal/model"

// Deduplicate keeps one candidate per (file, line). A candidate from a
// higher-priority origin replaces the held one; on a tie the first stays.
// Output follows the order in which keys were first seen.
func Deduplicate(candidates []m.IssueCandidate) []m.IssueCandidate {
	if len(candidates) == 0 {
		return []m.IssueCandidate{}
	}

	index := make(map[m.IssueKey]int, len(candidates))
	out := make([]m.IssueCandidate, 0, len(candidates))

	for _, c := range candidates {
		key := c.Key()

		pos, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, c)

			continue
		}

		if c.Origin.Priority() < out[pos].Origin.Priority() {
			out[pos] = c
		}
	}

	return out
}
