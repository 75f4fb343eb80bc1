package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity grades an issue. The zero value is invalid.
type Severity string

// Severity levels, most severe first.
const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Severities lists every severity in rank order.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Rank orders severities: Critical 0, High 1, Medium 2, Low 3, anything else 4.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}

	return len(Severities)
}

// Escalates reports whether the severity warrants external validation.
func (s Severity) Escalates() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// Weight is the severity's contribution to the smell score.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 5
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}

	return 0
}

// ParseSeverity normalizes free text into a Severity.
func ParseSeverity(value string) (Severity, error) {
	for _, s := range Severities {
		if strings.EqualFold(strings.TrimSpace(value), string(s)) {
			return s, nil
		}
	}

	return "", fmt.Errorf("unknown severity %q", value)
}

// ParseSeverityOr returns fallback when value is not a known severity.
func ParseSeverityOr(value string, fallback Severity) Severity {
	s, err := ParseSeverity(value)
	if err != nil {
		return fallback
	}

	return s
}

// UnmarshalJSON accepts any casing so hand-edited caches still load.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ParseSeverityOr(raw, SeverityMedium)

	return nil
}

// Confidence is how sure the pipeline is that an issue is real.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)
