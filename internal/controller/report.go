package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"gopkg.in/yaml.v3"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// Format is a machine-readable report encoding.
type Format string

// Report formats.
const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatSARIF Format = "sarif"
)

const (
	toolName = "vulnsift"
	toolURI  = "https://vulnsift.dev"
)

// ErrUnknownFormat is returned for an unsupported report format.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists every supported report format.
var Formats = []Format{FormatJSON, FormatYAML, FormatSARIF}

// ParseFormat accepts a format name in any case. "yml" is an alias of yaml.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sarif":
		return FormatSARIF, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
}

// WriteReport encodes result to w.
func WriteReport(w io.Writer, format Format, result m.ScanResult) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(result)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)

		if err := encoder.Encode(result); err != nil {
			return err
		}

		return encoder.Close()
	case FormatSARIF:
		report, err := BuildSARIF(result)
		if err != nil {
			return err
		}

		return report.PrettyWrite(w)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// BuildSARIF converts a scan into a SARIF 2.1.0 report with one run.
// Artifact URIs are relative to the scanned root.
func BuildSARIF(result m.ScanResult) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)

	for _, issue := range result.Issues {
		level := sarifLevel(issue.Severity)

		rule := run.AddRule(issue.RuleID).
			WithDescription(issue.VulnerabilityType).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})

		region := sarif.NewRegion().WithStartLine(max(issue.LineNumber, 1))
		if issue.Column > 0 {
			region = region.WithStartColumn(issue.Column + 1)
		}

		if issue.Snippet != "" {
			region = region.WithSnippet(sarif.NewArtifactContent().WithText(issue.Snippet))
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(artifactURI(result.Root, issue.FilePath))).
				WithRegion(region),
		)

		message := issue.Description
		if issue.SuggestedFix != "" {
			message += "\nSuggested fix: " + issue.SuggestedFix
		}

		run.AddResult(sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(level).
			WithLocations([]*sarif.Location{location}))
	}

	report.AddRun(run)

	return report, nil
}

func sarifLevel(s m.Severity) string {
	switch s {
	case m.SeverityCritical, m.SeverityHigh:
		return "error"
	case m.SeverityMedium:
		return "warning"
	case m.SeverityLow:
		return "note"
	}

	return "none"
}

func artifactURI(root, path m.Path) string {
	if root != "" {
		if rel, err := filepath.Rel(string(root), string(path)); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}

	return filepath.ToSlash(string(path))
}
