package controller

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: " YAML ", want: FormatYAML},
		{in: "yml", want: FormatYAML},
		{in: "Sarif", want: FormatSARIF},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteReport(&buf, FormatJSON, sampleResult()))

	var decoded m.ScanResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "scan-1", decoded.ID)
	assert.Len(t, decoded.Issues, 2)
	assert.Equal(t, 7, decoded.SmellScore)
	assert.Contains(t, buf.String(), `"vulnerability_type": "Command Injection"`)
}

func TestWriteReport_YAML(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteReport(&buf, FormatYAML, sampleResult()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "scan-1", decoded["id"])
	assert.Equal(t, 7, decoded["smell_score"])
}

func TestWriteReport_SARIF(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteReport(&buf, FormatSARIF, sampleResult()))

	var decoded struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "2.1.0", decoded.Version)
	require.Len(t, decoded.Runs, 1)

	run := decoded.Runs[0]
	assert.Equal(t, "vulnsift", run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 2)

	first := run.Results[0]
	assert.Equal(t, "PY-003", first.RuleID)
	assert.Equal(t, "error", first.Level)
	require.Len(t, first.Locations, 1)
	assert.Equal(t, "app.py", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 3, first.Locations[0].PhysicalLocation.Region.StartLine)

	assert.Equal(t, "warning", run.Results[1].Level)
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	err := WriteReport(&bytes.Buffer{}, Format("xml"), sampleResult())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSarifLevel(t *testing.T) {
	assert.Equal(t, "error", sarifLevel(m.SeverityHigh))
	assert.Equal(t, "note", sarifLevel(m.SeverityLow))
	assert.Equal(t, "none", sarifLevel(m.Severity("Unknown")))
}

func TestArtifactURI(t *testing.T) {
	assert.Equal(t, "pkg/a.go", artifactURI("/repo", "/repo/pkg/a.go"))
	assert.Equal(t, "/other/a.go", artifactURI("/repo", "/other/a.go"))
	assert.Equal(t, "a.go", artifactURI("", "a.go"))
}
