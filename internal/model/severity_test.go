package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Rank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Less(t, SeverityLow.Rank(), Severity("bogus").Rank())
}

func TestSeverity_Escalates(t *testing.T) {
	assert.True(t, SeverityCritical.Escalates())
	assert.True(t, SeverityHigh.Escalates())
	assert.False(t, SeverityMedium.Escalates())
	assert.False(t, SeverityLow.Escalates())
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"Critical", SeverityCritical, false},
		{"high", SeverityHigh, false},
		{" MEDIUM ", SeverityMedium, false},
		{"low", SeverityLow, false},
		{"severe", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverity_UnmarshalJSON(t *testing.T) {
	var issue IssueCandidate

	err := json.Unmarshal([]byte(`{"severity":"HIGH","line_number":3}`), &issue)
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, issue.Severity)

	err = json.Unmarshal([]byte(`{"severity":"whatever"}`), &issue)
	require.NoError(t, err)
	assert.Equal(t, SeverityMedium, issue.Severity)
}
