package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	adaptermocks "vulnsift.dev/pkg/vulnsift/internal/adapter/mocks"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	domainmocks "vulnsift.dev/pkg/vulnsift/internal/domain/mocks"
	"vulnsift.dev/pkg/vulnsift/internal/metrics"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

type fixture struct {
	plain     *domainmocks.MockScanner
	verifying *domainmocks.MockScanner
	store     *adaptermocks.MockResultStore
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		plain:     domainmocks.NewMockScanner(t),
		verifying: domainmocks.NewMockScanner(t),
		store:     adaptermocks.NewMockResultStore(t),
	}

	scanners := func(verify bool) domain.Scanner {
		if verify {
			return f.verifying
		}

		return f.plain
	}

	srv := New(scanners, func() (adapter.ResultStore, error) { return f.store, nil }, metrics.NewCollector("").Handler(), "test")
	f.handler = srv.Router()

	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func sample() m.ScanResult {
	return m.ScanResult{
		ID:   "scan-7",
		Root: "/repo",
		Mode: m.ModeFull,
		Issues: []m.IssueCandidate{{
			FilePath: "/repo/app.py", LineNumber: 4, RuleID: "PY-002",
			VulnerabilityType: "SQL Injection", Severity: m.SeverityHigh,
		}},
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
}

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		setup func(f *fixture)
	}{
		{
			name: "full",
			body: `{"path": "/repo"}`,
			setup: func(f *fixture) {
				f.plain.On("Scan", mock.Anything, m.Path("/repo")).Return(sample(), nil).Once()
			},
		},
		{
			name: "incremental",
			body: `{"path": "/repo", "incremental": true}`,
			setup: func(f *fixture) {
				f.plain.On("ScanIncremental", mock.Anything, m.Path("/repo"), false).Return(sample(), nil).Once()
			},
		},
		{
			name: "force full with verify",
			body: `{"path": "/repo", "force_full_scan": true, "verify": true}`,
			setup: func(f *fixture) {
				f.verifying.On("ScanIncremental", mock.Anything, m.Path("/repo"), true).Return(sample(), nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			f.store.On("SaveScan", mock.Anything, sample()).Return(nil).Once()
			f.store.On("Close").Return(nil)

			rec := f.do(http.MethodPost, "/scan", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got m.ScanResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "scan-7", got.ID)
			assert.Len(t, got.Issues, 1)
		})
	}
}

func TestScan_BadRequests(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		rec := newFixture(t).do(http.MethodPost, "/scan", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing path", func(t *testing.T) {
		rec := newFixture(t).do(http.MethodPost, "/scan", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid root", func(t *testing.T) {
		f := newFixture(t)
		f.plain.On("Scan", mock.Anything, m.Path("/nope")).
			Return(m.ScanResult{}, adapter.ErrInvalidRoot)

		rec := f.do(http.MethodPost, "/scan", `{"path": "/nope"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid")
	})

	t.Run("scanner failure", func(t *testing.T) {
		f := newFixture(t)
		f.plain.On("Scan", mock.Anything, m.Path("/repo")).
			Return(m.ScanResult{}, errors.New("boom"))

		rec := f.do(http.MethodPost, "/scan", `{"path": "/repo"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.store.On("ListScans", mock.Anything, 3).Return([]m.ScanRecord{{ID: "a"}}, nil).Once()
	f.store.On("ListScans", mock.Anything, defaultHistoryLimit).Return(nil, nil).Once()
	f.store.On("Close").Return(nil)

	rec := f.do(http.MethodGet, "/history?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"a"`)

	rec = f.do(http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = f.do(http.MethodGet, "/history?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScan(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetScan", mock.Anything, "scan-7").Return(sample(), nil)
	f.store.On("GetScan", mock.Anything, "missing").Return(m.ScanResult{}, adapter.ErrScanNotFound)
	f.store.On("Close").Return(nil)

	rec := f.do(http.MethodGet, "/history/scan-7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SQL Injection")

	rec = f.do(http.MethodGet, "/history/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetScan", mock.Anything, "scan-7").Return(sample(), nil)
	f.store.On("Close").Return(nil)

	rec := f.do(http.MethodGet, "/export/scan-7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version": "2.1.0"`)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "vulnsift-scan-7.sarif")

	rec = f.do(http.MethodGet, "/export/scan-7?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "id: scan-7")

	rec = f.do(http.MethodGet, "/export/scan-7?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	rec := newFixture(t).do(http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vulnsift_files_processed_total")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := newFixture(t).do(http.MethodGet, "/scan", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
