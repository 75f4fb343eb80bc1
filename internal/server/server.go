// Package server exposes scans and scan history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	"vulnsift.dev/pkg/vulnsift/internal/controller"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

const (
	defaultHistoryLimit = 50
	shutdownTimeout     = 10 * time.Second
)

// ScannerFactory returns the scanner for a request; verify selects the
// variant that runs the verification pass.
type ScannerFactory func(verify bool) domain.Scanner

// ScanRequest is the body of POST /scan.
type ScanRequest struct {
	Path          string `json:"path"`
	Incremental   bool   `json:"incremental"`
	ForceFullScan bool   `json:"force_full_scan"`
	Verify        bool   `json:"verify"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Server routes the HTTP API onto the scanner and the result store.
type Server struct {
	scanners  ScannerFactory
	openStore domain.StoreOpener
	metrics   http.Handler
	version   string

	// scans serializes scans so concurrent requests never race on a cache file.
	scans sync.Mutex
}

// New creates a Server. metrics may be nil, which disables GET /metrics.
func New(scanners ScannerFactory, openStore domain.StoreOpener, metrics http.Handler, version string) *Server {
	return &Server{
		scanners:  scanners,
		openStore: openStore,
		metrics:   metrics,
		version:   version,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/history/{id}", s.handleGetScan).Methods(http.MethodGet)
	r.HandleFunc("/export/{id}", s.handleExport).Methods(http.MethodGet)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	r.Use(logRequests)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http server listening", "addr", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	slog.Info("http server stopped")

	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Service: "vulnsift", Version: s.version})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}

	s.scans.Lock()
	defer s.scans.Unlock()

	scanner := s.scanners(req.Verify)
	root := m.Path(req.Path)

	var (
		result m.ScanResult
		err    error
	)

	if req.Incremental || req.ForceFullScan {
		result, err = scanner.ScanIncremental(r.Context(), root, req.ForceFullScan)
	} else {
		result, err = scanner.Scan(r.Context(), root)
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, adapter.ErrInvalidRoot) {
			status = http.StatusBadRequest
		}

		writeError(w, status, err)

		return
	}

	s.record(r.Context(), result)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) record(ctx context.Context, result m.ScanResult) {
	store, err := s.openStore()
	if err != nil {
		slog.Warn("result store unavailable, scan not recorded", "error", err)
		return
	}
	defer closeStore(store)

	if err := store.SaveScan(ctx, result); err != nil {
		slog.Warn("failed to record scan", "id", result.ID, "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}

		limit = n
	}

	store, err := s.openStore()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer closeStore(store)

	records, err := store.ListScans(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if records == nil {
		records = []m.ScanRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadScan(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := controller.FormatSARIF

	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := controller.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		format = parsed
	}

	result, ok := s.loadScan(w, r)
	if !ok {
		return
	}

	contentType := "application/json"
	if format == controller.FormatYAML {
		contentType = "application/yaml"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vulnsift-%s.%s"`, result.ID, format))

	if err := controller.WriteReport(w, format, result); err != nil {
		slog.Error("failed to write report", "id", result.ID, "error", err)
	}
}

func (s *Server) loadScan(w http.ResponseWriter, r *http.Request) (m.ScanResult, bool) {
	id := mux.Vars(r)["id"]

	store, err := s.openStore()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return m.ScanResult{}, false
	}
	defer closeStore(store)

	result, err := store.GetScan(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, adapter.ErrScanNotFound) {
			status = http.StatusNotFound
		}

		writeError(w, status, err)

		return m.ScanResult{}, false
	}

	return result, true
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func closeStore(store adapter.ResultStore) {
	if err := store.Close(); err != nil {
		slog.Warn("failed to close result store", "error", err)
	}
}
