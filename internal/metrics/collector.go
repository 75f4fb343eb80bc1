// Package metrics exposes scan pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "vulnsift"

// Collector records scan progress. It satisfies the scan observer contract and
// is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	scansTotal         *prometheus.CounterVec
	scanDuration       *prometheus.HistogramVec
	filesDiscovered    prometheus.Gauge
	filesProcessed     prometheus.Counter
	filesTotal         *prometheus.CounterVec
	findingsTotal      *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	prunedFiles        prometheus.Counter
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.scansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Completed scans by mode.",
	}, []string{"mode"})

	c.scanDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of completed scans.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
	}, []string{"mode"})

	c.filesDiscovered = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "files_discovered",
		Help:      "Source files found by the most recent scan.",
	})

	c.filesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_processed_total",
		Help:      "Files run through static analysis.",
	})

	c.filesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Files by scan outcome.",
	}, []string{"outcome"})

	c.findingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "findings_total",
		Help:      "Findings by pipeline stage.",
	}, []string{"stage"})

	c.validationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "validation_duration_seconds",
		Help:      "Duration of inference validation calls.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"status"})

	c.prunedFiles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pruned_files_total",
		Help:      "Deleted files removed from the incremental cache.",
	})

	c.registry.MustRegister(
		c.scansTotal,
		c.scanDuration,
		c.filesDiscovered,
		c.filesProcessed,
		c.filesTotal,
		c.findingsTotal,
		c.validationDuration,
		c.prunedFiles,
	)

	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// FilesDiscovered records the size of the scanned tree.
func (c *Collector) FilesDiscovered(total int) {
	c.filesDiscovered.Set(float64(total))
}

// FileProcessed counts one analyzed file.
func (c *Collector) FileProcessed(m.Path) {
	c.filesProcessed.Inc()
}

// ValidationFinished observes one inference call.
func (c *Collector) ValidationFinished(elapsed time.Duration, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}

	c.validationDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// ScanFinished folds the final statistics of a scan into the counters.
func (c *Collector) ScanFinished(mode m.ScanMode, stats m.ScanStats) {
	c.scansTotal.WithLabelValues(string(mode)).Inc()
	c.scanDuration.WithLabelValues(string(mode)).Observe(stats.DurationSeconds)

	c.filesTotal.WithLabelValues("scanned").Add(float64(stats.ScannedFiles))
	c.filesTotal.WithLabelValues("cached").Add(float64(stats.CachedFiles))
	c.filesTotal.WithLabelValues("clean").Add(float64(stats.CleanFiles))
	c.filesTotal.WithLabelValues("flagged").Add(float64(stats.FlaggedFiles))

	c.findingsTotal.WithLabelValues("static").Add(float64(stats.StaticFindings))
	c.findingsTotal.WithLabelValues("taint").Add(float64(stats.TaintFindings))
	c.findingsTotal.WithLabelValues("validated").Add(float64(stats.ValidatedIssues))

	c.prunedFiles.Add(float64(stats.PrunedFiles))
}
