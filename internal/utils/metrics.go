package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Entry points that trigger a conversion.
const (
	EntrypointExport  = "export"
	EntrypointPreview = "preview"
	EntrypointCLI     = "cli"
)

// Metrics holds all Prometheus metrics for conversions and the preview cache
type Metrics struct {
	conversions        *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	archiveSize        prometheus.Histogram
	hotspots           prometheus.Histogram
	previewHits        *prometheus.CounterVec
	previewMisses      prometheus.Counter
	previewCacheSize   *prometheus.GaugeVec
	downloads          *prometheus.CounterVec
	downloadBytes      *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		conversions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camio_conversions_total",
				Help: "Total number of conversions by entry point and outcome",
			},
			[]string{"entrypoint", "status"},
		),
		conversionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "camio_conversion_duration_ms",
				Help:    "Duration of conversions in milliseconds",
				Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
			[]string{"entrypoint"},
		),
		archiveSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "camio_archive_size_bytes",
				Help:    "Size of written .camio archives",
				Buckets: prometheus.ExponentialBuckets(16<<10, 2, 10),
			},
		),
		hotspots: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "camio_hotspots_per_export",
				Help:    "Number of hotspots in each exported map",
				Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
			},
		),
		previewHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camio_preview_cache_hits_total",
				Help: "Total number of preview cache hits by layer",
			},
			[]string{"layer"},
		),
		previewMisses: f.NewCounter(
			prometheus.CounterOpts{
				Name: "camio_preview_cache_misses_total",
				Help: "Total number of previews rendered because no layer had them",
			},
		),
		previewCacheSize: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "camio_preview_cache_size_bytes",
				Help: "Current preview cache size in bytes by layer",
			},
			[]string{"layer"},
		),
		downloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camio_downloads_total",
				Help: "Total number of archive downloads by source",
			},
			[]string{"source"},
		),
		downloadBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camio_download_bytes_total",
				Help: "Archive bytes streamed to clients by source",
			},
			[]string{"source"},
		),
	}
}

// RecordConversion counts a conversion and its duration
func (m *Metrics) RecordConversion(entrypoint string, milliseconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.conversions.WithLabelValues(entrypoint, status).Inc()
	m.conversionDuration.WithLabelValues(entrypoint).Observe(milliseconds)
}

// RecordExport records the size and hotspot count of a written archive
func (m *Metrics) RecordExport(sizeBytes int64, hotspots int) {
	m.archiveSize.Observe(float64(sizeBytes))
	m.hotspots.Observe(float64(hotspots))
}

// IncrementPreviewHits increments the preview hit counter of a layer
func (m *Metrics) IncrementPreviewHits(layer string) {
	m.previewHits.WithLabelValues(layer).Inc()
}

// IncrementPreviewMisses increments the preview miss counter
func (m *Metrics) IncrementPreviewMisses() {
	m.previewMisses.Inc()
}

// SetPreviewCacheSize sets the current size of a cache layer
func (m *Metrics) SetPreviewCacheSize(layer string, bytes int64) {
	m.previewCacheSize.WithLabelValues(layer).Set(float64(bytes))
}

// RecordDownload counts a finished archive download
func (m *Metrics) RecordDownload(source string, bytes int64) {
	m.downloads.WithLabelValues(source).Inc()
	m.downloadBytes.WithLabelValues(source).Add(float64(bytes))
}
