package utils

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordConversion(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordConversion(EntrypointExport, 120, nil)
	m.RecordConversion(EntrypointExport, 80, nil)
	m.RecordConversion(EntrypointPreview, 10, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.conversions.WithLabelValues("export", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("preview", "error")))

	m.IncrementPreviewHits("MEMORY")
	m.IncrementPreviewMisses()
	m.SetPreviewCacheSize("MEMORY", 2048)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.previewHits.WithLabelValues("MEMORY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.previewMisses))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.previewCacheSize.WithLabelValues("MEMORY")))

	m.RecordExport(40000, 7)
	count, err := testutil.GatherAndCount(reg, "camio_archive_size_bytes", "camio_hotspots_per_export")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	m.RecordDownload("local", 100)
	m.RecordDownload("local", 50)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.downloads.WithLabelValues("local")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.downloadBytes.WithLabelValues("local")))
}

func TestMetricsSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
