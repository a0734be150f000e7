package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camio-service/internal/models"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"CAMIO_PORT", "CAMIO_OUTPUT_DIR", "CAMIO_CANVAS_SIZE", "CAMIO_LANG",
		"CAMIO_TITLE", "CAMIO_RENDER_PROFILES", "PREVIEW_CACHE_MAX_BYTES",
		"PREVIEW_CACHE_TTL", "PREVIEW_CACHE_DIR", "REDIS_HOST", "DB_HOST",
		"DB_USER", "DB_NAME", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY",
		"MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_SSL",
		"MINIO_EXPORT_RETENTION_DAYS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 2048, cfg.CanvasSize)
	assert.Equal(t, "en", cfg.Lang)
	assert.Equal(t, int64(64<<20), cfg.PreviewCacheMaxBytes)
	assert.Equal(t, 10*time.Minute, cfg.PreviewCacheTTL)
	assert.False(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.MinioEnabled())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMIO_CANVAS_SIZE", "1024")
	t.Setenv("CAMIO_LANG", "it-it")
	t.Setenv("PREVIEW_CACHE_TTL", "90s")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ACCESS_KEY", "a")
	t.Setenv("MINIO_SECRET_KEY", "b")
	t.Setenv("MINIO_BUCKET", "camio")
	t.Setenv("MINIO_SSL", "true")
	t.Setenv("MINIO_EXPORT_RETENTION_DAYS", "30")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.CanvasSize)
	assert.Equal(t, "it-IT", cfg.Lang)
	assert.Equal(t, 90*time.Second, cfg.PreviewCacheTTL)
	assert.True(t, cfg.MinioEnabled())
	assert.True(t, cfg.MinioSSL)
	assert.Equal(t, 30, cfg.MinioExportRetentionDays)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"canvas not a number", map[string]string{"CAMIO_CANVAS_SIZE": "big"}},
		{"canvas too large", map[string]string{"CAMIO_CANVAS_SIZE": "20000"}},
		{"bad lang", map[string]string{"CAMIO_LANG": "not a tag"}},
		{"bad ttl", map[string]string{"PREVIEW_CACHE_TTL": "soon"}},
		{"partial database", map[string]string{"DB_HOST": "db"}},
		{"partial minio", map[string]string{"MINIO_ENDPOINT": "minio:9000"}},
		{"bad ssl", map[string]string{"MINIO_SSL": "maybe"}},
		{"retention not a number", map[string]string{"MINIO_EXPORT_RETENTION_DAYS": "month"}},
		{"negative retention", map[string]string{"MINIO_EXPORT_RETENTION_DAYS": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

const profilesYAML = `
profiles:
  kitchen:
    - {category: refrigerator, template: true, colorMap: true}
    - {category: Stove, colorMap: true}
    - {category: wall, template: true, colorMap: true}
  walls-only:
    - category: wall
      template: true
      colorMap: true
`

func TestLoadRenderProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profilesYAML), 0o644))

	profiles, err := LoadRenderProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"kitchen", "walls-only"}, profiles.Names())

	kitchen, ok := profiles.Get("kitchen")
	require.True(t, ok)
	require.Len(t, kitchen, 3)
	assert.Equal(t, models.CategoryRefrigerator, kitchen[0].Category)
	assert.Equal(t, "Refrigetator", kitchen[0].Label)
	assert.Equal(t, 2, kitchen.Priority(models.CategoryStove))
	tmpl, cm := kitchen.Visibility(models.CategoryStove)
	assert.False(t, tmpl)
	assert.True(t, cm)

	kitchen[0].RenderInTemplate = false
	again, _ := profiles.Get("kitchen")
	assert.True(t, again[0].RenderInTemplate)

	_, ok = profiles.Get("garage")
	assert.False(t, ok)
}

func TestLoadRenderProfilesEmptyPath(t *testing.T) {
	profiles, err := LoadRenderProfiles("")
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestParseRenderProfilesErrors(t *testing.T) {
	_, err := ParseRenderProfiles([]byte("profiles: [1, 2"))
	assert.Error(t, err)

	_, err = ParseRenderProfiles([]byte("profiles:\n  empty: []\n"))
	assert.Error(t, err)
}
