package conversion

import (
	"archive/zip"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camio-service/internal/extraction"
	"camio-service/internal/models"
	"camio-service/internal/packaging"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func roomScan() models.Scan {
	return models.Scan{
		Walls: []models.Entity{wall(0, 0, 4, 0), wall(2, 2, 4, 1.5707963267948966)},
		Doors: []models.Entity{{
			Category:   models.CategoryDoor,
			Transform:  models.NewTransform(0.5, 1, 0, 0),
			Dimensions: [3]float64{0.9, 2, 0},
		}},
		Objects: []models.Entity{
			object(models.CategoryBed, 0.8, 1.1, 1.4, 2),
			object(models.CategoryTable, -1, 1.2, 0.8, 0.8),
		},
	}
}

func TestExportWritesCompleteArchive(t *testing.T) {
	dir := t.TempDir()
	c, err := NewConverter(WithCanvasSize(256), WithClock(fixedClock))
	require.NoError(t, err)

	res, err := c.Export(context.Background(), roomScan(), models.DefaultRenderConfig(), 0, dir, packaging.MetadataOptions{Title: "Kitchen"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "room_1714564800.camio"), res.Path)
	info, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), res.Size)

	a, err := extraction.ReadArchive(context.Background(), res.Path)
	require.NoError(t, err)
	assert.Len(t, a.Sizes, 4)
	assert.Zero(t, a.Sizes[packaging.SoundsEntry])

	// no directory entries besides the four files, all stored
	zr, err := zip.OpenReader(res.Path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 4)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.Equal(t, zip.Store, f.Method, f.Name)
	}
	assert.Equal(t, packaging.Entries, names)
	assert.Equal(t, 256, a.Template.Bounds().Dx())

	assert.Equal(t, "Kitchen", a.Metadata.Title)
	assert.Equal(t, packaging.DefaultLang, a.Metadata.Lang)
	assert.Equal(t, "2024-05-01T12:00:00Z", a.Metadata.CreationDate)
	assert.Equal(t, res.Metadata, a.Metadata)
	require.Len(t, a.Metadata.Hotspots, len(res.Assignments))
	for i, h := range a.Metadata.Hotspots {
		assert.Equal(t, res.Assignments[i].Label, h.HotspotTitle)
		assert.Equal(t, res.Assignments[i].Color, h.Color)
		assert.Nil(t, h.Sound)
	}
}

func TestExportNameCollision(t *testing.T) {
	dir := t.TempDir()
	c, err := NewConverter(WithCanvasSize(128), WithClock(fixedClock))
	require.NoError(t, err)

	first, err := c.Export(context.Background(), roomScan(), nil, 0, dir, packaging.MetadataOptions{})
	require.NoError(t, err)
	second, err := c.Export(context.Background(), roomScan(), nil, 0, dir, packaging.MetadataOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, "room_1714564800-1.camio", filepath.Base(second.Path))
}

func TestExportParity(t *testing.T) {
	dir := t.TempDir()
	c, err := NewConverter(WithCanvasSize(512), WithClock(fixedClock))
	require.NoError(t, err)

	res, err := c.Export(context.Background(), roomScan(), models.DefaultRenderConfig(), 30, dir, packaging.MetadataOptions{})
	require.NoError(t, err)
	a, err := extraction.ReadArchive(context.Background(), res.Path)
	require.NoError(t, err)

	report := extraction.VerifyParity(a)
	assert.True(t, report.OK(), "%+v", report)
	assert.Equal(t, len(res.Assignments), report.Hotspots)
}

func TestExportFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	c, err := NewConverter(WithCanvasSize(64), WithClock(fixedClock))
	require.NoError(t, err)
	_, err = c.Export(context.Background(), roomScan(), nil, 0, blocker, packaging.MetadataOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.Equal(t, KindEncoding, KindOf(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportMetadataJSONKeys(t *testing.T) {
	c, err := NewConverter(WithCanvasSize(64), WithClock(fixedClock))
	require.NoError(t, err)
	res, err := c.Export(context.Background(), roomScan(), nil, 0, t.TempDir(), packaging.MetadataOptions{})
	require.NoError(t, err)

	data, err := packaging.EncodeMetadata(res.Metadata)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"title", "shortDescription", "longDescription", "creationDate", "lastUpdate", "lang", "hotspots"} {
		assert.Contains(t, raw, key)
	}
}

func TestExportRejectsNonFiniteRotation(t *testing.T) {
	dir := t.TempDir()
	c, err := NewConverter(WithCanvasSize(128), WithClock(fixedClock))
	require.NoError(t, err)

	_, err = c.Export(context.Background(), roomScan(), nil, math.NaN(), dir, packaging.MetadataOptions{})
	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
