package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camio-service/internal/models"
	"camio-service/internal/packaging"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solid(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func writeArchive(t *testing.T, colorMap image.Image, hotspots []models.Hotspot) string {
	t.Helper()
	meta, err := packaging.EncodeMetadata(models.Metadata{Title: "t", Lang: "en", Hotspots: hotspots})
	require.NoError(t, err)
	w := packaging.Writer{Dir: t.TempDir(), Now: func() time.Time { return time.Unix(1700000000, 0) }}
	path, _, err := w.WriteArchive(context.Background(), packaging.Bundle{
		Template: encodePNG(t, solid(colorMap.Bounds().Dx(), color.RGBA{255, 255, 255, 255})),
		ColorMap: encodePNG(t, colorMap),
		Metadata: meta,
	})
	require.NoError(t, err)
	return path
}

func TestReadArchive(t *testing.T) {
	cm := solid(16, color.RGBA{255, 255, 255, 255})
	cm.Set(3, 3, color.RGBA{10, 20, 30, 255})
	path := writeArchive(t, cm, []models.Hotspot{{Color: models.RGB{10, 20, 30}, HotspotTitle: "Chair 1"}})

	a, err := ReadArchive(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, a.Path)
	assert.Len(t, a.Sizes, 4)
	assert.Equal(t, 16, a.ColorMap.Bounds().Dx())
	require.Len(t, a.Metadata.Hotspots, 1)
	assert.Equal(t, "Chair 1", a.Metadata.Hotspots[0].HotspotTitle)

	report := VerifyParity(a)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Hotspots)
}

func TestVerifyParityFindsProblems(t *testing.T) {
	cm := solid(8, color.RGBA{255, 255, 255, 255})
	cm.Set(1, 1, color.RGBA{1, 1, 1, 255})
	a := &Archive{
		ColorMap: cm,
		Metadata: models.Metadata{Hotspots: []models.Hotspot{
			{Color: models.RGB{1, 1, 1}, HotspotTitle: "Wall 1"},
			{Color: models.RGB{9, 9, 9}, HotspotTitle: "Door 1"},
			{Color: models.RGB{1, 1, 1}, HotspotTitle: "Wall 2"},
		}},
	}
	report := VerifyParity(a)
	assert.False(t, report.OK())
	assert.Equal(t, []string{"Door 1"}, report.Missing)
	assert.Equal(t, []string{"Wall 1", "Wall 2"}, report.Shared)
}

func writeRawZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.camio")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestReadArchiveRejectsLayout(t *testing.T) {
	meta, _ := json.Marshal(models.Metadata{})
	img := encodePNG(t, solid(4, color.RGBA{A: 255}))
	path := writeRawZip(t, map[string][]byte{
		packaging.TemplateEntry: img,
		packaging.ColorMapEntry: img,
		packaging.MetadataEntry: meta,
		"extra.txt":             []byte("x"),
	})

	_, err := ReadArchive(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sounds/.keep")
	assert.Contains(t, err.Error(), "extra.txt")
}

func TestReadArchiveRejectsMismatchedRasters(t *testing.T) {
	meta, _ := json.Marshal(models.Metadata{})
	path := writeRawZip(t, map[string][]byte{
		packaging.TemplateEntry: encodePNG(t, solid(4, color.RGBA{A: 255})),
		packaging.ColorMapEntry: encodePNG(t, solid(8, color.RGBA{A: 255})),
		packaging.MetadataEntry: meta,
		packaging.SoundsEntry:   nil,
	})

	_, err := ReadArchive(context.Background(), path)
	require.Error(t, err)
}

func TestExtractArchive(t *testing.T) {
	path := writeArchive(t, solid(4, color.RGBA{255, 255, 255, 255}), nil)
	dest := t.TempDir()

	files, dir, err := ExtractArchive(context.Background(), path, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, dir)
	assert.Len(t, files, 4)
	assert.FileExists(t, filepath.Join(dest, "sounds", ".keep"))
	assert.FileExists(t, filepath.Join(dest, packaging.MetadataEntry))
}

func TestExtractArchiveTempDir(t *testing.T) {
	path := writeArchive(t, solid(4, color.RGBA{255, 255, 255, 255}), nil)

	files, dir, err := ExtractArchive(context.Background(), path, "")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	assert.Len(t, files, 4)
	assert.DirExists(t, dir)
}

func TestExtractArchiveMissingFile(t *testing.T) {
	_, _, err := ExtractArchive(context.Background(), filepath.Join(t.TempDir(), "nope.camio"), "")
	assert.Error(t, err)
}
