package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"sort"
	"strings"

	"github.com/mholt/archives"
	"github.com/pkg/errors"

	"camio-service/internal/models"
	"camio-service/internal/packaging"
)

// Archive is the decoded content of a .camio file.
type Archive struct {
	Path     string
	Sizes    map[string]int64
	Template image.Image
	ColorMap image.Image
	Metadata models.Metadata
}

// ReadArchive opens a .camio file and decodes its entries. It fails if the
// archive does not contain exactly the four expected entries or if the two
// rasters differ in size.
func ReadArchive(ctx context.Context, path string) (*Archive, error) {
	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not open archive")
	}

	a := &Archive{Path: path, Sizes: make(map[string]int64)}
	err = fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		a.Sizes[name] = info.Size()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list archive")
	}
	if err := checkEntries(a.Sizes); err != nil {
		return nil, err
	}

	if a.Template, err = decodePNG(fsys, packaging.TemplateEntry); err != nil {
		return nil, err
	}
	if a.ColorMap, err = decodePNG(fsys, packaging.ColorMapEntry); err != nil {
		return nil, err
	}
	if a.Template.Bounds() != a.ColorMap.Bounds() {
		return nil, fmt.Errorf("template is %v but color map is %v", a.Template.Bounds().Size(), a.ColorMap.Bounds().Size())
	}
	if b := a.Template.Bounds(); b.Dx() != b.Dy() {
		return nil, fmt.Errorf("rasters must be square, got %v", b.Size())
	}

	data, err := fs.ReadFile(fsys, packaging.MetadataEntry)
	if err != nil {
		return nil, errors.Wrap(err, "could not read data.json")
	}
	if err := json.Unmarshal(data, &a.Metadata); err != nil {
		return nil, errors.Wrap(err, "invalid data.json")
	}
	return a, nil
}

func checkEntries(sizes map[string]int64) error {
	var missing, extra []string
	for _, name := range packaging.Entries {
		if _, ok := sizes[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range sizes {
		if !isEntry(name) {
			extra = append(extra, name)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("unexpected archive layout: missing [%s], extra [%s]",
		strings.Join(missing, ", "), strings.Join(extra, ", "))
}

func isEntry(name string) bool {
	for _, e := range packaging.Entries {
		if e == name {
			return true
		}
	}
	return false
}

func decodePNG(fsys fs.FS, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", name)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", name)
	}
	return img, nil
}

// ParityReport compares the hotspots of an archive with the colors that
// actually appear on its color map.
type ParityReport struct {
	Hotspots int `json:"hotspots"`
	// Missing lists hotspots whose color is not painted anywhere, usually
	// because a higher priority layer covers them completely.
	Missing []string `json:"missing,omitempty"`
	// Shared lists hotspots whose color is also used by another hotspot.
	Shared []string `json:"shared,omitempty"`
}

// OK reports whether every hotspot maps to its own visible region.
func (r ParityReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Shared) == 0
}

// VerifyParity checks that each hotspot color is present on the color map
// and that no two hotspots share a color.
func VerifyParity(a *Archive) ParityReport {
	report := ParityReport{Hotspots: len(a.Metadata.Hotspots)}

	owners := make(map[models.RGB][]string)
	for _, h := range a.Metadata.Hotspots {
		owners[h.Color] = append(owners[h.Color], h.HotspotTitle)
	}
	for _, titles := range owners {
		if len(titles) > 1 {
			report.Shared = append(report.Shared, titles...)
		}
	}

	found := make(map[models.RGB]bool, len(owners))
	b := a.ColorMap.Bounds()
	for y := b.Min.Y; y < b.Max.Y && len(found) < len(owners); y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := pixel(a.ColorMap, x, y)
			if _, ok := owners[c]; ok {
				found[c] = true
			}
		}
	}
	for _, h := range a.Metadata.Hotspots {
		if !found[h.Color] {
			report.Missing = append(report.Missing, h.HotspotTitle)
		}
	}
	sort.Strings(report.Shared)
	return report
}

func pixel(img image.Image, x, y int) models.RGB {
	switch m := img.(type) {
	case *image.RGBA:
		i := m.PixOffset(x, y)
		return models.RGB{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
	case *image.NRGBA:
		i := m.PixOffset(x, y)
		return models.RGB{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return models.RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}
