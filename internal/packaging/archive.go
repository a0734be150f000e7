package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// Entry names inside a .camio archive, in write order.
const (
	TemplateEntry = "template.png"
	ColorMapEntry = "colorMap.png"
	MetadataEntry = "data.json"
	SoundsEntry   = "sounds/.keep"
)

// Entries lists every entry of a .camio archive in write order.
var Entries = []string{TemplateEntry, ColorMapEntry, MetadataEntry, SoundsEntry}

// Extension is the file extension of CamIO archives.
const Extension = ".camio"

const maxNameAttempts = 100

// Bundle is the encoded content of an archive.
type Bundle struct {
	Template []byte
	ColorMap []byte
	Metadata []byte
}

// Writer creates .camio archives in Dir.
type Writer struct {
	Dir string
	Now func() time.Time
}

// memFile serves an in-memory entry to the archiver.
type memFile struct {
	name    string
	data    []byte
	modTime time.Time
	*bytes.Reader
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Close() error               { return nil }
func (f *memFile) Name() string               { return filepath.Base(f.name) }
func (f *memFile) Size() int64                { return int64(len(f.data)) }
func (f *memFile) Mode() fs.FileMode          { return 0o644 }
func (f *memFile) ModTime() time.Time         { return f.modTime }
func (f *memFile) IsDir() bool                { return false }
func (f *memFile) Sys() any                   { return nil }

func entry(name string, data []byte, modTime time.Time) archives.FileInfo {
	info := &memFile{name: name, data: data, modTime: modTime}
	return archives.FileInfo{
		FileInfo:      info,
		NameInArchive: name,
		Open: func() (fs.File, error) {
			return &memFile{name: name, data: data, modTime: modTime, Reader: bytes.NewReader(data)}, nil
		},
	}
}

// Encode writes the four archive entries to w, all stored without
// compression.
func Encode(ctx context.Context, w io.Writer, b Bundle, modTime time.Time) error {
	files := []archives.FileInfo{
		entry(TemplateEntry, b.Template, modTime),
		entry(ColorMapEntry, b.ColorMap, modTime),
		entry(MetadataEntry, b.Metadata, modTime),
		entry(SoundsEntry, nil, modTime),
	}
	format := archives.Zip{Compression: zip.Store}
	return format.Archive(ctx, w, files)
}

// WriteArchive writes b to a new room_<unix>.camio file and returns its
// path and size. A name that already exists gets a numeric suffix. On
// failure no file is left behind.
func (w Writer) WriteArchive(ctx context.Context, b Bundle) (string, int64, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := now()

	var buf bytes.Buffer
	if err := Encode(ctx, &buf, b, ts); err != nil {
		return "", 0, errors.Wrap(err, "failed to assemble archive")
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", 0, errors.Wrap(err, "could not create output directory")
	}
	f, path, err := createUnique(w.Dir, ts.Unix())
	if err != nil {
		return "", 0, err
	}

	n, err := f.Write(buf.Bytes())
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, errors.Wrapf(err, "failed to write archive %s", path)
	}
	return path, int64(n), nil
}

func createUnique(dir string, unix int64) (*os.File, string, error) {
	base := fmt.Sprintf("room_%d", unix)
	for i := 0; i < maxNameAttempts; i++ {
		name := base + Extension
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, Extension)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", errors.Wrap(err, "could not create archive file")
		}
	}
	return nil, "", fmt.Errorf("no free archive name for %s after %d attempts", base, maxNameAttempts)
}
