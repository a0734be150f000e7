package extraction

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// ExtractArchive copies every file of a .camio archive into destDir and
// returns the written paths. When destDir is empty a temporary directory
// is created. On failure the directory is removed only if it was created
// here.
func ExtractArchive(ctx context.Context, archivePath, destDir string) ([]string, string, error) {
	created := false
	if destDir == "" {
		dir, err := os.MkdirTemp("", "camio-*")
		if err != nil {
			return nil, "", err
		}
		destDir = dir
		created = true
	}
	cleanup := func() {
		if created {
			os.RemoveAll(destDir)
		}
	}

	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		cleanup()
		return nil, "", errors.Wrap(err, "could not open archive")
	}

	var files []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		destPath := filepath.Join(destDir, filepath.FromSlash(path))
		if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errors.Errorf("entry %q escapes destination", path)
		}

		reader, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer reader.Close()

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		outFile, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer outFile.Close()

		if _, err := io.Copy(outFile, reader); err != nil {
			return err
		}

		files = append(files, destPath)
		return nil
	})
	if err != nil {
		cleanup()
		return nil, "", errors.Wrap(err, "failed to extract archive")
	}

	return files, destDir, nil
}
