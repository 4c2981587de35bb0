package kaggle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// extract unpacks the zip archive into destDir and returns the number of
// files written. Entries resolving outside destDir are refused.
func extract(archive, destDir string) (int, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %s (%w)", err.Error(), ErrArchive)
	}
	defer r.Close()

	root := filepath.Clean(destDir)
	files := 0

	for _, f := range r.File {
		target := filepath.Join(root, f.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return files, fmt.Errorf("archive entry %q points outside %s (%w)", f.Name, destDir, ErrArchive)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return files, fmt.Errorf("failed to create %s: %s (%w)", target, err.Error(), ErrArchive)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return files, err
		}
		files++
	}

	return files, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %s (%w)", filepath.Dir(target), err.Error(), ErrArchive)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read %s: %s (%w)", f.Name, err.Error(), ErrArchive)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %s (%w)", target, err.Error(), ErrArchive)
	}

	_, err = io.Copy(dst, src)
	closeErr := dst.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("failed to write %s: %s (%w)", target, err.Error(), ErrArchive)
	}

	return nil
}
