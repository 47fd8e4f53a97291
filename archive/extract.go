package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
)

// Extract unpacks all files of archive under outDir and returns number of
// extracted files. When cp is not nil names of entries not flagged as UTF-8
// are decoded from that code page.
func Extract(archive, outDir string, cp encoding.Encoding) (int, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("unable to create directory %s: %w", outDir, err)
	}

	count := 0
	err := Walk(archive, cp, func(name string, f *zip.File) error {
		if err := extractFile(f, filepath.Join(outDir, filepath.FromSlash(name))); err != nil {
			return fmt.Errorf("unable to extract %q: %w", name, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("unable to extract archive %s: %w", archive, err)
	}
	return count, nil
}

func extractFile(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if !f.Modified.IsZero() {
		_ = os.Chtimes(dst, f.Modified, f.Modified)
	}
	return nil
}
