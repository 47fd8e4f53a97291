// Package archive walks and unpacks result archives produced by parsing
// service.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// WalkFunc receives every regular entry of archive together with its
// normalized name (forward slashes, decoded from forced code page).
// Returning an error stops the walk.
type WalkFunc func(name string, file *zip.File) error

// Walk visits regular entries of archive in stored order. Resource fork
// entries added by macOS archivers are skipped. Any name escaping the
// archive root fails the whole walk before fn sees it.
func Walk(archive string, cp encoding.Encoding, fn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := entryName(f, cp)
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path", name)
		}
		if f.FileInfo().IsDir() || strings.HasPrefix(name, "__MACOSX/") {
			continue
		}
		if err := fn(name, f); err != nil {
			return err
		}
	}
	return nil
}

func entryName(f *zip.File, cp encoding.Encoding) string {
	name := f.Name
	if cp != nil && f.NonUTF8 {
		if n, err := cp.NewDecoder().String(name); err == nil {
			name = n
		}
	}
	return strings.ReplaceAll(name, `\`, "/")
}

// isSafePath rejects absolute names, drive letters and ".." components.
func isSafePath(name string) bool {
	switch {
	case path.IsAbs(name), strings.HasPrefix(name, `\`):
		return false
	case len(name) > 1 && name[1] == ':':
		return false
	}
	return !hasParentRef(name)
}

func hasParentRef(name string) bool {
	for part := range strings.FieldsFuncSeq(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}
