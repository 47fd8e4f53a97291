package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"stdpipe/naming"
)

// number of bytes filetype needs to recognize any known type
const headerSize = 262

// isPDF checks both file extension and "%PDF" signature.
func isPDF(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "pdf"), nil
}

// FindPDFs returns naturally ordered list of PDF documents. Source could be
// either single file or directory, subdirectories are visited only when
// recursive is set.
func FindPDFs(src string, recursive bool, log *zap.Logger) ([]string, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("input source was not found: %w", err)
	}

	if fi.Mode().IsRegular() {
		ok, err := isPDF(src)
		if err != nil {
			return nil, fmt.Errorf("unable to check file type: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("input was not recognized as PDF document (%s)", src)
		}
		return []string{src}, nil
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("unexpected path mode for (%s)", src)
	}

	var found []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if path != src && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ok, err := isPDF(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("Skipping file, not recognized as PDF", zap.String("file", path))
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to scan directory: %w", err)
	}
	sort.Sort(natural.StringSlice(found))
	return found, nil
}

// IsRemote reports whether source is http(s) URL of a document the parsing
// service fetches by itself.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// sourceName returns last element of document path or URL path.
func sourceName(src string) string {
	if !IsRemote(src) {
		return filepath.Base(src)
	}
	u, _ := url.Parse(src)
	if name := path.Base(u.Path); name != "/" && name != "." {
		return name
	}
	return u.Host
}

// sourceStem names output directory of the document.
func sourceStem(src string) string {
	name := sourceName(src)
	stem := strings.TrimSuffix(name, path.Ext(name))
	if !IsRemote(src) {
		return stem
	}
	if stem = naming.Sanitize(stem); stem == "" {
		stem = "document"
	}
	return stem
}
