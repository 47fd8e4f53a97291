package config

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"stdpipe/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{entries: make(map[string]entry), id: uuid.NewString()}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

// entry is either in-memory data or path to file or directory which is read
// when report is finalized.
type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report accumulates debugging artifacts of a single run: logs, effective
// configuration and intermediate per-document dumps. Nil report is valid and
// ignores everything. Not safe for concurrent use.
type Report struct {
	entries map[string]entry
	// temporary copies made by StoreCopy, removed on Close
	copies []string
	file   *os.File
	id     string
}

// Close writes report archive and removes temporary copies.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()

	err := r.finalize()
	for _, dir := range r.copies {
		err = multierr.Append(err, os.RemoveAll(dir))
	}
	r.copies = nil
	return err
}

// ID returns unique identifier of this run, it is logged at start so report
// could be matched with console output.
func (r *Report) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers path to file or directory, its content at the time of
// Close goes into report.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.original != path {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.original, path))
	}

	e := entry{original: path, actual: path}
	if p, err := filepath.Abs(path); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData puts data into report under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("Attempt to overwrite data in the report for [%s]", name))
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

// StoreJSON saves indented JSON representation of v under requested name.
func (r *Report) StoreJSON(name string, v any) {
	if r == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = fmt.Appendf(nil, "unable to marshal %T: %v", v, err)
	}
	r.StoreData(name, data)
}

// StoreCopy copies file or directory into temporary location right away, so
// later modifications (renames of pictures, for example) do not affect the
// report. Repeated names get time stamp suffix.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	e := entry{stamp: time.Now(), original: path}
	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}
	r.copies = append(r.copies, dir)

	switch {
	case info.Mode().IsRegular():
		e.actual = filepath.Join(dir, filepath.Base(src))
		if err := copyFile(e.actual, src, info.ModTime()); err != nil {
			return err
		}
	case info.IsDir():
		e.actual = dir
		err := walkFiles(src, func(rel, path string, info fs.FileInfo) error {
			return copyFile(filepath.Join(dir, rel), path, info.ModTime())
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unable to copy %s: not a regular file or directory", path)
	}

	r.entries[name] = e
	return nil
}

// walkFiles calls fn for every regular file under root with path relative
// to root.
func walkFiles(root string, fn func(rel, path string, info fs.FileInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(rel, path, info)
	})
}

func copyFile(dst, src string, modTime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, modTime, modTime)
}

// finalize writes MANIFEST and all stored entries into report archive.
// Entries whose files disappeared are listed in manifest only.
func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	names, manifest := prepareManifest(r.entries)
	err := saveFile(arc, "MANIFEST", time.Now(), manifest)

	for _, name := range names {
		if err != nil {
			break
		}
		e := r.entries[name]
		if len(e.data) > 0 {
			err = saveFile(arc, name, e.stamp, bytes.NewReader(e.data))
			continue
		}

		info, serr := os.Stat(e.actual)
		switch {
		case serr != nil:
		case info.Mode().IsRegular():
			err = savePath(arc, name, e.actual, info.ModTime())
		case info.IsDir():
			err = walkFiles(e.actual, func(rel, path string, info fs.FileInfo) error {
				return savePath(arc, filepath.ToSlash(filepath.Join(name, rel)), path, info.ModTime())
			})
		}
	}
	return multierr.Append(err, arc.Close())
}

func prepareManifest(entries map[string]entry) ([]string, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	if len(entries) == 0 {
		return nil, buf
	}

	now := time.Now()
	keys := slices.Collect(maps.Keys(entries))
	sort.Sort(natural.StringSlice(keys))

	for _, k := range keys {
		e := entries[k]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", e.stamp.UTC().Format(time.UnixDate), k, e.original, e.actual)
	}
	return keys, buf
}

func savePath(dst *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
