package media

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"stdpipe/naming"
)

// ImagesDir is directory (relative to result root) renamed pictures are
// moved into.
const ImagesDir = "images"

// NameTracker counts base names handed out during single renaming pass.
type NameTracker struct {
	used map[string]int
}

func NewNameTracker() *NameTracker {
	return &NameTracker{used: make(map[string]int)}
}

// Next registers another use of base and returns name for it: base itself on
// first use, base_N afterwards. Called again when returned name turns out to
// be occupied.
func (t *NameTracker) Next(base string) string {
	t.used[base]++
	return t.name(base)
}

func (t *NameTracker) name(base string) string {
	if n := t.used[base]; n > 1 {
		return base + "_" + strconv.Itoa(n)
	}
	return base
}

// Result of renaming pass. Mapping is old relative path to new one,
// problems are reported in Errors and do not stop the pass.
type Result struct {
	Mapping map[string]string
	Errors  []string
}

// Renamer moves pictures into ImagesDir naming them after captions.
type Renamer struct {
	tracker *NameTracker
	dryRun  bool
}

// NewRenamer creates renamer, when tracker is nil fresh one is used. In dry
// run mode mapping is computed but files are not touched.
func NewRenamer(tracker *NameTracker, dryRun bool) *Renamer {
	if tracker == nil {
		tracker = NewNameTracker()
	}
	return &Renamer{tracker: tracker, dryRun: dryRun}
}

// BaseName returns sanitized caption or fallback "图_<hash>"/"表_<hash>" when
// caption is empty.
func BaseName(b Block) string {
	if b.Caption != "" {
		return naming.Sanitize(b.Caption)
	}
	return b.Kind.Marker() + "_" + b.Hash()
}

// Rename processes blocks relative to root directory.
func (r *Renamer) Rename(root string, blocks []Block) Result {
	res := Result{Mapping: make(map[string]string)}

	for _, b := range blocks {
		src := filepath.Join(root, filepath.FromSlash(b.Path))
		if fi, err := os.Stat(src); err != nil || !fi.Mode().IsRegular() {
			if b.Source != "" {
				res.Errors = append(res.Errors, fmt.Sprintf("picture does not exist: %s (from %s)", src, b.Source))
			} else {
				res.Errors = append(res.Errors, fmt.Sprintf("picture does not exist: %s", src))
			}
			continue
		}

		base := BaseName(b)
		if base == "" {
			continue
		}
		ext := path.Ext(b.Path)

		rel := path.Join(ImagesDir, r.tracker.Next(base)+ext)
		dst := filepath.Join(root, filepath.FromSlash(rel))
		for occupied(dst, src) {
			rel = path.Join(ImagesDir, r.tracker.Next(base)+ext)
			dst = filepath.Join(root, filepath.FromSlash(rel))
		}

		if !r.dryRun {
			if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("unable to rename %s -> %s: %v", src, dst, err))
				continue
			}
			if err := os.Rename(src, dst); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("unable to rename %s -> %s: %v", src, dst, err))
				continue
			}
		}
		res.Mapping[b.Path] = rel
	}
	return res
}

// occupied reports whether dst exists and is not src itself.
func occupied(dst, src string) bool {
	if _, err := os.Stat(dst); err != nil {
		return false
	}
	a, errA := filepath.Abs(dst)
	b, errB := filepath.Abs(src)
	if errA != nil || errB != nil {
		return true
	}
	return a != b
}
