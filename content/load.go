package content

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Name fragments of result files produced by parsing service.
const (
	ContentListMarker = "content_list"
	ModelMarker       = "model"
)

// LoadList reads content list JSON file.
func LoadList(path string) (List, error) {
	var l List
	if err := loadJSON(path, &l); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadLayout reads layout model JSON file.
func LoadLayout(path string) (Layout, error) {
	var l Layout
	if err := loadJSON(path, &l); err != nil {
		return nil, err
	}
	return l, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unable to decode %s: %w", path, err)
	}
	return nil
}

// FindContentLists returns paths of all content list files under root.
func FindContentLists(root string) ([]string, error) {
	return findJSON(root, ContentListMarker)
}

// FindModels returns paths of all layout model files under root. Content
// lists are never returned even if their names contain the marker.
func FindModels(root string) ([]string, error) {
	files, err := findJSON(root, ModelMarker)
	if err != nil {
		return nil, err
	}
	res := files[:0]
	for _, f := range files {
		if !strings.Contains(strings.ToLower(filepath.Base(f)), ContentListMarker) {
			res = append(res, f)
		}
	}
	return res, nil
}

// findJSON recursively collects JSON files whose names contain marker (case
// insensitive) in natural order.
func findJSON(root, marker string) ([]string, error) {
	var res []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.HasSuffix(name, ".json") && strings.Contains(name, marker) {
			res = append(res, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to search %s: %w", root, err)
	}
	sort.Sort(natural.StringSlice(res))
	return res, nil
}
