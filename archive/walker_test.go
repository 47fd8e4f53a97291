package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/text/encoding/ianaindex"
)

type entry struct {
	name    string
	content string
	nonUTF8 bool
}

func makeZip(t *testing.T, entries ...entry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "result.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(f)
	for _, e := range entries {
		fh := &zip.FileHeader{Name: e.name, Method: zip.Deflate, NonUTF8: e.nonUTF8}
		if strings.HasSuffix(e.name, "/") {
			fh.SetMode(os.ModeDir | 0755)
		}
		fw, err := w.CreateHeader(fh)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}

func resultZip(t *testing.T) string {
	return makeZip(t,
		entry{name: "doc/"},
		entry{name: "doc/full.md", content: "# 标题"},
		entry{name: "doc/doc_content_list.json", content: "[]"},
		entry{name: "doc/layout_model.json", content: "[]"},
		entry{name: "doc/images/abc.jpg", content: "jpeg"},
	)
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		entry{name: "doc/"},
		entry{name: "doc/full.md", content: "# 标题"},
		entry{name: `doc\images\abc.jpg`, content: "jpeg"},
		entry{name: "__MACOSX/doc/._full.md", content: "fork"},
	)

	var visited []string
	err := Walk(zipPath, nil, func(name string, file *zip.File) error {
		if file == nil {
			t.Errorf("no file for %s", name)
		}
		visited = append(visited, name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if got, want := strings.Join(visited, ","), "doc/full.md,doc/images/abc.jpg"; got != want {
		t.Errorf("visited %s, want %s", got, want)
	}

	t.Run("early termination", func(t *testing.T) {
		stop := errors.New("stop")
		count := 0
		err := Walk(resultZip(t), nil, func(string, *zip.File) error {
			count++
			return stop
		})
		if err != stop || count != 1 {
			t.Errorf("Walk() = %v after %d files", err, count)
		}
	})

	t.Run("unsafe entry", func(t *testing.T) {
		count := 0
		err := Walk(makeZip(t, entry{name: "../evil.txt"}), nil, func(string, *zip.File) error {
			count++
			return nil
		})
		if err == nil || count != 0 {
			t.Errorf("Walk() = %v after %d files, want error before any", err, count)
		}
	})
}

func TestWalk_InvalidArchive(t *testing.T) {
	if err := Walk("/nonexistent/file.zip", nil, func(string, *zip.File) error { return nil }); err == nil {
		t.Error("Expected error for nonexistent file")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.zip")
	if err := os.WriteFile(invalid, []byte("not a zip file"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Walk(invalid, nil, func(string, *zip.File) error { return nil }); err == nil {
		t.Error("Expected error for invalid zip file")
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"doc/images/a.jpg", true},
		{"a..b/c.json", true},
		{"../evil.txt", false},
		{"doc/../../evil.txt", false},
		{`doc\..\evil.txt`, false},
		{"/etc/passwd", false},
		{`\windows\evil.txt`, false},
		{"C:/evil.txt", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	out := filepath.Join(t.TempDir(), "unzipped")
	n, err := Extract(resultZip(t), out, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Extract() = %d files, want 4", n)
	}

	var files []string
	err = filepath.WalkDir(out, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			rel, _ := filepath.Rel(out, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	want := "doc/doc_content_list.json,doc/full.md,doc/images/abc.jpg,doc/layout_model.json"
	if strings.Join(files, ",") != want {
		t.Errorf("extracted %v, want %s", files, want)
	}

	data, err := os.ReadFile(filepath.Join(out, "doc", "full.md"))
	if err != nil || string(data) != "# 标题" {
		t.Errorf("full.md = %q, %v", data, err)
	}
}

func TestExtract_Unsafe(t *testing.T) {
	zipPath := makeZip(t, entry{name: "ok.txt", content: "x"}, entry{name: "../evil.txt", content: "x"})
	dir := t.TempDir()
	if _, err := Extract(zipPath, filepath.Join(dir, "out"), nil); err == nil {
		t.Fatal("expected error for unsafe entry")
	}
	if _, err := os.Stat(filepath.Join(dir, "evil.txt")); !os.IsNotExist(err) {
		t.Error("unsafe entry was written outside of destination")
	}
}

func TestExtract_CodePage(t *testing.T) {
	cp, err := ianaindex.IANA.Encoding("GBK")
	if err != nil || cp == nil {
		t.Fatalf("unable to get GBK encoding: %v", err)
	}
	name, err := cp.NewEncoder().String("图片.jpg")
	if err != nil {
		t.Fatal(err)
	}

	zipPath := makeZip(t, entry{name: "images/" + name, content: "jpeg", nonUTF8: true})
	out := t.TempDir()
	if _, err := Extract(zipPath, out, cp); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "images", "图片.jpg")); err != nil {
		t.Errorf("decoded name not found: %v", err)
	}
}
