package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer r.Close()

	res := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		res[f.Name] = string(data)
	}
	return res
}

func TestReportClose_RemovesCopies(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.zip")
	r, err := (&ReporterConfig{Destination: dest}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if r.ID() == "" {
		t.Error("expected report to have an id")
	}

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "content_list.json"), []byte("[]"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := r.StoreCopy("unzipped", src); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}
	if len(r.copies) != 1 {
		t.Fatalf("expected one temporary copy, got %d", len(r.copies))
	}
	copyDir := r.copies[0]

	r.StoreJSON("rows.json", []string{"a", "b"})
	r.StoreData("note.txt", []byte("hello"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if _, err := os.Stat(copyDir); !os.IsNotExist(err) {
		os.RemoveAll(copyDir)
		t.Errorf("expected temporary copy to be removed")
	}
	// original directory must stay
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source directory should not be removed: %v", err)
	}

	files := readArchive(t, dest)
	if _, ok := files["MANIFEST"]; !ok {
		t.Error("report has no MANIFEST")
	}
	if files["unzipped/content_list.json"] != "[]" {
		t.Errorf("copied directory content = %q", files["unzipped/content_list.json"])
	}
	if files["note.txt"] != "hello" {
		t.Errorf("note.txt = %q", files["note.txt"])
	}
	if !strings.Contains(files["rows.json"], `"a"`) {
		t.Errorf("rows.json = %q", files["rows.json"])
	}
}

func TestReportStoreData_Duplicate(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("a", []byte("1"))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate data entry")
		}
	}()
	r.StoreData("a", []byte("2"))
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	// none of these should panic
	r.Store("x", "y")
	r.StoreData("x", nil)
	r.StoreJSON("x", 1)
	if err := r.StoreCopy("x", "y"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" || r.ID() != "" {
		t.Error("nil report should have empty name and id")
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
