package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if e, err := j.Lookup("/in/a.pdf"); err != nil || e != nil {
		t.Fatalf("Lookup() on empty journal = %+v, %v", e, err)
	}

	start := time.Now().Add(-time.Second)
	if err := j.Record(Entry{Source: "/in/a.pdf", BatchID: "b1", State: "running"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Record(Entry{Source: "/in/a.pdf", BatchID: "b1", State: "done", ZipURL: "https://x/r.zip", StdNo: "GB_T_1_2020", Title: "标题"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Record(Entry{Source: "/in/b.pdf", State: "failed"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	e, err := j.Lookup("/in/a.pdf")
	if err != nil || e == nil {
		t.Fatalf("Lookup() = %+v, %v", e, err)
	}
	if e.State != "done" || e.ZipURL != "https://x/r.zip" || e.Title != "标题" || e.BatchID != "b1" {
		t.Errorf("Lookup() = %+v", e)
	}
	if e.Updated.Before(start.Truncate(time.Second)) {
		t.Errorf("Updated = %v, want after %v", e.Updated, start)
	}

	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// reopen keeps data
	j, err = Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	all, err := j.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(all) != 2 || all[0].Source != "/in/a.pdf" || all[1].State != "failed" {
		t.Errorf("Entries() = %+v", all)
	}
}

func TestJournal_Nil(t *testing.T) {
	var j *Journal
	if err := j.Record(Entry{Source: "x"}); err != nil {
		t.Errorf("Record() on nil = %v", err)
	}
	if e, err := j.Lookup("x"); e != nil || err != nil {
		t.Errorf("Lookup() on nil = %+v, %v", e, err)
	}
	if all, err := j.Entries(); all != nil || err != nil {
		t.Errorf("Entries() on nil = %+v, %v", all, err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}
