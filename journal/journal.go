// Package journal keeps sqlite ledger of processed documents so interrupted
// batches can be resumed without resubmitting finished documents.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	source     TEXT PRIMARY KEY,
	batch_id   TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	zip_url    TEXT NOT NULL DEFAULT '',
	std_no     TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	renamed_to TEXT NOT NULL DEFAULT '',
	updated    INTEGER NOT NULL DEFAULT 0
);
`

const columns = `source, batch_id, state, zip_url, std_no, title, renamed_to, updated`

// Entry is ledger record for a single source document.
type Entry struct {
	Source    string    `yaml:"source"`
	BatchID   string    `yaml:"batch_id,omitempty"`
	State     string    `yaml:"state"`
	ZipURL    string    `yaml:"zip_url,omitempty"`
	StdNo     string    `yaml:"std_no,omitempty"`
	Title     string    `yaml:"title,omitempty"`
	RenamedTo string    `yaml:"renamed_to,omitempty"`
	Updated   time.Time `yaml:"updated"`
}

// Journal is opened ledger. Nil journal is valid and records nothing.
type Journal struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens (creating if necessary) ledger database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("unable to create journal directory: %w", err)
	}
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("unable to open journal %s: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare journal schema: %w", err)
	}
	return &Journal{conn: conn}, nil
}

// Close closes ledger database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.conn.Close()
}

// Lookup returns entry for source if it was recorded.
func (j *Journal) Lookup(source string) (*Entry, error) {
	if j == nil {
		return nil, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	var found *Entry
	err := sqlitex.Execute(j.conn, `SELECT `+columns+` FROM documents WHERE source = ?`,
		&sqlitex.ExecOptions{
			Args: []any{source},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				e := scan(stmt)
				found = &e
				return nil
			}})
	if err != nil {
		return nil, fmt.Errorf("unable to lookup %s in journal: %w", source, err)
	}
	return found, nil
}

// Record inserts or replaces entry, update time is set to now.
func (j *Journal) Record(e Entry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	err := sqlitex.Execute(j.conn, `INSERT INTO documents (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			batch_id = excluded.batch_id,
			state = excluded.state,
			zip_url = excluded.zip_url,
			std_no = excluded.std_no,
			title = excluded.title,
			renamed_to = excluded.renamed_to,
			updated = excluded.updated`,
		&sqlitex.ExecOptions{
			Args: []any{e.Source, e.BatchID, e.State, e.ZipURL, e.StdNo, e.Title, e.RenamedTo, time.Now().Unix()},
		})
	if err != nil {
		return fmt.Errorf("unable to record %s in journal: %w", e.Source, err)
	}
	return nil
}

// Entries returns all records ordered by source.
func (j *Journal) Entries() ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	var res []Entry
	err := sqlitex.Execute(j.conn, `SELECT `+columns+` FROM documents ORDER BY source`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			res = append(res, scan(stmt))
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("unable to list journal: %w", err)
	}
	return res, nil
}

func scan(stmt *sqlite.Stmt) Entry {
	return Entry{
		Source:    stmt.ColumnText(0),
		BatchID:   stmt.ColumnText(1),
		State:     stmt.ColumnText(2),
		ZipURL:    stmt.ColumnText(3),
		StdNo:     stmt.ColumnText(4),
		Title:     stmt.ColumnText(5),
		RenamedTo: stmt.ColumnText(6),
		Updated:   time.Unix(stmt.ColumnInt64(7), 0),
	}
}
