// Package sqlite opens a RecordStore on a local SQLite file using the pure
// Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store/sqlstore"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = ".pedigree/pedigree.db"

// Open creates (if needed) and opens the database at path.
func Open(ctx context.Context, path string, opts sqlstore.Options) (*sqlstore.Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: writes are serialized by sqlite anyway, and
	// ChangeDetector needs every local commit on the connection it asks
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s, err := sqlstore.New(ctx, db, Dialect{}, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

// Dialect is the SQLite flavour of sqlstore.Dialect.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS owner (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS horse (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			date_of_birth TEXT NOT NULL,
			sex TEXT NOT NULL CHECK (sex IN ('FEMALE', 'MALE')),
			owner_id INTEGER REFERENCES owner(id),
			father_id INTEGER REFERENCES horse(id),
			mother_id INTEGER REFERENCES horse(id)
		)`,
		`CREATE INDEX IF NOT EXISTS horse_father_idx ON horse(father_id)`,
		`CREATE INDEX IF NOT EXISTS horse_mother_idx ON horse(mother_id)`,
	}
}

// Rebind is a no-op; SQLite understands '?'.
func (Dialect) Rebind(query string) string { return query }

func (Dialect) DateArg(d model.Date) any { return d.String() }

func (Dialect) IsConstraint(err error) bool {
	var e *sqlitedriver.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
