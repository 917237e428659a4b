// Package store keeps named document snapshots in a SQLite database.
//
// Markup is stored xz-compressed next to its BLAKE3 digest. Saving content
// whose digest matches the stored one is a no-op, so autosave loops do not
// churn the database.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - CGO_ENABLED=1 -tags cgo_sqlite: mattn/go-sqlite3
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/FocuswithJustin/ClozeMark/core/errors"
	"github.com/FocuswithJustin/ClozeMark/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name        TEXT PRIMARY KEY,
	hash        TEXT NOT NULL,
	size        INTEGER NOT NULL,
	data        BLOB NOT NULL,
	updated_at  TEXT NOT NULL
)`

// Entry describes one stored document.
type Entry struct {
	Name       string    `json:"name"`
	Hash       string    `json:"hash"`
	Size       int       `json:"size"`
	StoredSize int       `json:"stored_size"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is a SQLite-backed document store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path. The parent directory is created
// when missing.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.NewValidation("path", "store path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewIO("mkdir", dir, err)
		}
	}
	db, err := openDB(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("init schema", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ValidateName checks a document name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewValidation("name", "document name is empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errors.NewValidation("name", "document name contains control characters")
		}
	}
	return nil
}

// Save stores markup under name. It reports false when the stored content
// already had the same digest and nothing was written.
func (s *Store) Save(ctx context.Context, name string, markup []byte) (Entry, bool, error) {
	if err := ValidateName(name); err != nil {
		return Entry{}, false, err
	}
	hash := Hash(markup)

	current, err := s.Stat(ctx, name)
	switch {
	case err == nil && current.Hash == hash:
		logging.StoreOperation("save", name, "changed", false)
		return current, false, nil
	case err != nil && !errors.Is(err, errors.ErrNotFound):
		return Entry{}, false, err
	}

	data, err := compress(markup)
	if err != nil {
		return Entry{}, false, errors.Wrapf(err, "save %s", name)
	}
	entry := Entry{
		Name:       name,
		Hash:       hash,
		Size:       len(markup),
		StoredSize: len(data),
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (name, hash, size, data, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			hash = excluded.hash, size = excluded.size,
			data = excluded.data, updated_at = excluded.updated_at`,
		entry.Name, entry.Hash, entry.Size, data, entry.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return Entry{}, false, errors.NewIO("save", name, err)
	}
	logging.StoreOperation("save", name, "changed", true, "size", entry.Size, "stored_size", entry.StoredSize)
	return entry, true, nil
}

// Load returns the markup stored under name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var hash string
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT hash, data FROM documents WHERE name = ?`, name).Scan(&hash, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("document", name)
	}
	if err != nil {
		return nil, errors.NewIO("load", name, err)
	}
	markup, err := decompress(data, hash)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	logging.StoreOperation("load", name, "size", len(markup))
	return markup, nil
}

// Stat returns the entry for name without its content.
func (s *Store) Stat(ctx context.Context, name string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, hash, size, length(data), updated_at FROM documents WHERE name = ?`, name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, errors.NewNotFound("document", name)
	}
	if err != nil {
		return Entry{}, errors.NewIO("stat", name, err)
	}
	return e, nil
}

// List returns every entry ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, hash, size, length(data), updated_at FROM documents ORDER BY name`)
	if err != nil {
		return nil, errors.NewIO("list", s.path, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.NewIO("list", s.path, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("list", s.path, err)
	}
	return entries, nil
}

// Delete removes name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return errors.NewIO("delete", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFound("document", name)
	}
	logging.StoreOperation("delete", name)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var updated string
	if err := row.Scan(&e.Name, &e.Hash, &e.Size, &e.StoredSize, &updated); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(time.RFC3339, updated)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp %q: %w", updated, err)
	}
	e.UpdatedAt = t
	return e, nil
}
