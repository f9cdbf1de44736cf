// Package sqlite is a storage backend keeping a whole repository, objects,
// references and configuration, in a single SQLite database file.
package sqlite

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/internal/reference"
	"github.com/go-git/go-remote/plumbing"
	format "github.com/go-git/go-remote/plumbing/format/config"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/storage"
)

var _ storage.Storer = &Storage{}

const configKey = "config"

const schema = `
	CREATE TABLE IF NOT EXISTS objects (
		hash TEXT PRIMARY KEY,
		type INTEGER NOT NULL,
		content BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS refs (
		name TEXT PRIMARY KEY,
		target TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	);
`

// Storage is a storage.Storer over a SQLite database.
type Storage struct {
	db     *sql.DB
	config *config.Raw
}

// NewStorage opens, creating it if needed, the database at path. The
// special path ":memory:" keeps everything in memory.
func NewStorage(path string) (*Storage, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// an in-memory database lives as long as its connection
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) initialize() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	cfg := format.New()

	var text string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, configKey).Scan(&text)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read config: %w", err)
	default:
		if err := format.NewDecoder(strings.NewReader(text)).Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
	}

	s.config = config.NewRaw(cfg, s.saveConfig)
	return nil
}

func (s *Storage) saveConfig(cfg *format.Config) error {
	var buf bytes.Buffer
	if err := format.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		configKey, buf.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Config returns the configuration, stored as a git-config document.
func (s *Storage) Config() config.ConfigStorer {
	return s.config
}

func (s *Storage) HasEncodedObject(h plumbing.Hash) error {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM objects WHERE hash = ?`, h.String()).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to query object: %w", err)
	}

	if n == 0 {
		return plumbing.ErrObjectNotFound
	}

	return nil
}

func (s *Storage) SetEncodedObject(t plumbing.ObjectType, content []byte) (plumbing.Hash, error) {
	if !t.Valid() {
		return plumbing.ZeroHash, plumbing.ErrInvalidType
	}

	h := plumbing.ComputeHash(t, content)
	if content == nil {
		content = []byte{}
	}

	_, err := s.db.Exec(
		`INSERT INTO objects (hash, type, content) VALUES (?, ?, ?) ON CONFLICT(hash) DO NOTHING`,
		h.String(), int(t), content,
	)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store object: %w", err)
	}

	return h, nil
}

func (s *Storage) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	return getReference(s.db, n)
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func getReference(q queryer, n plumbing.ReferenceName) (*plumbing.Reference, error) {
	var target string
	err := q.QueryRow(`SELECT target FROM refs WHERE name = ?`, n.String()).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plumbing.ErrReferenceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query reference: %w", err)
	}

	return plumbing.NewReferenceFromStrings(n.String(), target), nil
}

func (s *Storage) SetReference(ref *plumbing.Reference, force bool) error {
	if ref == nil {
		return nil
	}

	if err := reference.CheckName(ref.Name()); err != nil {
		return err
	}

	return s.inTx(func(tx *sql.Tx) error {
		if !force {
			old, err := getReference(tx, ref.Name())
			switch {
			case err == nil:
				if !reference.SameValue(old, ref) {
					return storage.ErrReferenceExists
				}

				return nil
			case !errors.Is(err, plumbing.ErrReferenceNotFound):
				return err
			}
		}

		return putReference(tx, ref)
	})
}

func putReference(tx *sql.Tx, ref *plumbing.Reference) error {
	v := ref.Strings()
	_, err := tx.Exec(
		`INSERT INTO refs (name, target) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET target = excluded.target`,
		v[0], v[1],
	)
	if err != nil {
		return fmt.Errorf("failed to store reference: %w", err)
	}

	return nil
}

func (s *Storage) RenameReference(old, new plumbing.ReferenceName, force bool) error {
	return s.inTx(func(tx *sql.Tx) error {
		ref, err := getReference(tx, old)
		if err != nil {
			return err
		}

		if old == new {
			return nil
		}

		if err := reference.CheckName(new); err != nil {
			return err
		}

		_, err = getReference(tx, new)
		switch {
		case err == nil && !force:
			return storage.ErrReferenceExists
		case err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound):
			return err
		}

		if err := putReference(tx, reference.Rename(ref, new)); err != nil {
			return err
		}

		_, err = tx.Exec(`DELETE FROM refs WHERE name = ?`, old.String())
		return err
	})
}

func (s *Storage) RemoveReference(n plumbing.ReferenceName) error {
	if _, err := s.db.Exec(`DELETE FROM refs WHERE name = ?`, n.String()); err != nil {
		return fmt.Errorf("failed to remove reference: %w", err)
	}

	return nil
}

// IterReferences returns the references sorted by name.
func (s *Storage) IterReferences() (storer.ReferenceIter, error) {
	rows, err := s.db.Query(`SELECT name, target FROM refs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	var refs []*plumbing.Reference
	for rows.Next() {
		var name, target string
		if err := rows.Scan(&name, &target); err != nil {
			return nil, err
		}

		refs = append(refs, plumbing.NewReferenceFromStrings(name, target))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return storer.NewReferenceSliceIter(refs), nil
}

func (s *Storage) inTx(fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
