// Package store indexes whitelists in SQLite so tools can query them without
// reparsing the manifest.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/bindlist/manifest"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var logger = commonlog.GetLogger("bindlist.store")

// ErrEmpty is returned by Load when nothing has been saved yet.
var ErrEmpty = errors.New("store: no whitelist indexed")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS modules (
		position INTEGER PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		module   TEXT NOT NULL,
		position INTEGER NOT NULL,
		class    TEXT NOT NULL,
		PRIMARY KEY (module, position)
	)`,
	`CREATE INDEX IF NOT EXISTS entries_class ON entries (class)`,
	`CREATE TABLE IF NOT EXISTS methods (
		module   TEXT NOT NULL,
		entry    INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name     TEXT NOT NULL,
		PRIMARY KEY (module, entry, position)
	)`,
	`CREATE INDEX IF NOT EXISTS methods_name ON methods (name)`,
	`CREATE TABLE IF NOT EXISTS overrides (
		namespace TEXT PRIMARY KEY,
		prefix    TEXT NOT NULL
	)`,
}

// Store is a SQLite-backed whitelist index.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index at path. ":memory:" opens a private
// in-memory index.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create index directory: %w", err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the indexed whitelist with wl.
func (s *Store) Save(ctx context.Context, wl *manifest.Whitelist) error {
	digest, err := manifest.Digest(wl)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"meta", "modules", "entries", "methods", "overrides"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, m := range wl.Modules() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO modules (position, name) VALUES (?, ?)`, i, m.Name); err != nil {
			return fmt.Errorf("insert module %q: %w", m.Name, err)
		}
		for j, e := range m.Entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO entries (module, position, class) VALUES (?, ?, ?)`, m.Name, j, e.Class); err != nil {
				return fmt.Errorf("insert %s/%q: %w", m.Name, e.Class, err)
			}
			for k, name := range e.Methods {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO methods (module, entry, position, name) VALUES (?, ?, ?, ?)`, m.Name, j, k, name); err != nil {
					return fmt.Errorf("insert %s/%q.%q: %w", m.Name, e.Class, name, err)
				}
			}
		}
	}
	for ns, prefix := range wl.Overrides() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO overrides (namespace, prefix) VALUES (?, ?)`, ns, prefix); err != nil {
			return fmt.Errorf("insert override %q: %w", ns, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('digest', ?)`, digest); err != nil {
		return fmt.Errorf("insert digest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Infof("indexed %d modules, digest %s", len(wl.Modules()), digest)
	return nil
}

// Digest returns the digest of the indexed whitelist, or "" if none.
func (s *Store) Digest(ctx context.Context) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'digest'`).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return digest, err
}

// Load rebuilds the indexed whitelist.
func (s *Store) Load(ctx context.Context) (*manifest.Whitelist, error) {
	digest, err := s.Digest(ctx)
	if err != nil {
		return nil, err
	}
	if digest == "" {
		return nil, ErrEmpty
	}

	names, err := s.moduleNames(ctx)
	if err != nil {
		return nil, err
	}

	b := manifest.NewBuilder()
	for _, name := range names {
		m, err := s.loadModule(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := b.Register(m); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT namespace, prefix FROM overrides ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ns, prefix string
		if err := rows.Scan(&ns, &prefix); err != nil {
			return nil, err
		}
		if err := b.SetNamespacePrefixOverride(ns, prefix); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func (s *Store) moduleNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM modules ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) loadModule(ctx context.Context, name string) (manifest.Module, error) {
	m := manifest.Module{Name: name}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.position, e.class, m.name
		   FROM entries e LEFT JOIN methods m ON m.module = e.module AND m.entry = e.position
		  WHERE e.module = ?
		  ORDER BY e.position, m.position`, name)
	if err != nil {
		return m, fmt.Errorf("query module %q: %w", name, err)
	}
	defer rows.Close()

	last := -1
	for rows.Next() {
		var (
			pos    int
			class  string
			method sql.NullString
		)
		if err := rows.Scan(&pos, &class, &method); err != nil {
			return m, err
		}
		if pos != last {
			m.Entries = append(m.Entries, manifest.Entry{Class: class, Methods: []string{}})
			last = pos
		}
		if method.Valid {
			e := &m.Entries[len(m.Entries)-1]
			e.Methods = append(e.Methods, method.String)
		}
	}
	return m, rows.Err()
}

// IsWhitelisted reports whether any indexed module maps class to a list
// containing method.
func (s *Store) IsWhitelisted(ctx context.Context, class, method string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM entries e JOIN methods m ON m.module = e.module AND m.entry = e.position
			 WHERE e.class = ? AND m.name = ?)`, class, method).Scan(&ok)
	return ok, err
}

// IsClassWhitelisted reports whether class is a selector in any indexed
// module.
func (s *Store) IsClassWhitelisted(ctx context.Context, class string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM entries WHERE class = ?)`, class).Scan(&ok)
	return ok, err
}

// ModulesFor returns the modules declaring class, in registration order.
func (s *Store) ModulesFor(ctx context.Context, class string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mo.name FROM modules mo JOIN entries e ON e.module = mo.name
		  WHERE e.class = ? ORDER BY mo.position`, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
