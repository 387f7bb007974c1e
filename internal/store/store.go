package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// pragma is a connection setting and the value SQLite reports back once it
// is applied to a file database.
type pragma struct {
	name  string
	value string
	want  string
}

// pragmas configure every connection. The run log is written by one Runner
// at a time and read by history and replay, so WAL lets those reads proceed
// during a write.
var pragmas = []pragma{
	{name: "journal_mode", value: "WAL", want: "wal"},
	{name: "synchronous", value: "NORMAL", want: "1"},
	{name: "busy_timeout", value: "5000", want: "5000"},
}

// migrations[i] upgrades a database at user_version i to i+1.
var migrations = []func(*sql.DB) error{
	addRunConsts,
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = len(migrations)

// Store is the run log: content-addressed programs and the forward and
// inverse runs recorded against them.
type Store struct {
	db *sql.DB
}

// Open creates or opens the run log at path. ":memory:" opens a private
// in-memory log. Pragmas, schema and migrations are applied on every open.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: seq values come from a single clock, and an
	// in-memory database exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database for queries the Store does not cover.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

// applySchema creates missing tables and indexes, then migrates databases
// created by older versions.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	for ; version < currentSchemaVersion; version++ {
		if err := migrations[version](db); err != nil {
			return fmt.Errorf("migrate to v%d: %w", version+1, err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// addRunConsts adds runs.consts to logs written before constvar overrides
// were recorded. Their runs had no overrides, so the default is empty.
func addRunConsts(db *sql.DB) error {
	ok, err := hasColumn(db, "runs", "consts")
	if err != nil || ok {
		return err
	}
	_, err = db.Exec(`ALTER TABLE runs ADD COLUMN consts TEXT NOT NULL DEFAULT '{}'`)
	return err
}

// hasColumn reports whether table has a column called name.
func hasColumn(db *sql.DB, table, name string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid              int
			col, typ         string
			notNull, primary int
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &primary); err != nil {
			return false, err
		}
		if col == name {
			return true, nil
		}
	}
	return false, rows.Err()
}

// verifyPragma checks that a pragma reads back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
