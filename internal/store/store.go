// Package store persists an analysis snapshot to SQLite for downstream
// query tools. It is a consumer of the semantic model, not part of the
// pipeline: the core never touches it.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the snapshot tables.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for consumer queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS modules (
  id            TEXT PRIMARY KEY,
  path          TEXT NOT NULL,
  language      TEXT NOT NULL,
  name          TEXT NOT NULL,
  namespace     TEXT,
  doc           TEXT,
  best_effort   BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS module_imports (
  id            INTEGER PRIMARY KEY,
  module_id     TEXT NOT NULL REFERENCES modules(id),
  kind          TEXT NOT NULL,
  target        TEXT NOT NULL,
  resolved      TEXT,
  line          INTEGER
);

CREATE TABLE IF NOT EXISTS types (
  id            TEXT PRIMARY KEY,
  module_id     TEXT NOT NULL REFERENCES modules(id),
  name          TEXT NOT NULL,
  qualified     TEXT NOT NULL,
  kind          TEXT NOT NULL,
  visibility    TEXT,
  abstract      BOOLEAN DEFAULT FALSE,
  final         BOOLEAN DEFAULT FALSE,
  start_line    INTEGER,
  end_line      INTEGER,
  doc           TEXT,
  best_effort   BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS routines (
  id            TEXT PRIMARY KEY,
  owner_id      TEXT NOT NULL,
  module_id     TEXT NOT NULL REFERENCES modules(id),
  name          TEXT NOT NULL,
  qualified     TEXT NOT NULL,
  kind          TEXT NOT NULL,
  visibility    TEXT,
  static        BOOLEAN DEFAULT FALSE,
  abstract      BOOLEAN DEFAULT FALSE,
  async         BOOLEAN DEFAULT FALSE,
  generator     BOOLEAN DEFAULT FALSE,
  returns       TEXT,
  start_line    INTEGER,
  end_line      INTEGER,
  doc           TEXT,
  best_effort   BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS routine_params (
  id            INTEGER PRIMARY KEY,
  routine_id    TEXT NOT NULL REFERENCES routines(id),
  ordinal       INTEGER NOT NULL,
  name          TEXT NOT NULL,
  type          TEXT,
  has_default   BOOLEAN DEFAULT FALSE,
  default_expr  TEXT,
  variadic      BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS attributes (
  id            TEXT PRIMARY KEY,
  owner_id      TEXT NOT NULL,
  module_id     TEXT NOT NULL REFERENCES modules(id),
  name          TEXT NOT NULL,
  kind          TEXT NOT NULL,
  type          TEXT,
  type_target   TEXT,
  default_expr  TEXT,
  static        BOOLEAN DEFAULT FALSE,
  visibility    TEXT,
  line          INTEGER
);

CREATE TABLE IF NOT EXISTS relationships (
  id            INTEGER PRIMARY KEY,
  source        TEXT NOT NULL,
  target        TEXT NOT NULL,
  kind          TEXT NOT NULL,
  cardinality   TEXT,
  optional      BOOLEAN DEFAULT FALSE,
  file          TEXT,
  line          INTEGER,
  note          TEXT
);

CREATE TABLE IF NOT EXISTS flow_traces (
  id            INTEGER PRIMARY KEY,
  entry_id      TEXT NOT NULL,
  depth         INTEGER NOT NULL,
  terminal      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS flow_hops (
  id            INTEGER PRIMARY KEY,
  trace_id      INTEGER NOT NULL REFERENCES flow_traces(id),
  ordinal       INTEGER NOT NULL,
  caller        TEXT NOT NULL,
  callee        TEXT NOT NULL,
  callee_text   TEXT,
  line          INTEGER,
  note          TEXT
);

CREATE TABLE IF NOT EXISTS diagnostics (
  id            INTEGER PRIMARY KEY,
  category      TEXT NOT NULL,
  path          TEXT,
  line          INTEGER,
  front_end     TEXT,
  stage         TEXT,
  message       TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
  key           TEXT PRIMARY KEY,
  value         TEXT
);

CREATE INDEX IF NOT EXISTS idx_types_module ON types(module_id);
CREATE INDEX IF NOT EXISTS idx_routines_owner ON routines(owner_id);
CREATE INDEX IF NOT EXISTS idx_attributes_owner ON attributes(owner_id);
CREATE INDEX IF NOT EXISTS idx_relationships_kind ON relationships(kind);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source);
CREATE INDEX IF NOT EXISTS idx_flow_traces_entry ON flow_traces(entry_id);
`

// SetMetadata stores one key/value pair.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata reads one value; empty string when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}
