package store

import "strconv"

// schemaVersion is the current schema revision. Store.Open creates a fresh
// schema at this version, or migrates forward from whatever index_state
// records.
const schemaVersion = 1

// schemaStatements is executed in order against a brand-new database.
// FTS sync is explicit delete-then-insert (see documents.go); the fts5
// table here is standalone, not an external-content table, because we
// manage its rowids ourselves.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS index_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS content (
		hash TEXT PRIMARY KEY,
		bytes BLOB NOT NULL,
		mime_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		include_globs TEXT NOT NULL DEFAULT '[]',
		exclude_globs TEXT NOT NULL DEFAULT '[]',
		default_context TEXT,
		embeddings_enabled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
		path TEXT NOT NULL,
		title TEXT,
		hash TEXT NOT NULL REFERENCES content(hash),
		file_type TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		indexed_at TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		UNIQUE(collection, path)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(hash)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		filepath, title, body,
		tokenize = 'porter unicode61'
	)`,
	`CREATE TABLE IF NOT EXISTS embeddings (
		hash TEXT NOT NULL REFERENCES content(hash) ON DELETE CASCADE,
		chunk_index INTEGER NOT NULL,
		char_offset INTEGER NOT NULL,
		model TEXT NOT NULL,
		vector BLOB NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (hash, chunk_index)
	)`,
	`CREATE TABLE IF NOT EXISTS path_contexts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT REFERENCES collections(name) ON DELETE CASCADE,
		path_prefix TEXT NOT NULL,
		context TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(collection, path_prefix)
	)`,
}

// ensureSchema creates the schema on a fresh database or migrates an
// existing one forward. Creation is idempotent (every statement is
// CREATE ... IF NOT EXISTS).
func (s *Store) ensureSchema() error {
	var exists int
	err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='index_state'`).Scan(&exists)
	if err != nil {
		return err
	}

	if exists == 0 {
		for _, stmt := range schemaStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return err
			}
		}
		_, err := s.db.Exec(`INSERT INTO index_state(key, value) VALUES ('schema_version', ?)`, strconv.Itoa(schemaVersion))
		return err
	}

	var versionStr string
	err = s.db.QueryRow(`SELECT value FROM index_state WHERE key = 'schema_version'`).Scan(&versionStr)
	if err != nil {
		return err
	}
	current, err := strconv.Atoi(versionStr)
	if err != nil {
		return err
	}
	if current < schemaVersion {
		if err := s.migrate(current, schemaVersion); err != nil {
			return err
		}
		_, err := s.db.Exec(`UPDATE index_state SET value = ? WHERE key = 'schema_version'`, strconv.Itoa(schemaVersion))
		return err
	}
	return nil
}

// migrate applies forward migrations in order. There are none yet beyond
// version 1, so this is currently a no-op hook.
func (s *Store) migrate(from, to int) error {
	return nil
}
