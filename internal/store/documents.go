package store

import (
	"database/sql"
	"time"

	"github.com/qfs-io/qfs/internal/qerr"
)

// UpsertDocument inserts or updates the (collection, path) row, then
// resynchronizes its FTS row by deleting and re-inserting it — the fts5
// virtual table does not accept upsert, so sync is always delete-then-
// insert, never a trigger.
func (s *Store) UpsertDocument(collection, path, title, hash, fileType, mimeType string, size int64, body string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, qerr.Database_("begin upsert", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO documents(collection, path, title, hash, file_type, mime_type, size, created_at, modified_at, indexed_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		 ON CONFLICT(collection, path) DO UPDATE SET
		   title = excluded.title,
		   hash = excluded.hash,
		   file_type = excluded.file_type,
		   mime_type = excluded.mime_type,
		   size = excluded.size,
		   modified_at = excluded.modified_at,
		   indexed_at = excluded.indexed_at,
		   active = 1`,
		collection, path, title, hash, fileType, mimeType, size, now, now, now,
	)
	if err != nil {
		return 0, qerr.Database_("upsert document "+collection+"/"+path, err)
	}

	var id int64
	err = tx.QueryRow(`SELECT id FROM documents WHERE collection = ? AND path = ?`, collection, path).Scan(&id)
	if err != nil {
		return 0, qerr.Database_("fetch document id", err)
	}

	if _, err := tx.Exec(`DELETE FROM documents_fts WHERE rowid = ?`, id); err != nil {
		return 0, qerr.Database_("delete stale fts row", err)
	}
	filepathCol := collection + "/" + path
	if _, err := tx.Exec(
		`INSERT INTO documents_fts(rowid, filepath, title, body) VALUES (?, ?, ?, ?)`,
		id, filepathCol, title, body,
	); err != nil {
		return 0, qerr.Database_("insert fts row", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, qerr.Database_("commit upsert", err)
	}
	return id, nil
}

// GetDocument fetches one active-or-not document by (collection, path).
func (s *Store) GetDocument(collection, path string) (Document, error) {
	row := s.db.QueryRow(
		`SELECT id, collection, path, title, hash, file_type, mime_type, size, created_at, modified_at, indexed_at, active
		 FROM documents WHERE collection = ? AND path = ?`, collection, path)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return Document{}, qerr.DocumentNotFound_(collection + "/" + path)
	}
	if err != nil {
		return Document{}, qerr.Database_("get document", err)
	}
	return d, nil
}

// GetDocumentByID fetches a document by its surrogate id.
func (s *Store) GetDocumentByID(id int64) (Document, error) {
	row := s.db.QueryRow(
		`SELECT id, collection, path, title, hash, file_type, mime_type, size, created_at, modified_at, indexed_at, active
		 FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return Document{}, qerr.New(qerr.DocumentNotFound, "document not found: id")
	}
	if err != nil {
		return Document{}, qerr.Database_("get document by id", err)
	}
	return d, nil
}

// GetDocumentByDocid resolves a (possibly partial, >=6 hex char) docid to
// the active document whose content hash has that prefix.
func (s *Store) GetDocumentByDocid(docid string) (Document, error) {
	row := s.db.QueryRow(
		`SELECT id, collection, path, title, hash, file_type, mime_type, size, created_at, modified_at, indexed_at, active
		 FROM documents WHERE active = 1 AND hash LIKE ? || '%' LIMIT 1`, docid)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return Document{}, qerr.New(qerr.DocumentNotFound, "no document with docid: "+docid)
	}
	if err != nil {
		return Document{}, qerr.Database_("get document by docid", err)
	}
	return d, nil
}

// DeactivateDocument soft-deletes a document and removes its FTS row.
func (s *Store) DeactivateDocument(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return qerr.Database_("begin deactivate", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE documents SET active = 0 WHERE id = ?`, id); err != nil {
		return qerr.Database_("deactivate document", err)
	}
	if _, err := tx.Exec(`DELETE FROM documents_fts WHERE rowid = ?`, id); err != nil {
		return qerr.Database_("delete fts row on deactivate", err)
	}
	return tx.Commit()
}

// ListDocuments returns active documents in a collection, optionally
// restricted to a path prefix, ordered by path.
func (s *Store) ListDocuments(collection, pathPrefix string) ([]Document, error) {
	query := `SELECT id, collection, path, title, hash, file_type, mime_type, size, created_at, modified_at, indexed_at, active
		 FROM documents WHERE collection = ? AND active = 1`
	args := []any{collection}
	if pathPrefix != "" {
		query += ` AND path LIKE ? || '%'`
		args = append(args, pathPrefix)
	}
	query += ` ORDER BY path`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, qerr.Database_("list documents", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// ListAllDocuments returns every active document across all collections.
func (s *Store) ListAllDocuments() ([]Document, error) {
	rows, err := s.db.Query(
		`SELECT id, collection, path, title, hash, file_type, mime_type, size, created_at, modified_at, indexed_at, active
		 FROM documents WHERE active = 1 ORDER BY collection, path`)
	if err != nil {
		return nil, qerr.Database_("list all documents", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// CountDocuments returns the count of active documents, overall (empty
// collection) or scoped to one collection.
func (s *Store) CountDocuments(collection string) (int, error) {
	var n int
	var err error
	if collection == "" {
		err = s.db.QueryRow(`SELECT count(*) FROM documents WHERE active = 1`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT count(*) FROM documents WHERE active = 1 AND collection = ?`, collection).Scan(&n)
	}
	if err != nil {
		return 0, qerr.Database_("count documents", err)
	}
	return n, nil
}

// ActivePaths returns the set of active document paths for a collection,
// used by the indexer's removal pass.
func (s *Store) ActivePaths(collection string) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT id, path FROM documents WHERE collection = ? AND active = 1`, collection)
	if err != nil {
		return nil, qerr.Database_("list active paths", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, qerr.Database_("scan active path", err)
		}
		out[path] = id
	}
	return out, rows.Err()
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	var title sql.NullString
	var createdAt, modifiedAt, indexedAt string
	var active int
	err := row.Scan(&d.ID, &d.Collection, &d.Path, &title, &d.Hash, &d.FileType, &d.MimeType, &d.Size,
		&createdAt, &modifiedAt, &indexedAt, &active)
	if err != nil {
		return Document{}, err
	}
	d.Title = title.String
	d.CreatedAt = parseTime(createdAt)
	d.ModifiedAt = parseTime(modifiedAt)
	d.IndexedAt = parseTime(indexedAt)
	d.Active = active != 0
	return d, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, qerr.Database_("scan document row", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
