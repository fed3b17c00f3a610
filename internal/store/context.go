package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/qfs-io/qfs/internal/qerr"
)

// SetContext upserts a context row. A nil/empty collection means global.
func (s *Store) SetContext(collection, pathPrefix, context string) error {
	if !strings.HasPrefix(pathPrefix, "/") {
		pathPrefix = "/" + pathPrefix
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var collectionArg any
	if collection != "" {
		collectionArg = collection
	} else {
		// NULL never conflicts under UNIQUE, so update an existing global row first.
		res, err := s.db.Exec(`UPDATE path_contexts SET context = ?, updated_at = ? WHERE collection IS NULL AND path_prefix = ?`,
			context, now, pathPrefix)
		if err != nil {
			return qerr.Database_("set context", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.invalidateContextCache()
			return nil
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO path_contexts(collection, path_prefix, context, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, path_prefix) DO UPDATE SET context = excluded.context, updated_at = excluded.updated_at`,
		collectionArg, pathPrefix, context, now, now,
	)
	if err != nil {
		return qerr.Database_("set context", err)
	}
	s.invalidateContextCache()
	return nil
}

// RemoveContext deletes a context row.
func (s *Store) RemoveContext(collection, pathPrefix string) error {
	if !strings.HasPrefix(pathPrefix, "/") {
		pathPrefix = "/" + pathPrefix
	}
	var res sql.Result
	var err error
	if collection == "" {
		res, err = s.db.Exec(`DELETE FROM path_contexts WHERE collection IS NULL AND path_prefix = ?`, pathPrefix)
	} else {
		res, err = s.db.Exec(`DELETE FROM path_contexts WHERE collection = ? AND path_prefix = ?`, collection, pathPrefix)
	}
	if err != nil {
		return qerr.Database_("remove context", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return qerr.New(qerr.DocumentNotFound, "no context at "+collection+pathPrefix)
	}
	s.invalidateContextCache()
	return nil
}

// ListContexts returns every context row, optionally scoped to one
// collection (empty string returns every row, global and all collections).
func (s *Store) ListContexts(collection string) ([]PathContext, error) {
	query := `SELECT id, collection, path_prefix, context, created_at, updated_at FROM path_contexts`
	var args []any
	if collection != "" {
		query += ` WHERE collection = ? OR collection IS NULL`
		args = append(args, collection)
	}
	query += ` ORDER BY collection IS NOT NULL, collection, length(path_prefix)`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, qerr.Database_("list contexts", err)
	}
	defer rows.Close()
	return scanContexts(rows)
}

// GetCollectionsWithoutContext returns collection names that have no
// context row scoped to them, at any path prefix.
func (s *Store) GetCollectionsWithoutContext() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT name FROM collections c
		 WHERE NOT EXISTS (SELECT 1 FROM path_contexts p WHERE p.collection = c.name)
		 ORDER BY name`)
	if err != nil {
		return nil, qerr.Database_("get collections without context", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, qerr.Database_("scan collection name", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// candidateRows loads and caches the rows relevant to (collection, path):
// every global row plus every row scoped to collection.
func (s *Store) candidateRows(collection, path string) ([]PathContext, error) {
	key := collection + "\x00" + path
	if cached, ok := s.contextCache.Get(key); ok {
		return cached, nil
	}
	rows, err := s.db.Query(
		`SELECT id, collection, path_prefix, context, created_at, updated_at
		 FROM path_contexts WHERE collection = ? OR collection IS NULL`, collection)
	if err != nil {
		return nil, qerr.Database_("load context candidates", err)
	}
	defer rows.Close()
	out, err := scanContexts(rows)
	if err != nil {
		return nil, err
	}
	s.contextCache.Add(key, out)
	return out, nil
}

func matchesPrefix(prefix, normalized string) bool {
	return strings.HasPrefix(normalized, prefix) || normalized == strings.TrimSuffix(prefix, "/")
}

// FindContextForPath returns the single most-specific context: the
// collection-scoped row with the longest matching path_prefix, or a
// global row if no collection-scoped row matches.
func (s *Store) FindContextForPath(collection, path string) (string, bool, error) {
	normalized := normalizePath(path)
	rows, err := s.candidateRows(collection, normalized)
	if err != nil {
		return "", false, err
	}

	var bestScoped, bestGlobal *PathContext
	for i := range rows {
		r := &rows[i]
		if !matchesPrefix(r.PathPrefix, normalized) {
			continue
		}
		if r.Collection != nil {
			if bestScoped == nil || len(r.PathPrefix) > len(bestScoped.PathPrefix) {
				bestScoped = r
			}
		} else {
			if bestGlobal == nil || len(r.PathPrefix) > len(bestGlobal.PathPrefix) {
				bestGlobal = r
			}
		}
	}
	if bestScoped != nil {
		return bestScoped.Context, true, nil
	}
	if bestGlobal != nil {
		return bestGlobal.Context, true, nil
	}
	return "", false, nil
}

// GetAllContextsForPath returns every matching row, ordered global first
// then by increasing prefix length (shallow to deep), for enrichment.
func (s *Store) GetAllContextsForPath(collection, path string) ([]PathContext, error) {
	normalized := normalizePath(path)
	rows, err := s.candidateRows(collection, normalized)
	if err != nil {
		return nil, err
	}

	var matched []PathContext
	for _, r := range rows {
		if matchesPrefix(r.PathPrefix, normalized) {
			matched = append(matched, r)
		}
	}
	sortContextsGlobalFirst(matched)
	return matched, nil
}

func sortContextsGlobalFirst(rows []PathContext) {
	for i := 1; i < len(rows); i++ {
		j := i
		for j > 0 && less(rows[j], rows[j-1]) {
			rows[j-1], rows[j] = rows[j], rows[j-1]
			j--
		}
	}
}

func less(a, b PathContext) bool {
	aGlobal := a.Collection == nil
	bGlobal := b.Collection == nil
	if aGlobal != bGlobal {
		return aGlobal
	}
	return len(a.PathPrefix) < len(b.PathPrefix)
}

func scanContexts(rows *sql.Rows) ([]PathContext, error) {
	var out []PathContext
	for rows.Next() {
		var p PathContext
		var collection sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &collection, &p.PathPrefix, &p.Context, &createdAt, &updatedAt); err != nil {
			return nil, qerr.Database_("scan context row", err)
		}
		if collection.Valid {
			v := collection.String
			p.Collection = &v
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
