package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/qfs-io/qfs/internal/qerr"
)

// AddCollection registers a new collection. Name must be unique.
func (s *Store) AddCollection(c Collection) error {
	include, err := json.Marshal(c.Include)
	if err != nil {
		return qerr.Serialization_("marshal include globs", err)
	}
	exclude, err := json.Marshal(c.Exclude)
	if err != nil {
		return qerr.Serialization_("marshal exclude globs", err)
	}
	var defaultContext any
	if c.DefaultContext != "" {
		defaultContext = c.DefaultContext
	}
	_, err = s.db.Exec(
		`INSERT INTO collections(name, root, include_globs, exclude_globs, default_context, embeddings_enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Root, string(include), string(exclude), defaultContext, boolToInt(c.EmbeddingsEnabled),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return qerr.Database_("add collection "+c.Name, err)
	}
	return nil
}

// GetCollection fetches one collection by name.
func (s *Store) GetCollection(name string) (Collection, error) {
	row := s.db.QueryRow(
		`SELECT name, root, include_globs, exclude_globs, default_context, embeddings_enabled, created_at
		 FROM collections WHERE name = ?`, name)
	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return Collection{}, qerr.CollectionNotFound_(name)
	}
	if err != nil {
		return Collection{}, qerr.Database_("get collection "+name, err)
	}
	return c, nil
}

// ListCollections returns every registered collection, ordered by name.
func (s *Store) ListCollections() ([]Collection, error) {
	rows, err := s.db.Query(
		`SELECT name, root, include_globs, exclude_globs, default_context, embeddings_enabled, created_at
		 FROM collections ORDER BY name`)
	if err != nil {
		return nil, qerr.Database_("list collections", err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, qerr.Database_("scan collection row", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RemoveCollection deletes a collection and, via ON DELETE CASCADE, its
// documents and path contexts.
func (s *Store) RemoveCollection(name string) error {
	res, err := s.db.Exec(`DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return qerr.Database_("remove collection "+name, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return qerr.CollectionNotFound_(name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (Collection, error) {
	var c Collection
	var include, exclude string
	var defaultContext sql.NullString
	var embeddingsEnabled int
	var createdAt string
	err := row.Scan(&c.Name, &c.Root, &include, &exclude, &defaultContext, &embeddingsEnabled, &createdAt)
	if err != nil {
		return Collection{}, err
	}
	_ = json.Unmarshal([]byte(include), &c.Include)
	_ = json.Unmarshal([]byte(exclude), &c.Exclude)
	c.DefaultContext = defaultContext.String
	c.EmbeddingsEnabled = embeddingsEnabled != 0
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
