package store

import (
	"fmt"

	"github.com/qfs-io/qfs/internal/diag"
)

const vecTableName = "embeddings_vec"

// HasVectorIndex reports whether the native sqlite-vec vec0 table exists.
func (s *Store) HasVectorIndex() bool {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?`, vecTableName).Scan(&n)
	return err == nil && n > 0
}

// EnsureVectorIndex lazily creates the native ANN index once at least one
// embedding exists. It is not fatal to fail: the caller falls back to the
// legacy in-memory search path, and the failure is merely logged.
func (s *Store) EnsureVectorIndex(dim int) (created bool) {
	if s.HasVectorIndex() {
		return false
	}
	n, err := s.CountEmbeddings("")
	if err != nil || n == 0 {
		return false
	}
	ddl := fmt.Sprintf(
		`CREATE VIRTUAL TABLE %s USING vec0(embedding_key TEXT PRIMARY KEY, embedding FLOAT[%d] distance_metric=cosine)`,
		vecTableName, dim,
	)
	if _, err := s.db.Exec(ddl); err != nil {
		diag.Warn("vector index creation failed, falling back to legacy search: %v", err)
		return false
	}

	rows, err := s.db.Query(`SELECT hash, chunk_index, vector FROM embeddings`)
	if err != nil {
		diag.Warn("vector index backfill query failed: %v", err)
		return true
	}
	defer rows.Close()
	for rows.Next() {
		var hash string
		var chunkIndex int
		var vec []byte
		if err := rows.Scan(&hash, &chunkIndex, &vec); err != nil {
			continue
		}
		key := embeddingKey(hash, chunkIndex)
		if _, err := s.db.Exec(
			fmt.Sprintf(`INSERT INTO %s(embedding_key, embedding) VALUES (?, ?)`, vecTableName),
			key, vec,
		); err != nil {
			diag.Warn("vector index backfill insert failed for %s: %v", key, err)
		}
	}
	return true
}

// syncVectorIndex inserts or replaces one row in the native index, best
// effort — failures here never block the write path that owns embeddings.
func (s *Store) syncVectorIndex(hash string, chunkIndex int, vec []byte) {
	if !s.HasVectorIndex() {
		return
	}
	key := embeddingKey(hash, chunkIndex)
	_, _ = s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE embedding_key = ?`, vecTableName), key)
	_, _ = s.db.Exec(fmt.Sprintf(`INSERT INTO %s(embedding_key, embedding) VALUES (?, ?)`, vecTableName), key, vec)
}
