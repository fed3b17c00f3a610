package store

import (
	"strconv"
	"time"

	"github.com/qfs-io/qfs/internal/qerr"
)

// InsertEmbedding stores one chunk vector for hash, replacing any existing
// row at the same (hash, chunk_index).
func (s *Store) InsertEmbedding(hash string, chunkIndex, charOffset int, model string, vector []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO embeddings(hash, chunk_index, char_offset, model, vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(hash, chunk_index) DO UPDATE SET
		   char_offset = excluded.char_offset, model = excluded.model, vector = excluded.vector`,
		hash, chunkIndex, charOffset, model, vector, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return qerr.Database_("insert embedding", err)
	}
	s.syncVectorIndex(hash, chunkIndex, vector)
	return nil
}

// HasEmbeddings reports whether hash has at least one stored chunk vector.
func (s *Store) HasEmbeddings(hash string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM embeddings WHERE hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, qerr.Database_("check embeddings", err)
	}
	return n > 0, nil
}

// DeleteEmbeddings removes every chunk vector for hash.
func (s *Store) DeleteEmbeddings(hash string) error {
	_, err := s.db.Exec(`DELETE FROM embeddings WHERE hash = ?`, hash)
	if err != nil {
		return qerr.Database_("delete embeddings", err)
	}
	return nil
}

// CountEmbeddings returns the number of stored chunk vectors, optionally
// scoped to one collection's content.
func (s *Store) CountEmbeddings(collection string) (int, error) {
	var n int
	var err error
	if collection == "" {
		err = s.db.QueryRow(`SELECT count(*) FROM embeddings`).Scan(&n)
	} else {
		err = s.db.QueryRow(
			`SELECT count(*) FROM embeddings e
			 JOIN documents d ON d.hash = e.hash
			 WHERE d.active = 1 AND d.collection = ?`, collection).Scan(&n)
	}
	if err != nil {
		return 0, qerr.Database_("count embeddings", err)
	}
	return n, nil
}

// PendingEmbeddingHashes returns the content hashes of active documents
// that have no stored embeddings yet, optionally scoped to one collection.
func (s *Store) PendingEmbeddingHashes(collection string) ([]string, error) {
	query := `SELECT DISTINCT d.hash FROM documents d
		 WHERE d.active = 1 AND NOT EXISTS (SELECT 1 FROM embeddings e WHERE e.hash = d.hash)`
	args := []any{}
	if collection != "" {
		query += ` AND d.collection = ?`
		args = append(args, collection)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, qerr.Database_("list pending embedding hashes", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, qerr.Database_("scan pending hash", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// embeddingRowsForSearch loads every (hash, chunk_index, vector) row
// joined to an active document, optionally filtered by collection, for
// the legacy in-memory cosine-similarity search path.
func (s *Store) embeddingRowsForSearch(collection string) ([]EmbeddingRow, map[string]int64, error) {
	query := `SELECT d.id, e.hash, e.chunk_index, e.char_offset, e.model, e.vector
		 FROM embeddings e
		 JOIN documents d ON d.hash = e.hash
		 WHERE d.active = 1`
	args := []any{}
	if collection != "" {
		query += ` AND d.collection = ?`
		args = append(args, collection)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, nil, qerr.Database_("load embeddings for search", err)
	}
	defer rows.Close()

	var out []EmbeddingRow
	docIDs := map[string]int64{}
	for rows.Next() {
		var docID int64
		var row EmbeddingRow
		var vecBytes []byte
		if err := rows.Scan(&docID, &row.Hash, &row.ChunkIndex, &row.CharOffset, &row.Model, &vecBytes); err != nil {
			return nil, nil, qerr.Database_("scan embedding row", err)
		}
		row.Vector = bytesToVector(vecBytes)
		out = append(out, row)
		docIDs[embeddingKey(row.Hash, row.ChunkIndex)] = docID
	}
	return out, docIDs, rows.Err()
}

func embeddingKey(hash string, chunkIndex int) string {
	return hash + "#" + strconv.Itoa(chunkIndex)
}
