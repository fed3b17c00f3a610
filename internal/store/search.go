package store

import (
	"sort"
	"strings"

	"github.com/qfs-io/qfs/internal/qerr"
)

// binaryMimePrefixes are excluded from results unless includeBinary is set.
var binaryMimePrefixes = []string{"application/octet", "image/", "audio/", "video/"}

// SearchBM25 runs a pre-sanitized FTS query (sanitization is the caller's
// responsibility) and returns matching rows ordered by ascending raw BM25
// (best match first). Results are generated with literal <mark>/</mark>
// delimiters and an ellipsis, targeting the body column within a ±64-token
// window, via FTS5's own snippet() function.
func (s *Store) SearchBM25(ftsQuery string, collection string, limit int, includeBinary bool, dateRange *DateRange) ([]BM25Result, error) {
	query := `SELECT d.id, d.collection, d.path, d.title, d.hash, d.file_type, d.mime_type, d.size,
			bm25(documents_fts) AS raw_bm25,
			snippet(documents_fts, 2, '<mark>', '</mark>', '...', 64),
			d.modified_at
		 FROM documents_fts
		 JOIN documents d ON d.id = documents_fts.rowid
		 WHERE documents_fts MATCH ? AND d.active = 1`
	args := []any{ftsQuery}

	if collection != "" {
		query += ` AND d.collection = ?`
		args = append(args, collection)
	}
	if dateRange != nil {
		if !dateRange.From.IsZero() {
			query += ` AND d.modified_at >= ?`
			args = append(args, dateRange.From.UTC().Format(rfc3339))
		}
		if !dateRange.To.IsZero() {
			query += ` AND d.modified_at <= ?`
			args = append(args, dateRange.To.UTC().Format(rfc3339))
		}
	}
	query += ` ORDER BY bm25(documents_fts) LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, qerr.Database_("bm25 search", err)
	}
	defer rows.Close()

	var out []BM25Result
	for rows.Next() {
		var r BM25Result
		var modifiedAt string
		if err := rows.Scan(&r.DocID, &r.Collection, &r.Path, &r.Title, &r.Hash, &r.FileType, &r.MimeType, &r.Size,
			&r.RawBM25, &r.Snippet, &modifiedAt); err != nil {
			return nil, qerr.Database_("scan bm25 row", err)
		}
		r.ModifiedAt = parseTime(modifiedAt)
		if !includeBinary && isBinaryMime(r.MimeType) {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const rfc3339 = "2006-01-02T15:04:05.999999999Z07:00"

func isBinaryMime(mime string) bool {
	for _, p := range binaryMimePrefixes {
		if strings.HasPrefix(mime, p) {
			return true
		}
	}
	return false
}

// SearchVectorNative attempts a KNN query against the native sqlite-vec
// index. ok is false if the index doesn't exist or the query fails for
// any reason, signalling the caller to fall back to the legacy path.
func (s *Store) SearchVectorNative(queryVec []float32, collection string, limit int, includeBinary bool) (results []VectorResult, ok bool) {
	if !s.HasVectorIndex() {
		return nil, false
	}
	queryBytes := vectorToBytes(queryVec)

	sqlQuery := `SELECT v.embedding_key, v.distance
		 FROM ` + vecTableName + ` v
		 WHERE v.embedding MATCH ? AND k = ?
		 ORDER BY v.distance`
	rows, err := s.db.Query(sqlQuery, queryBytes, limit*4)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	type hit struct {
		hash       string
		chunkIndex int
		distance   float64
	}
	var hits []hit
	for rows.Next() {
		var key string
		var distance float64
		if err := rows.Scan(&key, &distance); err != nil {
			return nil, false
		}
		hash, chunkIndex, splitOK := splitEmbeddingKey(key)
		if !splitOK {
			continue
		}
		hits = append(hits, hit{hash: hash, chunkIndex: chunkIndex, distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, false
	}

	out := make([]VectorResult, 0, len(hits))
	for _, h := range hits {
		doc, err := s.documentForHash(h.hash, collection)
		if err != nil {
			continue
		}
		if !includeBinary && isBinaryMime(doc.MimeType) {
			continue
		}
		out = append(out, VectorResult{
			DocID: doc.ID, Collection: doc.Collection, Path: doc.Path, Title: doc.Title,
			Hash: doc.Hash, FileType: doc.FileType, MimeType: doc.MimeType, Size: doc.Size,
			Similarity: 1 - h.distance, ChunkIndex: h.chunkIndex, ModifiedAt: doc.ModifiedAt,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, true
}

// SearchVectorLegacy loads every embedding into memory and ranks by
// in-process cosine similarity. This is the correctness-preserving
// fallback used when no native index exists.
func (s *Store) SearchVectorLegacy(queryVec []float32, collection string, limit int, includeBinary bool) ([]VectorResult, error) {
	rows, docIDs, err := s.embeddingRowsForSearch(collection)
	if err != nil {
		return nil, err
	}

	type scored struct {
		row        EmbeddingRow
		similarity float64
	}
	scoredRows := make([]scored, 0, len(rows))
	for _, r := range rows {
		scoredRows = append(scoredRows, scored{row: r, similarity: cosineSimilarity(queryVec, r.Vector)})
	}
	sort.Slice(scoredRows, func(i, j int) bool { return scoredRows[i].similarity > scoredRows[j].similarity })

	out := make([]VectorResult, 0, limit)
	for _, sr := range scoredRows {
		docID, ok := docIDs[embeddingKey(sr.row.Hash, sr.row.ChunkIndex)]
		if !ok {
			continue
		}
		doc, err := s.GetDocumentByID(docID)
		if err != nil {
			continue
		}
		if !doc.Active {
			continue
		}
		if !includeBinary && isBinaryMime(doc.MimeType) {
			continue
		}
		out = append(out, VectorResult{
			DocID: doc.ID, Collection: doc.Collection, Path: doc.Path, Title: doc.Title,
			Hash: doc.Hash, FileType: doc.FileType, MimeType: doc.MimeType, Size: doc.Size,
			Similarity: sr.similarity, ChunkIndex: sr.row.ChunkIndex, ModifiedAt: doc.ModifiedAt,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) documentForHash(hash, collection string) (Document, error) {
	query := `SELECT id, collection, path, title, hash, file_type, mime_type, size, created_at, modified_at, indexed_at, active
		 FROM documents WHERE hash = ? AND active = 1`
	args := []any{hash}
	if collection != "" {
		query += ` AND collection = ?`
		args = append(args, collection)
	}
	query += ` LIMIT 1`
	row := s.db.QueryRow(query, args...)
	return scanDocument(row)
}

func splitEmbeddingKey(key string) (hash string, chunkIndex int, ok bool) {
	idx := strings.LastIndex(key, "#")
	if idx < 0 {
		return "", 0, false
	}
	n := 0
	for _, r := range key[idx+1:] {
		if r < '0' || r > '9' {
			return "", 0, false
		}
		n = n*10 + int(r-'0')
	}
	return key[:idx], n, true
}

// GetStats summarizes the database for the status command/tool.
func (s *Store) GetStats() (Stats, error) {
	collections, err := s.ListCollections()
	if err != nil {
		return Stats{}, err
	}
	totalDocs, err := s.CountDocuments("")
	if err != nil {
		return Stats{}, err
	}
	totalEmbeddings, err := s.CountEmbeddings("")
	if err != nil {
		return Stats{}, err
	}
	perCollection := make(map[string]int, len(collections))
	for _, c := range collections {
		n, err := s.CountDocuments(c.Name)
		if err != nil {
			return Stats{}, err
		}
		perCollection[c.Name] = n
	}
	return Stats{
		Collections:       len(collections),
		TotalDocuments:    totalDocs,
		TotalEmbeddings:   totalEmbeddings,
		DatabaseSizeBytes: s.DatabaseSizeBytes(),
		PerCollection:     perCollection,
	}, nil
}
