package store

import (
	"database/sql"
	"time"

	"github.com/qfs-io/qfs/internal/qerr"
)

// ContentExists reports whether a content row for hash already exists.
func (s *Store) ContentExists(hash string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM content WHERE hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, qerr.Database_("check content existence", err)
	}
	return n > 0, nil
}

// InsertContent stores bytes under hash if not already present. It is a
// no-op when the hash already exists, so identical files share one row.
func (s *Store) InsertContent(hash string, bytes []byte, mimeType string) error {
	exists, err := s.ContentExists(hash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.db.Exec(
		`INSERT INTO content(hash, bytes, mime_type, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		hash, bytes, mimeType, len(bytes), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return qerr.Database_("insert content", err)
	}
	return nil
}

// GetContent returns the raw bytes and MIME type stored under hash.
func (s *Store) GetContent(hash string) ([]byte, string, error) {
	var bytes []byte
	var mimeType string
	err := s.db.QueryRow(`SELECT bytes, mime_type FROM content WHERE hash = ?`, hash).Scan(&bytes, &mimeType)
	if err == sql.ErrNoRows {
		return nil, "", qerr.New(qerr.DocumentNotFound, "content not found: "+hash)
	}
	if err != nil {
		return nil, "", qerr.Database_("get content", err)
	}
	return bytes, mimeType, nil
}
