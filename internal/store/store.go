// Package store implements the content-addressed schema, full-text and
// vector search primitives, path-context resolution, and multi-get that
// back every other qfs component. Store owns the single SQLite connection
// for the process and is the only component that issues SQL.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/gofrs/flock"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/qfs-io/qfs/internal/qerr"
)

// contextCacheSize bounds the LRU in front of path-context resolution.
const contextCacheSize = 512

// Store owns the database connection, the process-exclusivity lock, and
// the path-context cache.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string

	contextCache *lru.Cache[string, []PathContext]
}

// Open creates the database (and its schema) if absent, or opens an
// existing one and migrates it forward. It acquires a non-blocking
// advisory lock on "<path>.lock" to enforce the single-writer-process
// assumption; a second process opening the same database fails fast.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, qerr.Io_("create database directory", err)
			}
		}
	}

	sqlite_vec.Auto()

	var fl *flock.Flock
	if path != ":memory:" {
		fl = flock.New(path + ".lock")
		locked, err := fl.TryLock()
		if err != nil {
			return nil, qerr.ConfigError_("acquire database lock: "+path+".lock", err)
		}
		if !locked {
			return nil, qerr.ConfigError_("database already open by another process: "+path+".lock", nil)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		if fl != nil {
			fl.Unlock()
		}
		return nil, qerr.Database_("open database", err)
	}
	// A single *sql.DB backed by exactly one connection keeps writes
	// serialized and matches the teacher's single-connection pattern.
	db.SetMaxOpenConns(1)

	cache, _ := lru.New[string, []PathContext](contextCacheSize)

	s := &Store{db: db, lock: fl, path: path, contextCache: cache}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		if fl != nil {
			fl.Unlock()
		}
		return nil, qerr.Database_("ensure schema", err)
	}
	return s, nil
}

// OpenMemory opens a private in-memory database, used by tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close releases the database connection and the process lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		s.lock.Unlock()
	}
	return err
}

// DatabaseSizeBytes stats the database file; returns 0 for in-memory DBs.
func (s *Store) DatabaseSizeBytes() int64 {
	if s.path == ":memory:" {
		return 0
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (s *Store) invalidateContextCache() {
	s.contextCache.Purge()
}
