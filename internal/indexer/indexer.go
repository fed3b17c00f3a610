// Package indexer orchestrates scan -> hash -> dedupe -> parse -> upsert
// for one or every registered collection, incremental by content hash,
// and performs the removal pass for files that vanished since the last
// scan.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/qfs-io/qfs/internal/diag"
	"github.com/qfs-io/qfs/internal/parser"
	"github.com/qfs-io/qfs/internal/qerr"
	"github.com/qfs-io/qfs/internal/scanner"
	"github.com/qfs-io/qfs/internal/store"
)

// FileStatus describes the outcome of processing one scanned file.
type FileStatus int

const (
	StatusIndexed FileStatus = iota
	StatusSkipped
	StatusRemoved
	StatusError
)

// ProgressEvent is reported once per file via an optional callback.
type ProgressEvent struct {
	Path    string
	Status  FileStatus
	Message string
}

// ProgressFunc receives one ProgressEvent per scanned or removed file.
type ProgressFunc func(ProgressEvent)

// Stats summarizes one indexing run.
type Stats struct {
	FilesScanned int
	FilesIndexed int
	FilesSkipped int
	FilesRemoved int
	Errors       int
	Duration     time.Duration
}

// Indexer borrows a Store for the duration of indexing calls.
type Indexer struct {
	store *store.Store
}

// New returns an Indexer over s.
func New(s *store.Store) *Indexer {
	return &Indexer{store: s}
}

// IndexCollection runs the full scan/hash/dedupe/parse/upsert pipeline
// for one collection, followed by a removal pass.
func (idx *Indexer) IndexCollection(name string) (Stats, error) {
	return idx.IndexCollectionWithProgress(name, nil)
}

// IndexCollectionWithProgress is IndexCollection with an optional
// per-file progress callback.
func (idx *Indexer) IndexCollectionWithProgress(name string, progress ProgressFunc) (Stats, error) {
	start := time.Now()
	stats := Stats{}

	col, err := idx.store.GetCollection(name)
	if err != nil {
		return stats, err
	}

	sc, err := scanner.New(col.Root, col.Include, col.Exclude)
	if err != nil {
		return stats, err
	}

	entries, err := sc.Scan()
	if err != nil {
		return stats, err
	}
	stats.FilesScanned = len(entries)

	seenPaths := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seenPaths[entry.RelativePath] = true

		status, msg, err := idx.indexFile(col.Name, entry)
		if err != nil {
			stats.Errors++
			diag.Error("index %s/%s: %v", col.Name, entry.RelativePath, err)
			report(progress, entry.RelativePath, StatusError, err.Error())
			continue
		}
		switch status {
		case StatusIndexed:
			stats.FilesIndexed++
		case StatusSkipped:
			stats.FilesSkipped++
		}
		report(progress, entry.RelativePath, status, msg)
	}

	// Removal pass: only run after a scan that completed without a fatal
	// error, so a partial/aborted scan never mass-deletes live documents.
	removed, err := idx.removeVanished(col.Name, seenPaths, progress)
	if err != nil {
		return stats, err
	}
	stats.FilesRemoved = removed

	stats.Duration = time.Since(start)
	return stats, nil
}

func (idx *Indexer) indexFile(collection string, entry scanner.Entry) (FileStatus, string, error) {
	content, err := os.ReadFile(entry.AbsolutePath)
	if err != nil {
		return StatusError, "", qerr.Io_("read file", err)
	}
	hash := hashContent(content)

	existingDoc, docErr := idx.store.GetDocument(collection, entry.RelativePath)
	if docErr == nil && existingDoc.Active && existingDoc.Hash == hash {
		exists, err := idx.store.ContentExists(hash)
		if err == nil && exists {
			return StatusSkipped, "unchanged", nil
		}
	}

	parsed, err := parser.ParseFile(entry.RelativePath, content)
	if err != nil {
		return StatusError, "", err
	}

	mimeType := parsed.MimeType
	if err := idx.store.InsertContent(hash, content, mimeType); err != nil {
		return StatusError, "", err
	}

	fileType := fileTypeOf(entry.RelativePath)
	_, err = idx.store.UpsertDocument(collection, entry.RelativePath, parsed.Title, hash, fileType, mimeType, entry.Size, parsed.Body)
	if err != nil {
		return StatusError, "", err
	}
	return StatusIndexed, "indexed", nil
}

func (idx *Indexer) removeVanished(collection string, seen map[string]bool, progress ProgressFunc) (int, error) {
	active, err := idx.store.ActivePaths(collection)
	if err != nil {
		return 0, err
	}
	removed := 0
	for path, id := range active {
		if seen[path] {
			continue
		}
		if err := idx.store.DeactivateDocument(id); err != nil {
			return removed, err
		}
		removed++
		report(progress, path, StatusRemoved, "removed")
	}
	return removed, nil
}

// IndexAll iterates every registered collection, summing statistics, with
// its own elapsed-time measurement rather than a sum of per-collection
// durations.
func (idx *Indexer) IndexAll() (Stats, error) {
	return idx.IndexAllWithProgress(nil)
}

// IndexAllWithProgress is IndexAll with a per-file progress callback
// shared across every collection.
func (idx *Indexer) IndexAllWithProgress(progress ProgressFunc) (Stats, error) {
	start := time.Now()
	total := Stats{}

	cols, err := idx.store.ListCollections()
	if err != nil {
		return total, err
	}
	for _, c := range cols {
		s, err := idx.IndexCollectionWithProgress(c.Name, progress)
		if err != nil {
			return total, err
		}
		total.FilesScanned += s.FilesScanned
		total.FilesIndexed += s.FilesIndexed
		total.FilesSkipped += s.FilesSkipped
		total.FilesRemoved += s.FilesRemoved
		total.Errors += s.Errors
	}
	total.Duration = time.Since(start)
	return total, nil
}

func report(progress ProgressFunc, path string, status FileStatus, message string) {
	if progress != nil {
		progress(ProgressEvent{Path: path, Status: status, Message: message})
	}
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func fileTypeOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}
