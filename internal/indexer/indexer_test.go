package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qfs-io/qfs/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIndexCollectionBasic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# Title A\n\nContent of a.")
	writeFile(t, dir, "b.md", "# Title B\n\nContent of b.")

	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "notes", Root: dir}))

	idx := New(s)
	stats, err := idx.IndexCollection("notes")
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesScanned)
	require.Equal(t, 2, stats.FilesIndexed)
	require.Equal(t, 0, stats.FilesSkipped)
	require.Equal(t, 0, stats.FilesRemoved)
	require.Equal(t, 0, stats.Errors)

	doc, err := s.GetDocument("notes", "a.md")
	require.NoError(t, err)
	require.Equal(t, "Title A", doc.Title)
}

func TestIndexCollectionSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n\nbody")

	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "notes", Root: dir}))
	idx := New(s)

	stats1, err := idx.IndexCollection("notes")
	require.NoError(t, err)
	require.Equal(t, 1, stats1.FilesIndexed)

	stats2, err := idx.IndexCollection("notes")
	require.NoError(t, err)
	require.Equal(t, 0, stats2.FilesIndexed)
	require.Equal(t, 1, stats2.FilesSkipped)
}

func TestIndexCollectionReindexesChangedContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n\nversion one")

	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "notes", Root: dir}))
	idx := New(s)

	_, err := idx.IndexCollection("notes")
	require.NoError(t, err)

	writeFile(t, dir, "a.md", "# A\n\nversion two, much longer content here")
	stats, err := idx.IndexCollection("notes")
	require.NoError(t, err)
	require.Equal(t, 1, stats.FilesIndexed)
	require.Equal(t, 0, stats.FilesSkipped)

	doc, err := s.GetDocument("notes", "a.md")
	require.NoError(t, err)
	require.Contains(t, doc.Path, "a.md")
}

func TestIndexCollectionRemovalPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n\nkeep me")
	writeFile(t, dir, "b.md", "# B\n\nremove me")

	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "notes", Root: dir}))
	idx := New(s)

	_, err := idx.IndexCollection("notes")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.md")))

	stats, err := idx.IndexCollection("notes")
	require.NoError(t, err)
	require.Equal(t, 1, stats.FilesScanned)
	require.Equal(t, 1, stats.FilesRemoved)

	_, err = s.GetDocument("notes", "a.md")
	require.NoError(t, err)

	doc, err := s.GetDocument("notes", "b.md")
	require.NoError(t, err)
	require.False(t, doc.Active)
}

func TestIndexCollectionProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n\nbody")

	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "notes", Root: dir}))
	idx := New(s)

	var events []ProgressEvent
	_, err := idx.IndexCollectionWithProgress("notes", func(e ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, StatusIndexed, events[0].Status)
}

func TestIndexAllAcrossCollections(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeFile(t, dirA, "a.md", "# A\n\nbody a")
	writeFile(t, dirB, "b.md", "# B\n\nbody b")

	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "first", Root: dirA}))
	require.NoError(t, s.AddCollection(store.Collection{Name: "second", Root: dirB}))
	idx := New(s)

	stats, err := idx.IndexAll()
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesScanned)
	require.Equal(t, 2, stats.FilesIndexed)
}

func TestIndexCollectionDeduplicatesByHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "same content")
	writeFile(t, dir, "b.md", "same content")

	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "notes", Root: dir}))
	idx := New(s)

	stats, err := idx.IndexCollection("notes")
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesIndexed)

	docA, err := s.GetDocument("notes", "a.md")
	require.NoError(t, err)
	docB, err := s.GetDocument("notes", "b.md")
	require.NoError(t, err)
	require.Equal(t, docA.Hash, docB.Hash)
}
