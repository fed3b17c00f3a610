package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCollectionOperations(t *testing.T) {
	s := newTestStore(t)

	err := s.AddCollection(Collection{Name: "notes", Root: "/tmp/notes", Include: []string{"**/*.md"}})
	require.NoError(t, err)

	c, err := s.GetCollection("notes")
	require.NoError(t, err)
	require.Equal(t, "/tmp/notes", c.Root)
	require.Equal(t, []string{"**/*.md"}, c.Include)

	all, err := s.ListCollections()
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, s.RemoveCollection("notes"))
	_, err = s.GetCollection("notes")
	require.Error(t, err)
}

func TestContentOperations(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertContent("hash1", []byte("hello world"), "text/plain"))
	exists, err := s.ContentExists("hash1")
	require.NoError(t, err)
	require.True(t, exists)

	// Inserting under the same hash again is a no-op.
	require.NoError(t, s.InsertContent("hash1", []byte("different bytes"), "text/plain"))
	bytes, mime, err := s.GetContent("hash1")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(bytes))
	require.Equal(t, "text/plain", mime)
}

func TestDocumentUpsertAndFTSSync(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "notes", Root: "/tmp/notes"}))
	require.NoError(t, s.InsertContent("h1", []byte("the quick brown fox"), "text/plain"))

	id, err := s.UpsertDocument("notes", "a.txt", "A", "h1", ".txt", "text/plain", 19, "the quick brown fox")
	require.NoError(t, err)
	require.NotZero(t, id)

	doc, err := s.GetDocument("notes", "a.txt")
	require.NoError(t, err)
	require.Equal(t, id, doc.ID)
	require.True(t, doc.Active)

	results, err := s.SearchBM25(`"quick"*`, "", 10, true, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, s.DeactivateDocument(id))
	results, err = s.SearchBM25(`"quick"*`, "", 10, true, nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchBM25RankingSpecificity(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "docs", Root: "/tmp/docs"}))

	seed := func(path, title, body string) {
		hash := "hash-" + path
		require.NoError(t, s.InsertContent(hash, []byte(body), "text/markdown"))
		_, err := s.UpsertDocument("docs", path, title, hash, ".md", "text/markdown", int64(len(body)), body)
		require.NoError(t, err)
	}
	seed("rust_guide.md", "Rust Guide", "Rust programming language systems programming rust rust rust")
	seed("python_basics.md", "Python Basics", "Python basics for beginners python python")
	seed("web_development.md", "Web Development", "Web development covers html css and a bit of python")

	results, err := s.SearchBM25(`"rust"* AND "programming"*`, "", 10, true, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Contains(t, results[0].Path, "rust_guide")

	pyResults, err := s.SearchBM25(`"python"*`, "", 10, true, nil)
	require.NoError(t, err)
	require.Len(t, pyResults, 2)
	require.Contains(t, pyResults[0].Path, "python_basics")

	none, err := s.SearchBM25(`"quantum"* AND "entanglement"* AND "blockchain"*`, "", 10, true, nil)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetDocumentByDocid(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "c", Root: "/tmp/c"}))
	require.NoError(t, s.InsertContent("abcdef1234", []byte("x"), "text/plain"))
	_, err := s.UpsertDocument("c", "f.txt", "F", "abcdef1234", ".txt", "text/plain", 1, "x")
	require.NoError(t, err)

	doc, err := s.GetDocumentByDocid("abcdef")
	require.NoError(t, err)
	require.Equal(t, "f.txt", doc.Path)
	require.Equal(t, "#abcdef", doc.Docid())
}

func TestMultiGetPatterns(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "notes", Root: "/tmp/notes"}))
	require.NoError(t, s.InsertContent("h1", []byte("alpha"), "text/plain"))
	require.NoError(t, s.InsertContent("h2", []byte("beta"), "text/plain"))
	_, err := s.UpsertDocument("notes", "a.md", "A", "h1", ".md", "text/plain", 5, "alpha")
	require.NoError(t, err)
	_, err = s.UpsertDocument("notes", "sub/b.md", "B", "h2", ".md", "text/plain", 4, "beta")
	require.NoError(t, err)

	t.Run("glob", func(t *testing.T) {
		res, err := s.MultiGet("notes/*.md", 1024, nil)
		require.NoError(t, err)
		require.Len(t, res, 1)
		require.Equal(t, "alpha", res[0].Content)
	})

	t.Run("comma list", func(t *testing.T) {
		res, err := s.MultiGet("notes/a.md, notes/sub/b.md", 1024, nil)
		require.NoError(t, err)
		require.Len(t, res, 2)
	})

	t.Run("single", func(t *testing.T) {
		res, err := s.MultiGet("notes/a.md", 1024, nil)
		require.NoError(t, err)
		require.Len(t, res, 1)
		require.False(t, res[0].Skipped)
	})

	t.Run("no matches", func(t *testing.T) {
		res, err := s.MultiGet("notes/*.nomatch", 1024, nil)
		require.NoError(t, err)
		require.Empty(t, res)
	})

	t.Run("oversized skip", func(t *testing.T) {
		res, err := s.MultiGet("notes/a.md", 1, nil)
		require.NoError(t, err)
		require.Len(t, res, 1)
		require.True(t, res[0].Skipped)
		require.NotEmpty(t, res[0].SkipReason)
	})
}

func TestContextHierarchy(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "docs", Root: "/docs"}))
	require.NoError(t, s.SetContext("", "/", "project notes"))
	require.NoError(t, s.SetContext("docs", "/", "docs collection"))
	require.NoError(t, s.SetContext("docs", "/guides", "guides section"))

	ctx, ok, err := s.FindContextForPath("docs", "/guides/x.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "guides section", ctx)

	all, err := s.GetAllContextsForPath("docs", "/guides/x.md")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "project notes", all[0].Context)
	require.Equal(t, "guides section", all[len(all)-1].Context)
}

func TestFallbackToGlobalContext(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetContext("", "/", "global only"))
	ctx, ok, err := s.FindContextForPath("other", "/anything")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "global only", ctx)
}

func TestRemoveContext(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "docs", Root: "/docs"}))
	require.NoError(t, s.SetContext("docs", "/x", "ctx"))
	require.NoError(t, s.RemoveContext("docs", "/x"))
	_, ok, err := s.FindContextForPath("docs", "/x")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetCollectionsWithoutContext(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "a", Root: "/a"}))
	require.NoError(t, s.AddCollection(Collection{Name: "b", Root: "/b"}))
	require.NoError(t, s.SetContext("a", "/", "has context"))

	names, err := s.GetCollectionsWithoutContext()
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, names)
}

func TestListFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "notes", Root: "/tmp"}))
	require.NoError(t, s.InsertContent("h1", []byte("x"), "text/plain"))
	_, err := s.UpsertDocument("notes", "a/b.md", "", "h1", ".md", "text/plain", 1, "x")
	require.NoError(t, err)
	_, err = s.UpsertDocument("notes", "a/c.md", "", "h1", ".md", "text/plain", 1, "x")
	require.NoError(t, err)

	docs, err := s.ListDocuments("notes", "a/")
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestVectorSearchLegacy(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "c", Root: "/c"}))
	require.NoError(t, s.InsertContent("h1", []byte("x"), "text/plain"))
	_, err := s.UpsertDocument("c", "f.md", "F", "h1", ".md", "text/plain", 1, "x")
	require.NoError(t, err)

	vec := []float32{1, 0, 0}
	require.NoError(t, s.InsertEmbedding("h1", 0, 0, "test-model", vectorToBytes(vec)))

	results, err := s.SearchVectorLegacy(vec, "", 10, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestRemovalPassHelper(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(Collection{Name: "c", Root: "/c"}))
	require.NoError(t, s.InsertContent("h1", []byte("x"), "text/plain"))
	id, err := s.UpsertDocument("c", "keep.md", "", "h1", ".md", "text/plain", 1, "x")
	require.NoError(t, err)
	_, err = s.UpsertDocument("c", "gone.md", "", "h1", ".md", "text/plain", 1, "x")
	require.NoError(t, err)

	active, err := s.ActivePaths("c")
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, id, active["keep.md"])
}
