package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfs-io/qfs/internal/search"
	"github.com/qfs-io/qfs/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseMode(t *testing.T) {
	cases := map[string]search.Mode{
		"":       search.ModeBM25,
		"bm25":   search.ModeBM25,
		"BM25":   search.ModeBM25,
		"vector": search.ModeVector,
		"Vector": search.ModeVector,
		"hybrid": search.ModeHybrid,
	}
	for in, want := range cases {
		got, err := search.ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := search.ParseMode("bogus")
	assert.Error(t, err)
}

func TestSearchBM25EmptyQuerySanitizesAway(t *testing.T) {
	s := newTestStore(t)
	searcher := search.New(s)

	results, err := searcher.SearchBM25("!!! ??? ...", search.Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchBM25FindsIndexedDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCollection(store.Collection{Name: "docs", Root: "/tmp/docs"}))
	require.NoError(t, s.InsertContent("hash1",
		[]byte("Project Alpha is an architecture review document about search engines."), "text/markdown"))

	_, err := s.UpsertDocument("docs", "alpha.md", "Alpha", "hash1", ".md", "text/markdown", 42,
		"Project Alpha is an architecture review document about search engines.")
	require.NoError(t, err)

	searcher := search.New(s)
	results, err := searcher.SearchBM25("architecture", search.Options{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "docs/alpha.md", results[0].Path)
	assert.Equal(t, "#hash1", results[0].Docid)
	assert.Greater(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, results[0].Score, 1.0)
}

func TestSearchVectorRequiresEmbeddings(t *testing.T) {
	s := newTestStore(t)
	searcher := search.New(s)

	_, err := searcher.SearchVector([]float32{0.1, 0.2}, search.Options{})
	require.Error(t, err)
}

func TestReciprocalRankFusionOrdersByCombinedRank(t *testing.T) {
	bm25 := []search.Result{{ID: 1}, {ID: 2}, {ID: 3}}
	vector := []search.Result{{ID: 2}, {ID: 3}, {ID: 1}}

	fused := search.ReciprocalRankFusion(bm25, vector)
	require.Len(t, fused, 3)

	// doc 2 ranks #2 in bm25 and #1 in vector: it should outscore doc 1
	// (ranks #1, #3) and doc 3 (ranks #3, #2).
	scoreByID := map[int64]float64{}
	for _, r := range fused {
		scoreByID[r.ID] = r.Score
	}
	assert.Greater(t, scoreByID[2], scoreByID[1])
	assert.Greater(t, scoreByID[2], scoreByID[3])
}

func TestReciprocalRankFusionKeepsFirstSeenMetadata(t *testing.T) {
	bm25 := []search.Result{{ID: 1, Snippet: "from bm25"}}
	vector := []search.Result{{ID: 1, Snippet: "from vector"}}

	fused := search.ReciprocalRankFusion(bm25, vector)
	require.Len(t, fused, 1)
	assert.Equal(t, "from bm25", fused[0].Snippet)
}
