// Package search implements the three retrieval modes — BM25, vector,
// and hybrid RRF — against a Store, plus the score calibration and
// context enrichment shared by all three. Query embeddings are never
// computed here: the MCP tool layer or CLI caller owns the Embedder and
// passes a precomputed vector in for Vector/Hybrid mode, matching the
// reference implementation's own split between a text-only entry point
// that errors and an "_with_embedding" variant that does the work.
package search

import (
	"path"
	"strings"

	"github.com/qfs-io/qfs/internal/qerr"
	"github.com/qfs-io/qfs/internal/store"
)

// Mode selects which retrieval algorithm Search runs.
type Mode string

const (
	ModeBM25   Mode = "bm25"
	ModeVector Mode = "vector"
	ModeHybrid Mode = "hybrid"
)

// ParseMode validates a user-supplied mode string, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "bm25":
		return ModeBM25, nil
	case "vector":
		return ModeVector, nil
	case "hybrid":
		return ModeHybrid, nil
	default:
		return "", qerr.InvalidQuery_("unknown search mode: " + s)
	}
}

// Options controls one search call, common to all three modes.
type Options struct {
	Mode          Mode
	Limit         int
	MinScore      float64
	Collection    string
	IncludeBinary bool
	DateRange     *store.DateRange
}

// Result is one document returned by any search mode, normalized to a
// single shape regardless of which algorithm produced it.
type Result struct {
	ID             int64
	Path           string // "{collection}/{path}"
	Name           string // base filename
	MimeType       string
	FileSize       int64
	IsBinary       bool
	Score          float64
	Content        string
	ContentPointer string
	Snippet        string
	Collection     string
	Title          string
	Docid          string
	ChunkIndex     *int
	Context        string
}

// Searcher runs queries against a borrowed Store.
type Searcher struct {
	store *store.Store
}

// New returns a Searcher over s.
func New(s *store.Store) *Searcher {
	return &Searcher{store: s}
}

// Search dispatches to the algorithm named by opts.Mode. queryVec is
// required (non-nil) for Vector and Hybrid mode and ignored for BM25.
func (s *Searcher) Search(query string, queryVec []float32, opts Options) ([]Result, error) {
	switch opts.Mode {
	case ModeVector:
		return s.SearchVector(queryVec, opts)
	case ModeHybrid:
		return s.SearchHybrid(query, queryVec, opts)
	case ModeBM25, "":
		return s.SearchBM25(query, opts)
	default:
		return nil, qerr.InvalidQuery_("unknown search mode: " + string(opts.Mode))
	}
}

// SearchBM25 sanitizes query into an FTS5 match expression, runs it, and
// normalizes raw (negative, smaller-is-better) BM25 scores into (0,1]
// where higher is better. A query that sanitizes to nothing returns an
// empty result set without touching storage.
func (s *Searcher) SearchBM25(query string, opts Options) ([]Result, error) {
	ftsQuery := sanitizeFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.store.SearchBM25(ftsQuery, opts.Collection, limit, opts.IncludeBinary, opts.DateRange)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		score := normalizeBM25Score(r.RawBM25)
		if score < opts.MinScore {
			continue
		}
		res := Result{
			ID:         r.DocID,
			Path:       r.Collection + "/" + r.Path,
			Name:       path.Base(r.Path),
			MimeType:   r.MimeType,
			FileSize:   r.Size,
			IsBinary:   isBinaryMime(r.MimeType),
			Score:      score,
			Snippet:    r.Snippet,
			Collection: r.Collection,
			Title:      r.Title,
			Docid:      docidOf(r.Hash),
		}
		if res.IsBinary {
			res.ContentPointer = res.Path
		}
		s.enrichContext(&res)
		out = append(out, res)
	}
	return out, nil
}

// SearchVector requires at least one stored embedding (in scope) and a
// precomputed query vector. It attempts the native ANN index first,
// falling back to the in-memory legacy path when unavailable.
func (s *Searcher) SearchVector(queryVec []float32, opts Options) ([]Result, error) {
	if len(queryVec) == 0 {
		return nil, qerr.InvalidQuery_("vector search requires a query embedding")
	}

	count, err := s.store.CountEmbeddings(opts.Collection)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, qerr.EmbeddingsRequired_()
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, ok := s.store.SearchVectorNative(queryVec, opts.Collection, limit, opts.IncludeBinary)
	if !ok {
		rows, err = s.store.SearchVectorLegacy(queryVec, opts.Collection, limit, opts.IncludeBinary)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		if r.Similarity < opts.MinScore {
			continue
		}
		if dr := opts.DateRange; dr != nil &&
			((!dr.From.IsZero() && r.ModifiedAt.Before(dr.From)) || (!dr.To.IsZero() && r.ModifiedAt.After(dr.To))) {
			continue
		}
		chunkIdx := r.ChunkIndex
		res := Result{
			ID:         r.DocID,
			Path:       r.Collection + "/" + r.Path,
			Name:       path.Base(r.Path),
			MimeType:   r.MimeType,
			FileSize:   r.Size,
			IsBinary:   isBinaryMime(r.MimeType),
			Score:      r.Similarity,
			Collection: r.Collection,
			Title:      r.Title,
			Docid:      docidOf(r.Hash),
			ChunkIndex: &chunkIdx,
		}
		s.enrichContext(&res)
		out = append(out, res)
	}
	return out, nil
}

// SearchHybrid runs BM25 and vector search, each at double the requested
// limit, and fuses the two rankings with Reciprocal Rank Fusion (k=60).
func (s *Searcher) SearchHybrid(query string, queryVec []float32, opts Options) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	wideOpts := opts
	wideOpts.Limit = limit * 2
	wideOpts.MinScore = 0

	bm25Results, err := s.SearchBM25(query, wideOpts)
	if err != nil {
		return nil, err
	}
	vectorResults, err := s.SearchVector(queryVec, wideOpts)
	if err != nil {
		return nil, err
	}

	fused := ReciprocalRankFusion(bm25Results, vectorResults)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// rrfK is the standard Reciprocal Rank Fusion smoothing constant.
const rrfK = 60.0

// ReciprocalRankFusion combines two independently-ranked result lists,
// keyed by document ID, into one ranking: RRF_score(doc) = sum over
// rankings of 1/(k+rank), rank 1-indexed. The first-seen Result object
// for a given ID is kept (so its snippet/metadata survive), with its
// Score overwritten by the fused value.
func ReciprocalRankFusion(rankings ...[]Result) []Result {
	type entry struct {
		result Result
		score  float64
	}
	scores := make(map[int64]*entry)
	var order []int64

	for _, ranking := range rankings {
		for rank, r := range ranking {
			rrfScore := 1.0 / (rrfK + float64(rank) + 1.0)
			e, ok := scores[r.ID]
			if !ok {
				e = &entry{result: r}
				scores[r.ID] = e
				order = append(order, r.ID)
			}
			e.score += rrfScore
		}
	}

	out := make([]Result, 0, len(order))
	for _, id := range order {
		e := scores[id]
		e.result.Score = e.score
		out = append(out, e.result)
	}
	sortResultsByScoreDesc(out)
	return out
}

func sortResultsByScoreDesc(results []Result) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j].Score > results[j-1].Score {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}

// enrichContext attaches the joined path-context annotations for a
// result's location, leaving Context empty when none match.
func (s *Searcher) enrichContext(res *Result) {
	contexts, err := s.store.GetAllContextsForPath(res.Collection, strings.TrimPrefix(res.Path, res.Collection+"/"))
	if err != nil || len(contexts) == 0 {
		return
	}
	texts := make([]string, len(contexts))
	for i, c := range contexts {
		texts[i] = c.Context
	}
	res.Context = strings.Join(texts, "\n\n")
}

// sanitizeFTSQuery trims, splits on whitespace, strips every character
// outside [A-Za-z0-9_-] from each token, and wraps survivors as a quoted
// prefix match, ANDed together. An input with no survivors becomes "".
func sanitizeFTSQuery(query string) string {
	terms := strings.Fields(strings.TrimSpace(query))
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		var b strings.Builder
		for _, r := range term {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			cleaned = append(cleaned, `"`+b.String()+`"*`)
		}
	}
	return strings.Join(cleaned, " AND ")
}

// normalizeBM25Score maps FTS5's raw (negative, smaller-is-better) BM25
// score into (0,1], higher-is-better.
func normalizeBM25Score(raw float64) float64 {
	if raw < 0 {
		raw = -raw
	}
	return 1 / (1 + raw)
}

func isBinaryMime(mime string) bool {
	for _, p := range []string{"application/octet", "image/", "audio/", "video/"} {
		if strings.HasPrefix(mime, p) {
			return true
		}
	}
	return false
}

func docidOf(hash string) string {
	if len(hash) < 6 {
		return "#" + hash
	}
	return "#" + hash[:6]
}
