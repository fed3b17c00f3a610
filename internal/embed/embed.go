// Package embed adapts concrete embedding backends (an HTTP API or an
// in-process llama.cpp model) behind one black-box interface, and
// provides the word-window chunking that feeds them.
package embed

import "context"

// Embedder turns text into fixed-dimension vectors. Callers never depend
// on which concrete backend they hold.
type Embedder interface {
	// Embed returns one vector per input text, in the same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}

// QueryEmbedder is implemented by backends that distinguish a query-side
// embedding prompt (e.g. nomic's "search_query: " prefix) from the
// document-side one Embed uses. Callers performing a single search-time
// embedding should prefer EmbedQuery when available.
type QueryEmbedder interface {
	Embedder
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbedOneForQuery embeds a single query string, using EmbedQuery when e
// implements QueryEmbedder and falling back to a one-element Embed batch
// otherwise.
func EmbedOneForQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	if qe, ok := e.(QueryEmbedder); ok {
		return qe.EmbedQuery(ctx, text)
	}
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return vecs[0], nil
}
