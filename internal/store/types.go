package store

import "time"

// Collection is a registered, named directory root.
type Collection struct {
	Name              string
	Root              string
	Include           []string
	Exclude           []string
	DefaultContext    string
	EmbeddingsEnabled bool
	CreatedAt         time.Time
}

// Document is one indexed file within a Collection.
type Document struct {
	ID         int64
	Collection string
	Path       string
	Title      string
	Hash       string
	FileType   string
	MimeType   string
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
	IndexedAt  time.Time
	Active     bool
}

// Docid returns the short user-facing identifier for this document's
// content: the first 6 hex characters of its hash, "#"-prefixed.
func (d Document) Docid() string {
	if len(d.Hash) < 6 {
		return "#" + d.Hash
	}
	return "#" + d.Hash[:6]
}

// BM25Result is one row returned by a BM25 full-text query.
type BM25Result struct {
	DocID      int64
	Collection string
	Path       string
	Title      string
	Hash       string
	FileType   string
	MimeType   string
	Size       int64
	RawBM25    float64
	Snippet    string
	ModifiedAt time.Time
}

// VectorResult is one row returned by a vector similarity query.
type VectorResult struct {
	DocID      int64
	Collection string
	Path       string
	Title      string
	Hash       string
	FileType   string
	MimeType   string
	Size       int64
	Similarity float64
	ChunkIndex int
	ModifiedAt time.Time
}

// EmbeddingRow is one stored chunk embedding.
type EmbeddingRow struct {
	Hash       string
	ChunkIndex int
	CharOffset int
	Model      string
	Vector     []float32
}

// PathContext is a human-written annotation scoped to a path prefix,
// optionally restricted to one collection (nil Collection = global).
type PathContext struct {
	ID         int64
	Collection *string
	PathPrefix string
	Context    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Stats summarizes the current database contents for the status command.
type Stats struct {
	Collections       int
	TotalDocuments    int
	TotalEmbeddings   int
	DatabaseSizeBytes int64
	PerCollection     map[string]int
}

// MultiGetResult is one file's outcome from a multi-get request.
type MultiGetResult struct {
	Collection string
	Path       string
	Content    string
	Skipped    bool
	SkipReason string
}

// DateRange optionally bounds a query by modification time. Either end may
// be the zero Time to mean unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}
