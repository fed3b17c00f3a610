package mcpserver

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/qfs-io/qfs/internal/embed"
	"github.com/qfs-io/qfs/internal/pathutil"
	"github.com/qfs-io/qfs/internal/qerr"
	"github.com/qfs-io/qfs/internal/search"
	"github.com/qfs-io/qfs/internal/store"
)

// toolHandler runs a tools/call invocation's arguments against the
// server's store/searcher and returns either a ToolResult or an *RPCError;
// handleToolsCall sends an RPCError back as a JSON-RPC error response.
type toolHandler func(ctx context.Context, s *Server, args map[string]any) (*ToolResult, *RPCError)

type toolEntry struct {
	def     mcp.Tool
	handler toolHandler
}

// buildTools constructs the six qfs tool schemas via mcp-go's property
// builders, mirroring their exact shape from the reference server's
// mcp/tools.rs ToolDefinition list, and pairs each with its handler.
func buildTools() []toolEntry {
	return []toolEntry{
		{
			def: mcp.NewTool("qfs_search",
				mcp.WithDescription("Full-text search across indexed documents using BM25 ranking."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query text")),
				mcp.WithString("collection", mcp.Description("Restrict results to one collection")),
				mcp.WithNumber("limit", mcp.DefaultNumber(20), mcp.Description("Maximum number of results")),
			),
			handler: handleSearch,
		},
		{
			def: mcp.NewTool("qfs_vsearch",
				mcp.WithDescription("Semantic similarity search over indexed documents using vector embeddings."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query text")),
				mcp.WithString("collection", mcp.Description("Restrict results to one collection")),
				mcp.WithNumber("limit", mcp.DefaultNumber(20), mcp.Description("Maximum number of results")),
			),
			handler: handleVSearch,
		},
		{
			def: mcp.NewTool("qfs_query",
				mcp.WithDescription("Search indexed documents, selecting the retrieval mode explicitly."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query text")),
				mcp.WithString("collection", mcp.Description("Restrict results to one collection")),
				mcp.WithNumber("limit", mcp.DefaultNumber(20), mcp.Description("Maximum number of results")),
				mcp.WithString("mode",
					mcp.Description("Retrieval mode: 'bm25', 'vector', or 'hybrid' (default: bm25)")),
			),
			handler: handleQuery,
		},
		{
			def: mcp.NewTool("qfs_get",
				mcp.WithDescription("Retrieve a document's content by collection/path, qfs:// URI, or docid."),
				mcp.WithString("path", mcp.Required(), mcp.Description("collection/relative_path, qfs://collection/path, or #docid, optionally suffixed with :line")),
				mcp.WithNumber("from_line", mcp.Description("1-indexed line to start from")),
				mcp.WithNumber("max_lines", mcp.Description("Maximum number of lines to return")),
				mcp.WithBoolean("line_numbers", mcp.DefaultBool(false), mcp.Description("Prefix each returned line with its line number")),
				mcp.WithBoolean("include_content", mcp.DefaultBool(true), mcp.Description("Include file content in the response")),
			),
			handler: handleGet,
		},
		{
			def: mcp.NewTool("qfs_multi_get",
				mcp.WithDescription("Retrieve multiple documents at once via a glob pattern or comma-separated path list."),
				mcp.WithString("pattern", mcp.Required(), mcp.Description("Glob pattern, comma-separated path list, or single collection/path")),
				mcp.WithNumber("max_bytes", mcp.DefaultNumber(10240), mcp.Description("Skip files larger than this many bytes")),
				mcp.WithNumber("max_lines", mcp.Description("Truncate each file's content to this many lines")),
			),
			handler: handleMultiGet,
		},
		{
			def: mcp.NewTool("qfs_status",
				mcp.WithDescription("Report index statistics: collections, document and embedding counts, database size."),
			),
			handler: handleStatus,
		},
	}
}

func getString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return def
		}
		return int(i)
	default:
		return def
	}
}

func getIntPtr(args map[string]any, key string) *int {
	if _, ok := args[key]; !ok {
		return nil
	}
	n := getInt(args, key, 0)
	return &n
}

func getBool(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

type searchResultJSON struct {
	Docid      string  `json:"docid"`
	Path       string  `json:"path"`
	Collection string  `json:"collection"`
	Title      string  `json:"title,omitempty"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet,omitempty"`
	MimeType   string  `json:"mimeType"`
	Context    string  `json:"context,omitempty"`
}

func toResultJSON(results []search.Result) []searchResultJSON {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			Docid:      r.Docid,
			Path:       r.Path,
			Collection: r.Collection,
			Title:      r.Title,
			Score:      r.Score,
			Snippet:    r.Snippet,
			MimeType:   r.MimeType,
			Context:    r.Context,
		}
	}
	return out
}

func renderResults(results []search.Result) (*ToolResult, *RPCError) {
	data, err := json.MarshalIndent(toResultJSON(results), "", "  ")
	if err != nil {
		return nil, internalError("failed to encode results: " + err.Error())
	}
	return textResult(string(data)), nil
}

func handleSearch(ctx context.Context, s *Server, args map[string]any) (*ToolResult, *RPCError) {
	query, _ := getString(args, "query")
	collection, _ := getString(args, "collection")
	opts := search.Options{
		Mode:       search.ModeBM25,
		Limit:      getInt(args, "limit", 20),
		Collection: collection,
	}
	results, err := s.searcher.Search(query, nil, opts)
	if err != nil {
		return nil, toRPCError(err)
	}
	return renderResults(results)
}

func handleVSearch(ctx context.Context, s *Server, args map[string]any) (*ToolResult, *RPCError) {
	query, _ := getString(args, "query")
	collection, _ := getString(args, "collection")
	opts := search.Options{
		Mode:       search.ModeVector,
		Limit:      getInt(args, "limit", 20),
		Collection: collection,
	}
	vec, err := s.queryVector(ctx, query)
	if err != nil {
		return nil, toRPCError(err)
	}
	results, err := s.searcher.Search(query, vec, opts)
	if err != nil {
		return nil, toRPCError(err)
	}
	return renderResults(results)
}

func handleQuery(ctx context.Context, s *Server, args map[string]any) (*ToolResult, *RPCError) {
	query, _ := getString(args, "query")
	collection, _ := getString(args, "collection")
	modeStr, _ := getString(args, "mode")
	mode, err := search.ParseMode(modeStr)
	if err != nil {
		return nil, invalidParams(err.Error())
	}
	opts := search.Options{
		Mode:       mode,
		Limit:      getInt(args, "limit", 20),
		Collection: collection,
	}

	var vec []float32
	if mode != search.ModeBM25 {
		vec, err = s.queryVector(ctx, query)
		if err != nil {
			return nil, toRPCError(err)
		}
	}

	results, err := s.searcher.Search(query, vec, opts)
	if err != nil {
		return nil, toRPCError(err)
	}
	return renderResults(results)
}

type getResultJSON struct {
	ID             int64  `json:"id"`
	Collection     string `json:"collection"`
	Path           string `json:"path"`
	Title          string `json:"title,omitempty"`
	FileType       string `json:"fileType"`
	Docid          string `json:"hash"`
	CreatedAt      string `json:"createdAt"`
	ModifiedAt     string `json:"modifiedAt"`
	Content        string `json:"content,omitempty"`
	FromLine       int    `json:"fromLine,omitempty"`
	LineCount      int    `json:"lineCount,omitempty"`
	ContentPointer string `json:"contentPointer,omitempty"`
	MimeType       string `json:"mimeType,omitempty"`
	Size           int64  `json:"size,omitempty"`
}

// invalidPathMessage is the exact wording used by the reference MCP
// server when a path is neither "collection/path" nor a docid.
const invalidPathMessage = "Path must be in format 'collection/relative_path' or docid (#abc123)"

func handleGet(ctx context.Context, s *Server, args map[string]any) (*ToolResult, *RPCError) {
	raw, _ := getString(args, "path")
	rawPath, line := pathutil.ParsePathWithLine(raw)
	rawPath = pathutil.ParseQfsURI(rawPath)

	var doc store.Document
	var err error
	if pathutil.IsDocid(rawPath) {
		doc, err = s.store.GetDocumentByDocid(pathutil.NormalizeDocid(rawPath))
	} else {
		collection, relPath, ok := pathutil.SplitCollectionPath(rawPath)
		if !ok {
			return nil, invalidParams(invalidPathMessage)
		}
		doc, err = s.store.GetDocument(collection, relPath)
	}
	if err != nil {
		return nil, toRPCError(err)
	}

	result := getResultJSON{
		ID:         doc.ID,
		Collection: doc.Collection,
		Path:       doc.Path,
		Title:      doc.Title,
		FileType:   doc.FileType,
		Docid:      doc.Docid(),
		CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
		ModifiedAt: doc.ModifiedAt.UTC().Format(time.RFC3339),
	}

	includeContent := getBool(args, "include_content", true)
	fromLine := getIntPtr(args, "from_line")
	if line != nil {
		fromLine = line
	}
	maxLines := getIntPtr(args, "max_lines")
	lineNumbers := getBool(args, "line_numbers", false)

	if !includeContent {
		result.MimeType = doc.MimeType
		result.Size = doc.Size
		result.ContentPointer = doc.Collection + "/" + doc.Path
		return marshalGetResult(result)
	}

	bytes, mimeType, err := s.store.GetContent(doc.Hash)
	if err != nil {
		return nil, toRPCError(err)
	}
	if !utf8Valid(bytes) {
		result.MimeType = mimeType
		result.Size = doc.Size
		result.ContentPointer = doc.Collection + "/" + doc.Path
		return marshalGetResult(result)
	}

	content := string(bytes)
	if fromLine != nil || maxLines != nil {
		content = pathutil.ExtractLines(content, fromLine, maxLines)
		result.FromLine = derefOr(fromLine, 1)
		result.LineCount = strings.Count(content, "\n") + 1
	}
	if lineNumbers {
		start := derefOr(fromLine, 1)
		content = pathutil.AddLineNumbers(content, start)
	}
	result.Content = content
	return marshalGetResult(result)
}

func derefOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func utf8Valid(b []byte) bool {
	return utf8.Valid(b)
}

func marshalGetResult(r getResultJSON) (*ToolResult, *RPCError) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, internalError("failed to encode document: " + err.Error())
	}
	return textResult(string(data)), nil
}

type multiGetFileJSON struct {
	Collection string `json:"collection"`
	Path       string `json:"path"`
	Content    string `json:"content,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skipReason,omitempty"`
}

func handleMultiGet(ctx context.Context, s *Server, args map[string]any) (*ToolResult, *RPCError) {
	pattern, _ := getString(args, "pattern")
	maxBytes := int64(getInt(args, "max_bytes", 10240))
	maxLines := getIntPtr(args, "max_lines")

	results, err := s.store.MultiGet(pattern, maxBytes, maxLines)
	if err != nil {
		return nil, toRPCError(err)
	}

	out := make([]multiGetFileJSON, len(results))
	for i, r := range results {
		out[i] = multiGetFileJSON{
			Collection: r.Collection,
			Path:       r.Path,
			Content:    r.Content,
			Skipped:    r.Skipped,
			SkipReason: r.SkipReason,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, internalError("failed to encode results: " + err.Error())
	}
	return textResult(string(data)), nil
}

type collectionStatusJSON struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Documents  int    `json:"documents"`
	Embeddings int    `json:"embeddings"`
	Patterns   string `json:"patterns,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

type statusJSON struct {
	Version           string                  `json:"version"`
	TotalCollections  int                     `json:"totalCollections"`
	TotalDocuments    int                     `json:"totalDocuments"`
	TotalEmbeddings   int                     `json:"totalEmbeddings"`
	DatabaseSizeBytes int64                   `json:"databaseSizeBytes"`
	Collections       []collectionStatusJSON  `json:"collections"`
}

func handleStatus(ctx context.Context, s *Server, args map[string]any) (*ToolResult, *RPCError) {
	stats, err := s.store.GetStats()
	if err != nil {
		return nil, toRPCError(err)
	}
	collections, err := s.store.ListCollections()
	if err != nil {
		return nil, toRPCError(err)
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].Name < collections[j].Name })

	out := statusJSON{
		Version:           ServerVersion,
		TotalCollections:  stats.Collections,
		TotalDocuments:    stats.TotalDocuments,
		TotalEmbeddings:   stats.TotalEmbeddings,
		DatabaseSizeBytes: stats.DatabaseSizeBytes,
	}
	for _, c := range collections {
		embCount, _ := s.store.CountEmbeddings(c.Name)
		out.Collections = append(out.Collections, collectionStatusJSON{
			Name:       c.Name,
			Path:       c.Root,
			Documents:  stats.PerCollection[c.Name],
			Embeddings: embCount,
			Patterns:   strings.Join(c.Include, ", "),
			UpdatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, internalError("failed to encode status: " + err.Error())
	}
	return textResult(string(data)), nil
}

// queryVector embeds query for a vector or hybrid search, surfacing the
// embeddings-required error as-is so the caller can render it.
func (s *Server) queryVector(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, qerr.EmbeddingsRequired_()
	}
	return embed.EmbedOneForQuery(ctx, s.embedder, query)
}

// toRPCError maps a qerr-tagged error to the JSON-RPC error surfaced for
// a failed tool call; anything not otherwise classified becomes a
// generic server error.
func toRPCError(err error) *RPCError {
	switch qerr.CodeOf(err) {
	case qerr.CollectionNotFound, qerr.DocumentNotFound:
		return invalidParams(err.Error())
	case qerr.InvalidQuery, qerr.EmbeddingError:
		return invalidParams(err.Error())
	case qerr.ConfigError:
		return serverError(err.Error())
	default:
		return serverError(err.Error())
	}
}
