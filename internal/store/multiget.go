package store

import (
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"

	"github.com/qfs-io/qfs/internal/pathutil"
	"github.com/qfs-io/qfs/internal/qerr"
)

// MultiGet classifies pattern (glob / comma list / single path), resolves
// it against active documents, and returns one MultiGetResult per match.
// Matches larger than maxBytes are reported skipped with a reason instead
// of their content; maxLines, if set, truncates content to that many
// lines.
func (s *Store) MultiGet(pattern string, maxBytes int64, maxLines *int) ([]MultiGetResult, error) {
	var docs []Document
	var err error

	switch {
	case strings.ContainsAny(pattern, "*?"):
		docs, err = s.matchFilesByGlob(pattern)
	case strings.Contains(pattern, ","):
		docs, err = s.matchFilesByCommaList(pattern)
	default:
		docs, err = s.matchSingleFile(pattern)
	}
	if err != nil {
		return nil, err
	}

	out := make([]MultiGetResult, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.renderMultiGetResult(d, maxBytes, maxLines))
	}
	return out, nil
}

// matchFilesByGlob compiles pattern once and tests it against
// "{collection}/{path}", the bare path, and "qfs://{collection}/{path}".
func (s *Store) matchFilesByGlob(pattern string) ([]Document, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, qerr.InvalidQuery_("invalid glob pattern: " + pattern)
	}
	all, err := s.ListAllDocuments()
	if err != nil {
		return nil, err
	}
	var out []Document
	for _, d := range all {
		full := d.Collection + "/" + d.Path
		if g.Match(full) || g.Match(d.Path) || g.Match("qfs://"+full) {
			out = append(out, d)
		}
	}
	return out, nil
}

// parseCommaList splits on ',' and trims whitespace from each entry.
func parseCommaList(pattern string) []string {
	parts := strings.Split(pattern, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchFilesByCommaList resolves each comma-separated entry, trying an
// exact "collection/path" match first, then a path-suffix match.
func (s *Store) matchFilesByCommaList(pattern string) ([]Document, error) {
	all, err := s.ListAllDocuments()
	if err != nil {
		return nil, err
	}
	var out []Document
	for _, entry := range parseCommaList(pattern) {
		if d, ok := exactMatch(all, entry); ok {
			out = append(out, d)
			continue
		}
		if d, ok := suffixMatch(all, entry); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) matchSingleFile(pattern string) ([]Document, error) {
	collection, path, ok := pathutil.SplitCollectionPath(pattern)
	if !ok {
		return nil, nil
	}
	d, err := s.GetDocument(collection, path)
	if err != nil || !d.Active {
		return nil, nil
	}
	return []Document{d}, nil
}

func exactMatch(docs []Document, entry string) (Document, bool) {
	collection, path, ok := pathutil.SplitCollectionPath(entry)
	if !ok {
		return Document{}, false
	}
	for _, d := range docs {
		if d.Collection == collection && d.Path == path {
			return d, true
		}
	}
	return Document{}, false
}

func suffixMatch(docs []Document, entry string) (Document, bool) {
	for _, d := range docs {
		if strings.HasSuffix(d.Collection+"/"+d.Path, entry) {
			return d, true
		}
	}
	return Document{}, false
}

func (s *Store) renderMultiGetResult(d Document, maxBytes int64, maxLines *int) MultiGetResult {
	r := MultiGetResult{Collection: d.Collection, Path: d.Path}
	if d.Size > maxBytes {
		r.Skipped = true
		r.SkipReason = "file exceeds max_bytes limit"
		return r
	}
	bytes, _, err := s.GetContent(d.Hash)
	if err != nil {
		r.Skipped = true
		r.SkipReason = "content not found"
		return r
	}
	if !utf8.Valid(bytes) {
		r.Content = "[Binary content]"
		return r
	}
	content := string(bytes)
	if maxLines != nil {
		lines := strings.Split(content, "\n")
		if len(lines) > *maxLines {
			content = strings.Join(lines[:*maxLines], "\n")
		}
	}
	r.Content = content
	return r
}
