package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBinary(t *testing.T) {
	require.False(t, IsBinary([]byte("Hello, world!\nThis is plain text.")))
	require.True(t, IsBinary([]byte("Hello\x00World")))
	require.False(t, IsBinary([]byte{}))
}

func TestParseMarkdownWithFrontMatter(t *testing.T) {
	text := "---\ntitle: My Note\ntags: work\n---\n# Heading\n\nBody text.\n"
	doc, err := ParseFile("notes/a.md", []byte(text))
	require.NoError(t, err)
	require.Equal(t, "My Note", doc.Title)
	require.Equal(t, "work", doc.Metadata["tags"])
	require.Contains(t, doc.Body, "Body text.")
	require.Equal(t, "text/markdown", doc.MimeType)
}

func TestParseMarkdownH1Fallback(t *testing.T) {
	doc, err := ParseFile("notes/b.md", []byte("# A Title\n\nSome body.\n"))
	require.NoError(t, err)
	require.Equal(t, "A Title", doc.Title)
}

func TestParseMarkdownFileStemFallback(t *testing.T) {
	doc, err := ParseFile("notes/plain.md", []byte("no heading here\n"))
	require.NoError(t, err)
	require.Equal(t, "plain", doc.Title)
}

func TestParseJSON(t *testing.T) {
	doc, err := ParseFile("data.json", []byte(`{"name":"qfs","count":3,"tags":["a","b"],"extra":null}`))
	require.NoError(t, err)
	require.Equal(t, "application/json", doc.MimeType)
	require.Contains(t, doc.Body, "name")
	require.Contains(t, doc.Body, "qfs")
	require.Contains(t, doc.Body, "a")
	require.Contains(t, doc.Body, "b")
}

func TestParseJSONL(t *testing.T) {
	text := `{"message":{"content":"hello"}}` + "\n" + `{"content":"world"}` + "\n" + `{"text":"third"}`
	doc, err := ParseFile("log.jsonl", []byte(text))
	require.NoError(t, err)
	require.Contains(t, doc.Body, "hello")
	require.Contains(t, doc.Body, "world")
	require.Contains(t, doc.Body, "third")
}

func TestParseJSONLRawFallback(t *testing.T) {
	doc, err := ParseFile("log.jsonl", []byte("not json at all"))
	require.NoError(t, err)
	require.Equal(t, "not json at all", doc.Body)
}

func TestParseTextDefault(t *testing.T) {
	doc, err := ParseFile("readme", []byte("just text"))
	require.NoError(t, err)
	require.Equal(t, "just text", doc.Body)
	require.Equal(t, "text/plain", doc.MimeType)
	require.Equal(t, "readme", doc.Title)
}

func TestParseBinary(t *testing.T) {
	doc, err := ParseFile("image.png", append([]byte{0x89, 0x50, 0x4e, 0x47, 0}, []byte("rest")...))
	require.NoError(t, err)
	require.True(t, doc.IsBinary)
	require.Empty(t, doc.Body)
	require.Equal(t, "image/png", doc.MimeType)
}
