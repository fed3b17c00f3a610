// Package parser extracts a title, body text, MIME type, and metadata
// from a file's raw bytes, dispatching on extension the way the original
// reference implementation's parser module does.
package parser

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qfs-io/qfs/internal/qerr"
)

// binarySniffWindow is how much of the leading bytes is checked for NUL,
// matching ripgrep's own binary-detection heuristic.
const binarySniffWindow = 8192

// ParsedDocument is the normalized result of parsing one file.
type ParsedDocument struct {
	Title    string
	Body     string
	Metadata map[string]string
	IsBinary bool
	MimeType string
}

// IsBinary reports whether content contains a NUL byte within its first
// 8 KiB, the same heuristic ripgrep uses to skip binary files.
func IsBinary(content []byte) bool {
	n := len(content)
	if n > binarySniffWindow {
		n = binarySniffWindow
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}

// ParseFile parses raw bytes from path, dispatching on the lowercased
// extension. Binary content short-circuits to an empty body and a title
// derived from the file stem.
func ParseFile(path string, content []byte) (ParsedDocument, error) {
	if IsBinary(content) {
		return ParsedDocument{
			Title:    fileStem(path),
			Body:     "",
			Metadata: map[string]string{},
			IsBinary: true,
			MimeType: guessMime(path, "application/octet-stream"),
		}, nil
	}

	text := string(content)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case "md", "mdx":
		return parseMarkdown(path, text)
	case "json":
		return parseJSON(path, text)
	case "yaml", "yml":
		return parseYAML(path, text)
	case "jsonl":
		return parseJSONL(path, text)
	default:
		return ParsedDocument{
			Title:    fileStem(path),
			Body:     text,
			Metadata: map[string]string{},
			MimeType: guessMime(path, "text/plain"),
		}, nil
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseMarkdown splits a leading "---"-delimited front-matter block (if
// any) from the body, parses it as a YAML mapping, and special-cases a
// "title" key. With no front-matter title, a leading "# " line in the
// body becomes the title; the file stem is the final fallback.
func parseMarkdown(path, text string) (ParsedDocument, error) {
	metadata := map[string]string{}
	body := text
	title := ""

	lines := strings.Split(text, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		closeIdx := -1
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				closeIdx = i
				break
			}
		}
		if closeIdx > 0 {
			frontMatter := strings.Join(lines[1:closeIdx], "\n")
			var parsed map[string]any
			if err := yaml.Unmarshal([]byte(frontMatter), &parsed); err == nil {
				for k, v := range parsed {
					metadata[k] = stringifyScalar(v)
					if strings.EqualFold(k, "title") {
						title = stringifyScalar(v)
					}
				}
			}
			body = strings.Join(lines[closeIdx+1:], "\n")
			body = strings.TrimPrefix(body, "\n")
		}
	}

	if title == "" {
		for _, l := range strings.Split(body, "\n") {
			trimmed := strings.TrimSpace(l)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "# ") {
				title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			}
			break
		}
	}
	if title == "" {
		title = fileStem(path)
	}

	return ParsedDocument{Title: title, Body: body, Metadata: metadata, MimeType: "text/markdown"}, nil
}

func parseJSON(path, text string) (ParsedDocument, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return ParsedDocument{}, qerr.ParseError_("parse json: "+path, err)
	}
	var tokens []string
	flattenJSON(value, &tokens)
	return ParsedDocument{
		Title:    fileStem(path),
		Body:     strings.Join(tokens, " "),
		Metadata: map[string]string{},
		MimeType: "application/json",
	}, nil
}

func parseYAML(path, text string) (ParsedDocument, error) {
	var value any
	if err := yaml.Unmarshal([]byte(text), &value); err != nil {
		return ParsedDocument{}, qerr.ParseError_("parse yaml: "+path, err)
	}
	normalized := normalizeYAMLValue(value)
	var tokens []string
	flattenJSON(normalized, &tokens)
	return ParsedDocument{
		Title:    fileStem(path),
		Body:     strings.Join(tokens, " "),
		Metadata: map[string]string{},
		MimeType: "text/yaml",
	}, nil
}

// normalizeYAMLValue converts map[string]interface{} keys that yaml.v3
// may produce as map[interface{}]interface{} (on nested anchors) into the
// plain map[string]any tree flattenJSON expects.
func normalizeYAMLValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[stringifyScalar(k)] = normalizeYAMLValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLValue(val)
		}
		return out
	default:
		return v
	}
}

// parseJSONL extracts message.content, a top-level "content" string, and
// a top-level "text" string from each non-empty line, joining whatever is
// found with blank lines; falls back to the raw text if nothing extracts.
func parseJSONL(path, text string) (ParsedDocument, error) {
	var extracted []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		if msg, ok := obj["message"].(map[string]any); ok {
			if content, ok := msg["content"].(string); ok && content != "" {
				extracted = append(extracted, content)
			}
		}
		if content, ok := obj["content"].(string); ok && content != "" {
			extracted = append(extracted, content)
		}
		if t, ok := obj["text"].(string); ok && t != "" {
			extracted = append(extracted, t)
		}
	}

	body := text
	if len(extracted) > 0 {
		body = strings.Join(extracted, "\n\n")
	}
	return ParsedDocument{
		Title:    fileStem(path),
		Body:     body,
		Metadata: map[string]string{},
		MimeType: "application/x-jsonlines",
	}, nil
}

// flattenJSON walks value in document order: keys are emitted before
// their values, arrays are inlined without a key token, scalars are
// stringified, and null is omitted. Object keys are visited in sorted
// order since Go's map iteration order is randomized and the token
// stream otherwise needs to be stable across runs.
func flattenJSON(value any, out *[]string) {
	switch t := value.(type) {
	case nil:
		return
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*out = append(*out, k)
			flattenJSON(t[k], out)
		}
	case []any:
		for _, v := range t {
			flattenJSON(v, out)
		}
	default:
		*out = append(*out, stringifyScalar(t))
	}
}

func stringifyScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

var mimeByExt = map[string]string{
	".md":   "text/markdown",
	".mdx":  "text/markdown",
	".json": "application/json",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".jsonl": "application/x-jsonlines",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".ts":   "text/typescript",
	".go":   "text/x-go",
	".py":   "text/x-python",
	".rs":   "text/x-rust",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".zip":  "application/octet-stream",
}

// guessMime maps a file extension to a MIME type, falling back to def
// when the extension is unrecognized.
func guessMime(path, def string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := mimeByExt[ext]; ok {
		return mime
	}
	return def
}
