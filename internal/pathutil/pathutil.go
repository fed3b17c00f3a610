// Package pathutil implements path:line parsing, line-range extraction,
// and docid normalization — small pure helpers with no definitions in the
// retrieved reference sources beyond their call sites, authored directly
// from the functional contract they must satisfy.
package pathutil

import (
	"strconv"
	"strings"
)

// ParsePathWithLine splits "path:N" into (path, &N) when the suffix after
// the last ':' is a non-empty run of digits. Any other suffix leaves the
// colon embedded in the path and returns a nil line.
func ParsePathWithLine(input string) (string, *int) {
	idx := strings.LastIndex(input, ":")
	if idx < 0 || idx == len(input)-1 {
		return input, nil
	}
	suffix := input[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return input, nil
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return input, nil
	}
	return input[:idx], &n
}

// ExtractLines returns the [from, from+max) window of text (1-indexed
// from), clamped to the available lines.
func ExtractLines(text string, from, max *int) string {
	lines := strings.Split(text, "\n")
	start := 0
	if from != nil {
		start = *from - 1
		if start < 0 {
			start = 0
		}
	}
	if start >= len(lines) {
		return ""
	}
	end := len(lines)
	if max != nil {
		if start+*max < end {
			end = start + *max
		}
	}
	return strings.Join(lines[start:end], "\n")
}

// AddLineNumbers prefixes each line of text with "N: ", N incrementing
// from start.
func AddLineNumbers(text string, start int) string {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strconv.Itoa(start+i) + ": " + l
	}
	return strings.Join(out, "\n")
}

// NormalizeDocid trims whitespace, strips one layer of matching quotes,
// and strips a single leading '#'.
func NormalizeDocid(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	s = strings.TrimPrefix(s, "#")
	return s
}

// IsDocid reports whether s, once normalized, is at least 6 hex digits.
func IsDocid(s string) bool {
	n := NormalizeDocid(s)
	if len(n) < 6 {
		return false
	}
	for _, r := range n {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
		if !isHex {
			return false
		}
	}
	return true
}

// ParseQfsURI strips a leading "qfs://" or "//" prefix.
func ParseQfsURI(path string) string {
	if stripped, ok := strings.CutPrefix(path, "qfs://"); ok {
		return stripped
	}
	if stripped, ok := strings.CutPrefix(path, "//"); ok {
		return stripped
	}
	return path
}

// SplitCollectionPath splits "collection/relative/path" into its two
// parts. ok is false if there is no '/' separator.
func SplitCollectionPath(clean string) (collection, path string, ok bool) {
	parts := strings.SplitN(clean, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
