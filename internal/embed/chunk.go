package embed

import (
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/textsplitter"
)

// largeDocThreshold bounds memory of the tokenization pass: documents
// above this size are first coarsely segmented so the word-window scan
// below never has to hold the whole body's token list at once.
const largeDocThreshold = 100_000

// Chunk is one word-window slice of a document body.
type Chunk struct {
	Text       string
	CharOffset int
	Index      int
}

// ChunkText splits text into overlapping windows of chunkSizeWords
// tokens, stepping by max(1, chunkSizeWords-overlapWords) tokens at a
// time. char_offset is the source-string byte offset of each window's
// first token; index is monotonic from zero.
func ChunkText(text string, chunkSizeWords, overlapWords int) []Chunk {
	if chunkSizeWords <= 0 {
		chunkSizeWords = 1
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	step := chunkSizeWords - overlapWords
	if step < 1 {
		step = 1
	}

	if len(text) <= largeDocThreshold {
		return chunkWords(tokenize(text), chunkSizeWords, step)
	}
	return chunkLargeDocument(text, chunkSizeWords, step)
}

// chunkLargeDocument pre-splits text into coarse, roughly-paragraph-sized
// segments via langchaingo's recursive character splitter, then runs the
// exact word-window algorithm within each segment, translating offsets
// back to the original string.
func chunkLargeDocument(text string, chunkSizeWords, step int) []Chunk {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(largeDocThreshold),
		textsplitter.WithChunkOverlap(0),
	)
	segments, err := splitter.SplitText(text)
	if err != nil || len(segments) == 0 {
		return chunkWords(tokenize(text), chunkSizeWords, step)
	}

	var out []Chunk
	searchFrom := 0
	index := 0
	for _, seg := range segments {
		offset := strings.Index(text[searchFrom:], seg)
		base := searchFrom
		if offset >= 0 {
			base = searchFrom + offset
			searchFrom = base + len(seg)
		}
		tokens := tokenize(seg)
		for i := range tokens {
			tokens[i].offset += base
		}
		for _, c := range chunkWords(tokens, chunkSizeWords, step) {
			c.Index = index
			index++
			out = append(out, c)
		}
	}
	return out
}

type token struct {
	text   string
	offset int
}

// tokenize splits on whitespace runs, recording each token's byte offset.
func tokenize(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{text: text[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{text: text[start:], offset: start})
	}
	return tokens
}

func chunkWords(tokens []token, chunkSizeWords, step int) []Chunk {
	if len(tokens) == 0 {
		return nil
	}
	var out []Chunk
	index := 0
	for start := 0; start < len(tokens); start += step {
		end := start + chunkSizeWords
		if end > len(tokens) {
			end = len(tokens)
		}
		words := make([]string, 0, end-start)
		for _, tok := range tokens[start:end] {
			words = append(words, tok.text)
		}
		out = append(out, Chunk{
			Text:       strings.Join(words, " "),
			CharOffset: tokens[start].offset,
			Index:      index,
		})
		index++
		if end == len(tokens) {
			break
		}
	}
	return out
}
