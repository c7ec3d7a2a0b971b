// Package chunker splits long input into texts that fit a translation request
// and groups those texts into requests the service accepts.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxTextsPerRequest is the number of text fields one request may carry.
	MaxTextsPerRequest = 50
	// MaxRequestBytes is the total text size of one request.
	MaxRequestBytes = 128 * 1024
	// DefaultChunkBytes is the size Split aims for when no limit is given.
	DefaultChunkBytes = 16 * 1024
)

// Chunk is a piece of the input and the whitespace that followed it, so the
// translated pieces can be joined back with the original layout.
type Chunk struct {
	Text string
	Sep  string
}

// Split normalises text to NFC and cuts it into chunks of at most maxBytes.
// Cuts are attempted, in order of preference, at:
//  1. Paragraph boundaries (blank lines)
//  2. Sentence-ending punctuation (. ! ?) followed by whitespace
//  3. Whitespace
//  4. A hard cut on a rune boundary
//
// Whitespace-only input yields no chunks. maxBytes <= 0 selects DefaultChunkBytes.
func Split(text string, maxBytes int) []Chunk {
	if maxBytes <= 0 {
		maxBytes = DefaultChunkBytes
	}
	text = strings.ReplaceAll(norm.NFC.String(text), "\r\n", "\n")

	var chunks []Chunk
	remaining := strings.TrimLeftFunc(text, unicode.IsSpace)

	for remaining != "" {
		split := len(remaining)
		if split > maxBytes {
			split = findSplit(remaining, maxBytes)
		}
		head := remaining[:split]
		rest := remaining[split:]

		body := strings.TrimRightFunc(head, unicode.IsSpace)
		next := strings.TrimLeftFunc(rest, unicode.IsSpace)
		sep := head[len(body):] + rest[:len(rest)-len(next)]

		if body != "" {
			chunks = append(chunks, Chunk{Text: body, Sep: sep})
		}
		remaining = next
	}

	if n := len(chunks); n > 0 {
		chunks[n-1].Sep = trailing(text)
	}
	return chunks
}

func trailing(s string) string {
	return s[len(strings.TrimRightFunc(s, unicode.IsSpace)):]
}

// findSplit returns the byte index at which to cut text so the head is at
// most maxBytes long and never ends inside a rune or a markup tag.
func findSplit(text string, maxBytes int) int {
	limit := maxBytes
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	if limit == 0 {
		_, size := utf8.DecodeRuneInString(text)
		return size
	}
	candidate := text[:limit]

	if idx := strings.LastIndex(candidate, "\n\n"); idx > 0 {
		return idx + 2
	}

	for i := len(candidate) - 1; i > 0; i-- {
		c := candidate[i-1]
		if (c == '.' || c == '!' || c == '?') && isSpaceByte(candidate[i]) {
			return outsideTag(text, i)
		}
	}

	if idx := strings.LastIndexFunc(candidate, unicode.IsSpace); idx > 0 {
		return outsideTag(text, idx)
	}

	return outsideTag(text, limit)
}

// outsideTag moves a cut at idx back to the '<' of a tag that would
// otherwise be split. A '<' without a closing '>' is not a tag.
func outsideTag(text string, idx int) int {
	open := strings.LastIndexByte(text[:idx], '<')
	if open <= 0 || strings.LastIndexByte(text[:idx], '>') > open {
		return idx
	}
	if strings.IndexByte(text[idx:], '>') < 0 {
		return idx
	}
	return open
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// Texts returns the text of each chunk.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// Join reassembles translated texts with the separators of chunks. translated
// must have one entry per chunk.
func Join(chunks []Chunk, translated []string) string {
	var b strings.Builder
	for i, c := range chunks {
		if i < len(translated) {
			b.WriteString(translated[i])
		}
		b.WriteString(c.Sep)
	}
	return b.String()
}

// Batch groups texts in order into requests of at most maxTexts texts and
// maxBytes bytes. A single text larger than maxBytes gets a request of its
// own. Zero limits select MaxTextsPerRequest and MaxRequestBytes.
func Batch(texts []string, maxTexts, maxBytes int) [][]string {
	if maxTexts <= 0 {
		maxTexts = MaxTextsPerRequest
	}
	if maxBytes <= 0 {
		maxBytes = MaxRequestBytes
	}

	var batches [][]string
	var current []string
	size := 0
	for _, t := range texts {
		if len(current) > 0 && (len(current) == maxTexts || size+len(t) > maxBytes) {
			batches = append(batches, current)
			current, size = nil, 0
		}
		current = append(current, t)
		size += len(t)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
