package ingestion

import (
	"fmt"
	"strings"

	"github.com/soundprediction/graphista/pkg/types"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many characters consecutive chunks share.
	DefaultChunkOverlap = 100
)

// separators are tried in order when splitting: paragraph, line, word, rune.
var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits cleaned document text into overlapping chunks. Size and
// overlap are fixed at construction so every chunk records the exact
// configuration that produced it.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a Chunker. Non-positive arguments fall back to the
// defaults; overlap is clamped below size.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// ChunkDocument splits the document's text and attaches the resulting
// chunks, numbered from zero in text order.
func (c *Chunker) ChunkDocument(doc *types.Document) *types.Document {
	pieces := c.split(doc.Text, separators)
	merged := c.merge(pieces)

	doc.Chunks = doc.Chunks[:0]
	for i, text := range merged {
		doc.Chunks = append(doc.Chunks, &types.Chunk{
			ChunkID:      i,
			Filename:     doc.Filename,
			Version:      doc.Version,
			Text:         text,
			ChunkSize:    c.chunkSize,
			ChunkOverlap: c.chunkOverlap,
		})
	}
	return doc
}

// split recursively breaks text on the coarsest separator that still yields
// pieces no larger than the chunk size.
func (c *Chunker) split(text string, seps []string) []string {
	if len(text) == 0 {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	separator := seps[len(seps)-1]
	rest := seps
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = seps[i+1:]
			break
		}
	}

	var parts []string
	if separator == "" {
		runes := []rune(text)
		for start := 0; start < len(runes); start += c.chunkSize {
			end := start + c.chunkSize
			if end > len(runes) {
				end = len(runes)
			}
			parts = append(parts, string(runes[start:end]))
		}
		return parts
	}

	var out []string
	for _, part := range strings.Split(text, separator) {
		if part == "" {
			continue
		}
		if len(part) <= c.chunkSize {
			out = append(out, part)
			continue
		}
		out = append(out, c.split(part, rest)...)
	}
	return out
}

// merge greedily packs pieces into chunks up to the chunk size, carrying the
// configured overlap from the tail of each chunk into the next.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			chunks = append(chunks, text)
		}
		current.Reset()
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+1+len(piece) > c.chunkSize {
			tail := overlapTail(current.String(), c.chunkOverlap)
			flush()
			if tail != "" {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(piece)
	}
	flush()
	return chunks
}

// overlapTail returns the last overlap characters of text, extended left to
// a word boundary when possible.
func overlapTail(text string, overlap int) string {
	if overlap <= 0 || len(text) == 0 {
		return ""
	}
	if len(text) <= overlap {
		return text
	}
	tail := text[len(text)-overlap:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx+1 < len(tail) {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
