// Package chunker splits text into overlapping, word-aligned segments for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 400

// DefaultOverlap is the default number of characters carried into the next chunk.
const DefaultOverlap = 200

// Chunker splits text using a fixed chunk size and overlap.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.chunkSize, c.overlap = clamp(c.chunkSize, c.overlap)
	return c
}

// ChunkSize returns the effective chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the effective overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split splits text with the chunker's settings.
func (c *Chunker) Split(text string) []string {
	return Split(text, c.chunkSize, c.overlap)
}

// Split tokenizes text on whitespace and greedily packs tokens into chunks
// of at most chunkSize characters, counting one separator per token.
//
// When the next token does not fit, the current chunk is emitted and the
// next one is seeded with the longest run of trailing tokens whose size fits
// within overlap. Leading seed tokens are dropped if the seed and the next
// token together would not fit. A chunk is longer than chunkSize only when
// it is a single token longer than chunkSize.
//
// Lengths are measured in runes. An overlap not smaller than chunkSize is
// reduced to chunkSize/4.
func Split(text string, chunkSize, overlap int) []string {
	chunkSize, overlap = clamp(chunkSize, overlap)

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	length := 0

	for _, token := range tokens {
		size := tokenSize(token)

		if len(current) > 0 && length+size > chunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current, length = trailing(current, overlap)

			for len(current) > 0 && length+size > chunkSize {
				length -= tokenSize(current[0])
				current = current[1:]
			}
		}

		current = append(current, token)
		length += size
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// trailing returns the longest suffix of tokens whose total size fits in limit.
func trailing(tokens []string, limit int) ([]string, int) {
	length := 0
	start := len(tokens)
	for i := len(tokens) - 1; i >= 0; i-- {
		size := tokenSize(tokens[i])
		if length+size > limit {
			break
		}
		length += size
		start = i
	}

	seed := make([]string, len(tokens)-start)
	copy(seed, tokens[start:])
	return seed, length
}

// tokenSize is the token's rune count plus one separator.
func tokenSize(token string) int {
	return utf8.RuneCountInString(token) + 1
}

func clamp(chunkSize, overlap int) (int, int) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	// Ensure overlap doesn't exceed chunk size
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return chunkSize, overlap
}
