package chunker

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Examples(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		want      []string
	}{
		{
			name:      "empty text",
			text:      "",
			chunkSize: 10, overlap: 2,
			want: nil,
		},
		{
			name:      "whitespace only",
			text:      "  \n\t  ",
			chunkSize: 10, overlap: 2,
			want: nil,
		},
		{
			name:      "fits in one chunk",
			text:      "one two three",
			chunkSize: 100, overlap: 20,
			want: []string{"one two three"},
		},
		{
			name:      "overlap seeds next chunk",
			text:      "a b c d e",
			chunkSize: 6, overlap: 2,
			want: []string{"a b c", "c d e"},
		},
		{
			name:      "no overlap",
			text:      "a b c d e",
			chunkSize: 6, overlap: 0,
			want: []string{"a b c", "d e"},
		},
		{
			name:      "oversized token stands alone",
			text:      "supercalifragilistic a b",
			chunkSize: 5, overlap: 2,
			want: []string{"supercalifragilistic", "a b"},
		},
		{
			name:      "seed trimmed to make room",
			text:      "aa bb cccc",
			chunkSize: 8, overlap: 6,
			want: []string{"aa bb", "bb cccc"},
		},
		{
			name:      "whitespace runs collapse",
			text:      "a\n\nb\t\tc",
			chunkSize: 100, overlap: 0,
			want: []string{"a b c"},
		},
		{
			name:      "runes not bytes",
			text:      "ééé ééé",
			chunkSize: 8, overlap: 0,
			want: []string{"ééé ééé"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.chunkSize, tt.overlap))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, 400, c.ChunkSize())
	assert.Equal(t, 200, c.Overlap())
}

func TestNew_ClampsOverlap(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(100))
	assert.Equal(t, 100, c.ChunkSize())
	assert.Equal(t, 25, c.Overlap())

	c = New(WithChunkSize(-5), WithOverlap(-1))
	assert.Equal(t, DefaultChunkSize, c.ChunkSize())
	assert.Equal(t, DefaultOverlap, c.Overlap())
}

func TestSplit_Deterministic(t *testing.T) {
	text := randomText(rand.New(rand.NewSource(7)), 500, 12)
	c := New(WithChunkSize(120), WithOverlap(40))
	assert.Equal(t, c.Split(text), c.Split(text))
}

func TestSplit_Properties(t *testing.T) {
	configs := []struct{ chunkSize, overlap int }{
		{400, 200},
		{100, 40},
		{60, 0},
		{50, 30},
	}

	rng := rand.New(rand.NewSource(42))
	for _, cfg := range configs {
		for trial := 0; trial < 20; trial++ {
			name := fmt.Sprintf("size=%d/overlap=%d/trial=%d", cfg.chunkSize, cfg.overlap, trial)
			t.Run(name, func(t *testing.T) {
				// Token sizes stay below chunkSize-overlap so overlap is never trimmed
				maxToken := cfg.chunkSize - cfg.overlap - 2
				if maxToken > 12 {
					maxToken = 12
				}
				text := randomText(rng, 50+rng.Intn(400), maxToken)
				tokens := strings.Fields(text)
				chunks := Split(text, cfg.chunkSize, cfg.overlap)
				require.NotEmpty(t, chunks)

				// Length bound
				for _, chunk := range chunks {
					assert.LessOrEqual(t, utf8.RuneCountInString(chunk), cfg.chunkSize, chunk)
				}

				// Overlap: the trailing tokens of chunk i that fit appear as the leading tokens of chunk i+1
				for i := 0; i+1 < len(chunks); i++ {
					prev := strings.Fields(chunks[i])
					next := strings.Fields(chunks[i+1])
					seed, _ := trailing(prev, cfg.overlap)
					require.LessOrEqual(t, len(seed), len(next))
					assert.Equal(t, seed, next[:len(seed)])
				}

				// Reconstruction: dropping each chunk's seed yields the original tokens in order
				rebuilt := strings.Fields(chunks[0])
				for i := 1; i < len(chunks); i++ {
					seed, _ := trailing(strings.Fields(chunks[i-1]), cfg.overlap)
					rebuilt = append(rebuilt, strings.Fields(chunks[i])[len(seed):]...)
				}
				assert.Equal(t, tokens, rebuilt)
			})
		}
	}
}

func TestSplit_OversizedTokensOnlyExceedLimit(t *testing.T) {
	text := "short " + strings.Repeat("x", 50) + " tail words here " + strings.Repeat("y", 30)
	chunks := Split(text, 20, 8)

	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > 20 {
			assert.Len(t, strings.Fields(chunk), 1, "only single tokens may exceed the limit: %q", chunk)
		}
	}
	assert.Equal(t, strings.Fields(text), dedupeAdjacent(chunks))
}

// randomText builds n unique tokens of up to maxLen runes.
func randomText(rng *rand.Rand, n, maxLen int) string {
	words := make([]string, n)
	for i := range words {
		id := fmt.Sprintf("w%d", i)
		pad := rng.Intn(maxLen)
		if len(id)+pad > maxLen {
			pad = maxLen - len(id)
		}
		if pad < 0 {
			pad = 0
		}
		words[i] = id + strings.Repeat("z", pad)
	}
	sep := []string{" ", "  ", "\n", "\t"}
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteString(sep[rng.Intn(len(sep))])
		}
		b.WriteString(w)
	}
	return b.String()
}

// dedupeAdjacent rebuilds the token stream from chunks by removing each
// chunk's leading tokens that repeat the previous chunk's tail.
func dedupeAdjacent(chunks []string) []string {
	if len(chunks) == 0 {
		return nil
	}
	out := strings.Fields(chunks[0])
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		next := strings.Fields(chunks[i])
		k := 0
		for n := len(next); n > 0; n-- {
			if n <= len(prev) && equal(prev[len(prev)-n:], next[:n]) {
				k = n
				break
			}
		}
		out = append(out, next[k:]...)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
