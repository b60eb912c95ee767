package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/poiesic/docsearch/core"
)

// embeddedChunks holds the chunks of one document that embedded successfully,
// in their original order.
type embeddedChunks struct {
	vectors [][]float32
	metas   []core.ChunkMetadata
	skipped int
	err     error // Joined errors of the skipped chunks
}

// embedChunks embeds every chunk on the worker pool. Failed chunks are
// logged and left out of the result.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []string, source string) embeddedChunks {
	p.logger.Debug("generating embeddings for chunks", "source", source, "chunks", len(chunks))

	vectors := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			vectors[i], errs[i] = p.embedder.EmbedText(ctx, chunk)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	var out embeddedChunks
	for i, chunk := range chunks {
		if errs[i] != nil {
			p.logger.Warn("skipping chunk that failed to embed",
				"source", source, "chunk", i, "err", errs[i])
			out.skipped++
			out.err = errors.Join(out.err, fmt.Errorf("chunk %d: %w", i, errs[i]))
			continue
		}
		out.vectors = append(out.vectors, vectors[i])
		out.metas = append(out.metas, core.ChunkMetadata{Text: chunk, Source: source})
	}
	return out
}
