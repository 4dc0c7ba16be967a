// Package embed converts chunk text into fixed-dimension vectors in
// bounded batches.
package embed

import (
	"context"
	"fmt"

	"github.com/benoitv-dev/climafact/internal/chunk"
)

// DefaultBatchSize bounds how many texts are sent to the embedding
// service per call.
const DefaultBatchSize = 32

// Embedder is the opaque text-to-vector function.
type Embedder interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// Batcher embeds chunks batch-sequentially.
//
// Failure policy: on a failed batch the Batcher halts and returns the
// error together with every vector embedded so far. The returned slice
// always covers a whole-batch prefix of the input, in input order, so
// the caller can persist partial progress without guessing which chunks
// were dropped.
type Batcher struct {
	embedder  Embedder
	model     string
	batchSize int
	wantDims  int
}

// NewBatcher builds a Batcher. wantDims > 0 pins the expected vector
// dimension; 0 accepts whatever the first batch returns and holds every
// later batch to it.
func NewBatcher(embedder Embedder, model string, batchSize, wantDims int) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Batcher{embedder: embedder, model: model, batchSize: batchSize, wantDims: wantDims}
}

// EmbedChunks returns one vector per input chunk, same order. When err
// is non-nil the returned vectors are the successfully embedded prefix.
// A dimension mismatch between batches, or against the pinned
// dimension, is a configuration error and halts the run.
func (b *Batcher) EmbedChunks(ctx context.Context, chunks []chunk.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	dims := b.wantDims
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += b.batchSize {
		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		resp, err := b.embedder.Embed(ctx, b.model, texts)
		if err != nil {
			return vectors, fmt.Errorf("embed batch %d-%d: %w", start, end-1, err)
		}
		if len(resp) != len(texts) {
			return vectors, fmt.Errorf("embed batch %d-%d: expected %d vectors, got %d", start, end-1, len(texts), len(resp))
		}
		for i, vec := range resp {
			if len(vec) == 0 {
				return vectors, fmt.Errorf("embed batch %d-%d: empty vector for chunk %s", start, end-1, chunks[start+i].ID)
			}
			if dims == 0 {
				dims = len(vec)
			}
			if len(vec) != dims {
				return vectors, fmt.Errorf("embedding dimension mismatch: got %d, want %d (chunk %s)", len(vec), dims, chunks[start+i].ID)
			}
		}
		vectors = append(vectors, resp...)
	}
	return vectors, nil
}

// Dimensions reports the pinned vector dimension, 0 when unpinned.
func (b *Batcher) Dimensions() int { return b.wantDims }

// Model reports the embedding model identifier the Batcher was built
// with. The identifier is persisted with the collection so query-time
// embedding cannot silently diverge from ingestion-time embedding.
func (b *Batcher) Model() string { return b.model }
