// Package lexical maintains a keyword index over ingested chunks. It
// is a degraded-mode fallback: when the embedding service is down at
// query time, keyword search still surfaces candidate evidence.
package lexical

import (
	"fmt"

	"github.com/blevesearch/bleve"

	"github.com/benoitv-dev/climafact/internal/chunk"
)

// Hit is one keyword match.
type Hit struct {
	ChunkID string
	Source  string
	Text    string
	Score   float64
}

// Index wraps a bleve index stored on disk.
type Index struct {
	idx bleve.Index
}

type chunkDoc struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Open opens the index at path, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open lexical index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// OpenInMemory builds a transient index, used in tests and one-shot runs.
func OpenInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

// IndexChunks upserts chunks into the keyword index, keyed by chunk id
// so re-ingestion replaces rather than duplicates.
func (i *Index) IndexChunks(chunks []chunk.Chunk) error {
	batch := i.idx.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, chunkDoc{Source: c.Source, Text: c.Text}); err != nil {
			return fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
	}
	return i.idx.Batch(batch)
}

// Search returns up to k keyword matches, best first.
func (i *Index) Search(query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 3
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), k, 0, false)
	req.Fields = []string{"source", "text"}
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ChunkID: h.ID, Score: h.Score}
		if s, ok := h.Fields["source"].(string); ok {
			hit.Source = s
		}
		if t, ok := h.Fields["text"].(string); ok {
			hit.Text = t
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the index.
func (i *Index) Close() error { return i.idx.Close() }
