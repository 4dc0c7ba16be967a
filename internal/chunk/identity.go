package chunk

import (
	"fmt"
)

// Chunk is a bounded slice of a document's normalized text, the unit of
// embedding and retrieval. Source is a lookup key into the originating
// document, never a pointer.
type Chunk struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Text   string `json:"text"`
	Index  int    `json:"chunk_index"`
	Total  int    `json:"total_chunks_in_document"`
}

// ErrSourceCollision reports two distinct documents resolving to the
// same source identifier within one ingestion run. Proceeding would
// silently overwrite chunks in the vector store, so this is fatal.
type ErrSourceCollision struct {
	SourceID string
}

func (e *ErrSourceCollision) Error() string {
	return fmt.Sprintf("source id collision: %q already ingested in this run", e.SourceID)
}

// Assigner issues stable chunk identifiers. IDs depend only on the
// source identifier and the chunk ordinal, so re-segmenting the same
// document always regenerates byte-identical IDs and re-ingestion is an
// idempotent upsert.
type Assigner struct {
	seen map[string]struct{}
}

// NewAssigner returns an Assigner scoped to one ingestion run.
func NewAssigner() *Assigner {
	return &Assigner{seen: make(map[string]struct{})}
}

// Assign attaches identity to a document's ordered segments. A repeated
// sourceID within the run returns *ErrSourceCollision.
func (a *Assigner) Assign(sourceID string, segments []string) ([]Chunk, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("empty source id")
	}
	if _, dup := a.seen[sourceID]; dup {
		return nil, &ErrSourceCollision{SourceID: sourceID}
	}
	a.seen[sourceID] = struct{}{}

	chunks := make([]Chunk, len(segments))
	for i, text := range segments {
		chunks[i] = Chunk{
			ID:     ChunkID(sourceID, i),
			Source: sourceID,
			Text:   text,
			Index:  i,
			Total:  len(segments),
		}
	}
	return chunks, nil
}

// ChunkID derives the identifier for one chunk ordinal of a source.
func ChunkID(sourceID string, ordinal int) string {
	return fmt.Sprintf("%s_%d", sourceID, ordinal)
}
