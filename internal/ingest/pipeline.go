package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/benoitv-dev/climafact/internal/chunk"
	"github.com/benoitv-dev/climafact/internal/embed"
	"github.com/benoitv-dev/climafact/internal/store"
	"github.com/benoitv-dev/climafact/internal/telemetry"
)

// VectorWriter is the slice of the store gateway the pipeline writes
// through.
type VectorWriter interface {
	EnsureCollection(ctx context.Context, name, embeddingModel string, dimensions int) (store.Collection, error)
	UpsertChunks(ctx context.Context, col store.Collection, entries []store.Entry) error
	DeleteSourceTail(ctx context.Context, col store.Collection, sourceID string, from int) (int64, error)
}

// LexicalIndexer receives chunks for the optional keyword index.
type LexicalIndexer interface {
	IndexChunks(chunks []chunk.Chunk) error
}

// Stats summarizes one ingestion run.
type Stats struct {
	RunID     string
	Documents int
	Skipped   int
	Chunks    int
}

// Pipeline chains extraction, normalization, segmentation, identity
// assignment, batch embedding and store upserts for one collection.
// One Pipeline value serves one run; ingestion is batch-sequential with
// no concurrent writers.
type Pipeline struct {
	Collection string

	Normalizer interface{ Normalize(string) string }
	Splitter   *chunk.Splitter
	Batcher    *embed.Batcher
	Store      VectorWriter
	Locker     CollectionLocker
	Lexical    LexicalIndexer // optional
	Extractors map[OriginKind]Extractor
	Logger     *log.Logger

	// ChunkArtifact, when set, receives every document's chunks as JSON
	// Lines before embedding (the interchange artifact).
	ChunkArtifact io.Writer
}

// SourceRef names one artifact to ingest.
type SourceRef struct {
	Kind OriginKind
	Ref  string
}

// ClassifyRef infers the origin kind from the reference shape.
func ClassifyRef(ref string) SourceRef {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceRef{Kind: OriginWeb, Ref: ref}
	case strings.HasSuffix(lower, ".pdf"):
		return SourceRef{Kind: OriginPDF, Ref: ref}
	default:
		return SourceRef{Kind: OriginFile, Ref: ref}
	}
}

// Run ingests the given sources into the pipeline's collection under
// the single-writer lock.
//
// Per-document extraction and normalization failures are skips, not
// crashes. Identity collisions and embedding/store failures halt the
// run; chunks embedded before an embedding failure are persisted first
// so partial progress survives.
func (p *Pipeline) Run(ctx context.Context, sources []SourceRef) (Stats, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	stats := Stats{RunID: uuid.NewString()}

	locker := p.Locker
	if locker == nil {
		locker = NopLocker{}
	}
	if err := locker.Acquire(ctx, p.Collection, stats.RunID); err != nil {
		return stats, err
	}
	defer func() {
		if err := locker.Release(context.WithoutCancel(ctx), p.Collection, stats.RunID); err != nil {
			logger.Printf("warn: release ingest lock: %v", err)
		}
	}()

	col, err := p.Store.EnsureCollection(ctx, p.Collection, p.Batcher.Model(), p.Batcher.Dimensions())
	if err != nil {
		return stats, err
	}

	assigner := chunk.NewAssigner()
	for i, src := range sources {
		logger.Printf("[%d/%d] %s (%s)", i+1, len(sources), src.Ref, src.Kind)

		extractor, ok := p.Extractors[src.Kind]
		if !ok {
			return stats, fmt.Errorf("no extractor registered for kind %q", src.Kind)
		}
		doc, err := extractor.Extract(ctx, src.Ref)
		if err != nil {
			if errors.Is(err, ErrNoUsableText) {
				logger.Printf("skip %s: no usable text", src.Ref)
				telemetry.DocumentsSkipped.WithLabelValues("no_text").Inc()
			} else {
				logger.Printf("skip %s: extraction failed: %v", src.Ref, err)
				telemetry.DocumentsSkipped.WithLabelValues("extract_error").Inc()
			}
			stats.Skipped++
			continue
		}

		cleaned := p.Normalizer.Normalize(doc.RawText)
		if cleaned == "" {
			logger.Printf("skip %s: empty after normalization", doc.SourceID)
			telemetry.DocumentsSkipped.WithLabelValues("empty_normalized").Inc()
			stats.Skipped++
			continue
		}

		segments := p.Splitter.Split(cleaned)
		if len(segments) == 0 {
			logger.Printf("skip %s: zero chunks", doc.SourceID)
			telemetry.DocumentsSkipped.WithLabelValues("zero_chunks").Inc()
			stats.Skipped++
			continue
		}

		chunks, err := assigner.Assign(doc.SourceID, segments)
		if err != nil {
			// A collision would silently overwrite another document's
			// entries; halt instead of losing data.
			return stats, err
		}

		if p.ChunkArtifact != nil {
			if err := chunk.WriteRecords(p.ChunkArtifact, chunks); err != nil {
				return stats, err
			}
		}

		if err := p.embedAndUpsert(ctx, col, chunks, logger); err != nil {
			return stats, err
		}

		// A shrunken re-ingestion leaves stale entries past the new
		// chunk count; drop them so they cannot surface in retrieval.
		if removed, err := p.Store.DeleteSourceTail(ctx, col, doc.SourceID, len(chunks)); err != nil {
			return stats, err
		} else if removed > 0 {
			logger.Printf("%s: removed %d stale chunks beyond ordinal %d", doc.SourceID, removed, len(chunks)-1)
		}

		if p.Lexical != nil {
			if err := p.Lexical.IndexChunks(chunks); err != nil {
				logger.Printf("warn: lexical index %s: %v", doc.SourceID, err)
			}
		}

		stats.Documents++
		stats.Chunks += len(chunks)
		telemetry.DocumentsIngested.Inc()
		logger.Printf("ingested %s: %d chunks", doc.SourceID, len(chunks))
	}

	logger.Printf("run %s done: %d documents, %d chunks, %d skipped", stats.RunID, stats.Documents, stats.Chunks, stats.Skipped)
	return stats, nil
}

// RunRecords ingests pre-segmented chunk records, skipping extraction,
// normalization and splitting. Used to re-embed a saved chunk artifact,
// for example after an embedding failure or a model migration to a
// same-dimension model. The same lock and collection checks apply.
func (p *Pipeline) RunRecords(ctx context.Context, chunks []chunk.Chunk) (Stats, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	stats := Stats{RunID: uuid.NewString()}
	if len(chunks) == 0 {
		return stats, nil
	}

	locker := p.Locker
	if locker == nil {
		locker = NopLocker{}
	}
	if err := locker.Acquire(ctx, p.Collection, stats.RunID); err != nil {
		return stats, err
	}
	defer func() {
		if err := locker.Release(context.WithoutCancel(ctx), p.Collection, stats.RunID); err != nil {
			logger.Printf("warn: release ingest lock: %v", err)
		}
	}()

	col, err := p.Store.EnsureCollection(ctx, p.Collection, p.Batcher.Model(), p.Batcher.Dimensions())
	if err != nil {
		return stats, err
	}

	// Group by source so per-document totals and stale tails behave the
	// same as a full run.
	order := make([]string, 0)
	bySource := make(map[string][]chunk.Chunk)
	for _, c := range chunks {
		if _, seen := bySource[c.Source]; !seen {
			order = append(order, c.Source)
		}
		bySource[c.Source] = append(bySource[c.Source], c)
	}

	for _, src := range order {
		docChunks := bySource[src]
		if err := p.embedAndUpsert(ctx, col, docChunks, logger); err != nil {
			return stats, err
		}
		if removed, err := p.Store.DeleteSourceTail(ctx, col, src, len(docChunks)); err != nil {
			return stats, err
		} else if removed > 0 {
			logger.Printf("%s: removed %d stale chunks beyond ordinal %d", src, removed, len(docChunks)-1)
		}
		if p.Lexical != nil {
			if err := p.Lexical.IndexChunks(docChunks); err != nil {
				logger.Printf("warn: lexical index %s: %v", src, err)
			}
		}
		stats.Documents++
		stats.Chunks += len(docChunks)
		telemetry.DocumentsIngested.Inc()
	}

	logger.Printf("record run %s done: %d documents, %d chunks", stats.RunID, stats.Documents, stats.Chunks)
	return stats, nil
}

// embedAndUpsert embeds a document's chunks and writes them. When
// embedding fails partway, the embedded whole-batch prefix is persisted
// before the error propagates.
func (p *Pipeline) embedAndUpsert(ctx context.Context, col store.Collection, chunks []chunk.Chunk, logger *log.Logger) error {
	vectors, embedErr := p.Batcher.EmbedChunks(ctx, chunks)
	if embedErr != nil {
		telemetry.EmbeddingBatches.WithLabelValues("error").Inc()
	} else {
		telemetry.EmbeddingBatches.WithLabelValues("ok").Inc()
	}

	n := len(vectors)
	if n > len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", n, len(chunks))
	}
	if n > 0 {
		entries := make([]store.Entry, n)
		for i := 0; i < n; i++ {
			entries[i] = store.Entry{
				ID:     chunks[i].ID,
				Source: chunks[i].Source,
				Index:  chunks[i].Index,
				Total:  chunks[i].Total,
				Text:   chunks[i].Text,
				Vector: vectors[i],
			}
		}
		if err := p.Store.UpsertChunks(ctx, col, entries); err != nil {
			if embedErr != nil {
				return fmt.Errorf("upsert after partial embedding failure (%v): %w", embedErr, err)
			}
			return err
		}
		telemetry.ChunksUpserted.Add(float64(n))
	}
	if embedErr != nil {
		logger.Printf("embedding halted after %d/%d chunks persisted", n, len(chunks))
		return embedErr
	}
	return nil
}
