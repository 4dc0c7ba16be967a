// Package store is the vector store gateway: a Postgres database with
// the pgvector extension holding one or more named collections of
// embedded chunks.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

// Entry is the persisted triple for one chunk.
type Entry struct {
	ID     string
	Source string
	Index  int
	Total  int
	Text   string
	Vector []float32
}

// SearchResult is one retrieval hit, ordered ascending by cosine
// distance (nearest first). Query-scoped, never persisted.
type SearchResult struct {
	ChunkID  string
	Source   string
	Text     string
	Distance float64
}

// Collection binds a name to the embedding model and dimension its
// vectors were produced with. Mixing models or dimensions within one
// collection is a configuration error, not a data condition.
type Collection struct {
	ID             int64
	Name           string
	EmbeddingModel string
	Dimensions     int
}

// Store wraps the database handle. Construction fails when the store is
// unreachable; per-call errors are returned to the caller.
type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.DB.Close() }

// EnsureCollection returns the named collection, creating it on first
// use. An existing collection whose recorded embedding model or
// dimension differs from the requested one fails fast: querying it with
// a different embedding function would return silently wrong neighbors.
func (s *Store) EnsureCollection(ctx context.Context, name, embeddingModel string, dimensions int) (Collection, error) {
	if strings.TrimSpace(name) == "" {
		return Collection{}, fmt.Errorf("collection name required")
	}
	if embeddingModel == "" {
		return Collection{}, fmt.Errorf("embedding model identifier required")
	}
	if dimensions <= 0 {
		return Collection{}, fmt.Errorf("dimensions must be > 0")
	}

	var col Collection
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO collections (name, embedding_model, dimensions)
VALUES ($1,$2,$3)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, embedding_model, dimensions
`, name, embeddingModel, dimensions).Scan(&col.ID, &col.Name, &col.EmbeddingModel, &col.Dimensions)
	if err != nil {
		return Collection{}, fmt.Errorf("ensure collection %q: %w", name, err)
	}
	if col.EmbeddingModel != embeddingModel {
		return Collection{}, fmt.Errorf("collection %q was built with embedding model %q, configured model is %q", name, col.EmbeddingModel, embeddingModel)
	}
	if col.Dimensions != dimensions {
		return Collection{}, fmt.Errorf("collection %q has dimension %d, configured dimension is %d", name, col.Dimensions, dimensions)
	}
	return col, nil
}

// GetCollection looks up an existing collection by name.
func (s *Store) GetCollection(ctx context.Context, name string) (Collection, error) {
	var col Collection
	err := s.DB.QueryRowContext(ctx, `
SELECT id, name, embedding_model, dimensions FROM collections WHERE name = $1
`, name).Scan(&col.ID, &col.Name, &col.EmbeddingModel, &col.Dimensions)
	if err == sql.ErrNoRows {
		return Collection{}, fmt.Errorf("collection %q does not exist", name)
	}
	if err != nil {
		return Collection{}, fmt.Errorf("get collection %q: %w", name, err)
	}
	return col, nil
}

// UpsertChunks writes entries into the collection with insert-or-replace
// semantics: re-upserting an id replaces its vector, text and metadata
// entirely. The write is transactional; an entry whose vector length
// differs from the collection's dimension aborts the whole call before
// anything is written.
func (s *Store) UpsertChunks(ctx context.Context, col Collection, entries []Entry) (err error) {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("chunk id required")
		}
		if len(e.Vector) != col.Dimensions {
			return fmt.Errorf("chunk %s: vector dimension %d does not match collection dimension %d", e.ID, len(e.Vector), col.Dimensions)
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chunks (collection_id, chunk_id, source, chunk_index, total_chunks, body, embedding, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7::vector,$8,NOW())
ON CONFLICT (collection_id, chunk_id) DO UPDATE SET
  source = EXCLUDED.source,
  chunk_index = EXCLUDED.chunk_index,
  total_chunks = EXCLUDED.total_chunks,
  body = EXCLUDED.body,
  embedding = EXCLUDED.embedding,
  metadata = EXCLUDED.metadata,
  created_at = NOW();
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		vectorLiteral, encErr := encodeVectorLiteral(e.Vector)
		if encErr != nil {
			err = fmt.Errorf("chunk %s: %w", e.ID, encErr)
			return err
		}
		metaBytes, mErr := json.Marshal(map[string]interface{}{"source": e.Source})
		if mErr != nil {
			err = fmt.Errorf("marshal metadata for %s: %w", e.ID, mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, col.ID, e.ID, e.Source, e.Index, e.Total, e.Text, vectorLiteral, metaBytes); err != nil {
			err = fmt.Errorf("upsert chunk %s: %w", e.ID, err)
			return err
		}
	}
	return nil
}

// Search returns the k nearest entries by cosine distance, nearest
// first. Ties are broken by chunk id so ordering is deterministic.
func (s *Store) Search(ctx context.Context, col Collection, vector []float32, k int) ([]SearchResult, error) {
	if len(vector) != col.Dimensions {
		return nil, fmt.Errorf("query vector dimension %d does not match collection dimension %d", len(vector), col.Dimensions)
	}
	if k <= 0 {
		k = 3
	}
	vecLiteral, err := encodeVectorLiteral(vector)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT chunk_id, source, body, embedding <=> $1::vector AS distance
FROM chunks
WHERE collection_id = $2
ORDER BY embedding <=> $1::vector, chunk_id
LIMIT $3
`, vecLiteral, col.ID, k)
	if err != nil {
		return nil, fmt.Errorf("search collection %q: %w", col.Name, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChunkID, &r.Source, &r.Text, &r.Distance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetChunk reads one stored entry back, vector included. Used by
// operators to inspect what a chunk id actually holds.
func (s *Store) GetChunk(ctx context.Context, col Collection, chunkID string) (Entry, error) {
	var e Entry
	var vecLiteral string
	err := s.DB.QueryRowContext(ctx, `
SELECT chunk_id, source, chunk_index, total_chunks, body, embedding::text
FROM chunks
WHERE collection_id = $1 AND chunk_id = $2
`, col.ID, chunkID).Scan(&e.ID, &e.Source, &e.Index, &e.Total, &e.Text, &vecLiteral)
	if err == sql.ErrNoRows {
		return Entry{}, fmt.Errorf("chunk %q not found in collection %q", chunkID, col.Name)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get chunk %q: %w", chunkID, err)
	}
	e.Vector, err = decodeVectorLiteral(vecLiteral)
	if err != nil {
		return Entry{}, fmt.Errorf("chunk %q: %w", chunkID, err)
	}
	return e, nil
}

// Count reports how many chunks a collection holds.
func (s *Store) Count(ctx context.Context, col Collection) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection_id = $1`, col.ID).Scan(&n)
	return n, err
}

// DeleteSource removes every chunk of one source document from the
// collection. Used when a re-ingested document now yields fewer chunks
// than its stored predecessor, so no stale tail entries survive.
func (s *Store) DeleteSource(ctx context.Context, col Collection, sourceID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chunks WHERE collection_id = $1 AND source = $2`, col.ID, sourceID)
	if err != nil {
		return 0, fmt.Errorf("delete source %q: %w", sourceID, err)
	}
	return res.RowsAffected()
}

// DeleteSourceTail removes a source's chunks with ordinal >= from.
// After a re-ingested document shrinks, entries past the new chunk
// count are stale and would surface as phantom retrieval hits.
func (s *Store) DeleteSourceTail(ctx context.Context, col Collection, sourceID string, from int) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
DELETE FROM chunks WHERE collection_id = $1 AND source = $2 AND chunk_index >= $3
`, col.ID, sourceID, from)
	if err != nil {
		return 0, fmt.Errorf("delete tail of source %q: %w", sourceID, err)
	}
	return res.RowsAffected()
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

func decodeVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if lit == "" {
		return nil, fmt.Errorf("empty vector literal")
	}
	lit = strings.TrimPrefix(lit, "[")
	lit = strings.TrimSuffix(lit, "]")
	parts := strings.Split(lit, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector value %q: %w", value, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}
