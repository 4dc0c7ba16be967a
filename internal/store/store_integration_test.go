package store_test

import (
	"context"
	"fmt"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/benoitv-dev/climafact/internal/store"
)

func startPgvector(t *testing.T, ctx context.Context) string {
	t.Helper()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("climafact"),
		tcPostgres.WithUsername("climafact"),
		tcPostgres.WithPassword("climafact"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://climafact:climafact@%s:%s/climafact?sslmode=disable", host, port.Port())
	if err := store.Migrate("file://../../migrations", dsn, "up", 0); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return dsn
}

func vec(dims int, seed float32) []float32 {
	v := make([]float32, dims)
	v[0] = seed
	for i := 1; i < dims; i++ {
		v[i] = 0.01
	}
	return v
}

func TestStoreVectorLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dsn := startPgvector(t, ctx)

	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer st.Close()

	col, err := st.EnsureCollection(ctx, "climate_facts_chunks", "test-embed", 3)
	if err != nil {
		t.Fatalf("ensure collection: %v", err)
	}

	// EnsureCollection is idempotent for matching parameters.
	again, err := st.EnsureCollection(ctx, "climate_facts_chunks", "test-embed", 3)
	if err != nil {
		t.Fatalf("re-ensure collection: %v", err)
	}
	if again.ID != col.ID {
		t.Fatalf("collection id changed on re-ensure: %d vs %d", again.ID, col.ID)
	}

	// A differing embedding model must be rejected.
	if _, err := st.EnsureCollection(ctx, "climate_facts_chunks", "other-embed", 3); err == nil {
		t.Fatal("expected model mismatch error")
	}
	if _, err := st.EnsureCollection(ctx, "climate_facts_chunks", "test-embed", 8); err == nil {
		t.Fatal("expected dimension mismatch error")
	}

	entries := []store.Entry{
		{ID: "spm_0", Source: "spm", Index: 0, Total: 2, Text: "Warming is observed.", Vector: vec(3, 1.0)},
		{ID: "spm_1", Source: "spm", Index: 1, Total: 2, Text: "Sea level is rising.", Vector: vec(3, -1.0)},
	}
	if err := st.UpsertChunks(ctx, col, entries); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	n, err := st.Count(ctx, col)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	// Re-upserting the same ids replaces rows instead of duplicating.
	entries[0].Text = "Warming is unequivocal."
	if err := st.UpsertChunks(ctx, col, entries); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	n, _ = st.Count(ctx, col)
	if n != 2 {
		t.Fatalf("count after re-upsert = %d, want 2", n)
	}

	// Nearest neighbor ordering: the query equals spm_0's vector, so it
	// must come back first at (near) zero distance.
	results, err := st.Search(ctx, col, vec(3, 1.0), 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkID != "spm_0" {
		t.Fatalf("nearest = %s, want spm_0", results[0].ChunkID)
	}
	if results[0].Distance > 1e-6 {
		t.Fatalf("identical vector distance = %v, want ~0", results[0].Distance)
	}
	if results[0].Text != "Warming is unequivocal." {
		t.Fatalf("replaced text not returned: %q", results[0].Text)
	}
	if results[1].Distance < results[0].Distance {
		t.Fatal("results not ordered by ascending distance")
	}

	// Stored vectors read back exactly.
	entry, err := st.GetChunk(ctx, col, "spm_1")
	if err != nil {
		t.Fatalf("get chunk: %v", err)
	}
	if entry.Text != "Sea level is rising." || len(entry.Vector) != 3 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Vector[0] != -1.0 {
		t.Fatalf("vector round trip: %v", entry.Vector)
	}

	// Dimension guard on write and query.
	bad := []store.Entry{{ID: "bad_0", Source: "bad", Text: "x", Vector: vec(5, 1.0)}}
	if err := st.UpsertChunks(ctx, col, bad); err == nil {
		t.Fatal("expected dimension error on upsert")
	}
	if _, err := st.Search(ctx, col, vec(5, 1.0), 2); err == nil {
		t.Fatal("expected dimension error on search")
	}

	// DeleteSource removes every chunk of the document.
	deleted, err := st.DeleteSource(ctx, col, "spm")
	if err != nil {
		t.Fatalf("delete source: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	n, _ = st.Count(ctx, col)
	if n != 0 {
		t.Fatalf("count after delete = %d, want 0", n)
	}
}
