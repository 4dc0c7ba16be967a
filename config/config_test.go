package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ingest.ChunkSize != 1000 || cfg.Ingest.ChunkOverlap != 150 {
		t.Fatalf("chunk defaults = %d/%d, want 1000/150", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Embedding.BatchSize != 32 {
		t.Fatalf("batch size = %d, want 32", cfg.Embedding.BatchSize)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Fatalf("top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Storage.Collection != "climate_facts_chunks" {
		t.Fatalf("collection = %q", cfg.Storage.Collection)
	}
	if len(cfg.Ingest.Separators) == 0 || cfg.Ingest.Separators[0] != "\n\n" {
		t.Fatalf("separators = %v", cfg.Ingest.Separators)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.MetricsPort != 0 {
		t.Fatalf("telemetry defaults = %+v, want enabled on the API listener", cfg.Telemetry)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "ingest:\n  chunk_size: 500\n  chunk_overlap: 50\nretrieval:\n  top_k: 5\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ingest.ChunkSize != 500 || cfg.Ingest.ChunkOverlap != 50 {
		t.Fatalf("chunk settings = %d/%d, want 500/50", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Fatalf("top_k = %d, want 5", cfg.Retrieval.TopK)
	}
	// Untouched sections keep their defaults.
	if cfg.Embedding.Model == "" {
		t.Fatal("embedding model default missing")
	}
}

func TestIngestValidate(t *testing.T) {
	bad := []IngestConfig{
		{ChunkSize: 0, ChunkOverlap: 0},
		{ChunkSize: 100, ChunkOverlap: -1},
		{ChunkSize: 100, ChunkOverlap: 100},
		{ChunkSize: 100, ChunkOverlap: 150},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("Validate(%+v) accepted invalid config", c)
		}
	}
	good := IngestConfig{ChunkSize: 1000, ChunkOverlap: 150}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate(%+v): %v", good, err)
	}
}

func TestEmbeddingValidate(t *testing.T) {
	if err := (EmbeddingConfig{Model: "", Dimensions: 3}).Validate(); err == nil {
		t.Fatal("empty model accepted")
	}
	if err := (EmbeddingConfig{Model: "m", Dimensions: 0}).Validate(); err == nil {
		t.Fatal("zero dimensions accepted")
	}
	if err := (EmbeddingConfig{Model: "m", Dimensions: 1536}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "localhost", User: "u", Password: "p", DBName: "climafact"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	want := "postgres://u:p@localhost:5432/climafact?sslmode=disable"
	if dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}

	p.URL = "postgres://explicit"
	dsn, _ = p.DSN()
	if dsn != "postgres://explicit" {
		t.Fatalf("explicit url not preferred: %q", dsn)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatal("unconfigured postgres accepted")
	}
}
