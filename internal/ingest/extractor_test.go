package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSourceIDFromRef(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"data/ipcc_ar6_spm.txt", "ipcc_ar6_spm"},
		{"/abs/path/report.pdf", "report"},
		{"https://example.org/articles/climate-myths/", "climate-myths"},
		{"weird name!.txt", "weird_name"},
		{"!!!.txt", "source"},
	}
	for _, tc := range cases {
		if got := SourceIDFromRef(tc.ref); got != tc.want {
			t.Fatalf("SourceIDFromRef(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestFileExtractorStripsPreamble(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "article.txt")
	content := "Source: Example Outlet\nURL: https://example.org/a\n====================\nActual article body about observed warming trends.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := FileExtractor{}.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if doc.SourceID != "article" {
		t.Fatalf("source id = %q, want article", doc.SourceID)
	}
	if strings.Contains(doc.RawText, "Example Outlet") {
		t.Fatalf("preamble survived: %q", doc.RawText)
	}
	if !strings.Contains(doc.RawText, "Actual article body") {
		t.Fatalf("body missing: %q", doc.RawText)
	}
}

func TestFileExtractorNoDivider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("Just plain article text."), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := FileExtractor{}.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if doc.RawText != "Just plain article text." {
		t.Fatalf("raw text = %q", doc.RawText)
	}
}

func TestFileExtractorEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := FileExtractor{}.Extract(context.Background(), path)
	if !errors.Is(err, ErrNoUsableText) {
		t.Fatalf("expected ErrNoUsableText, got %v", err)
	}
}

func TestFileExtractorMissingFile(t *testing.T) {
	_, err := FileExtractor{}.Extract(context.Background(), "does-not-exist.txt")
	if err == nil || errors.Is(err, ErrNoUsableText) {
		t.Fatalf("expected read error, got %v", err)
	}
}
