// Package ingest runs the build-time pipeline: raw sources are
// extracted, normalized, segmented, embedded in batches and upserted
// into a vector store collection under a single-writer lock.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// OriginKind classifies where a document came from.
type OriginKind string

const (
	OriginWeb  OriginKind = "web"
	OriginPDF  OriginKind = "pdf"
	OriginFile OriginKind = "file"
)

// Document is one ingested unit of text. Immutable after extraction;
// the pipeline only ever reads it.
type Document struct {
	SourceID   string
	RawText    string
	OriginKind OriginKind
	OriginRef  string
}

// ErrNoUsableText signals that a source was reachable but carried no
// extractable text. Distinct from an extraction failure and from an
// empty string produced by normalization.
var ErrNoUsableText = errors.New("no usable text in source")

// Extractor turns an opaque source reference into a Document.
type Extractor interface {
	// Extract fetches and parses ref. It returns ErrNoUsableText
	// (possibly wrapped) when the source parsed cleanly but contained
	// nothing to index.
	Extract(ctx context.Context, ref string) (Document, error)
}

var sourceIDUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SourceIDFromRef derives a stable source identifier from a file path
// or URL: the base name without extension, with unsafe characters
// replaced. Two refs mapping to the same identifier are caught by the
// identity assigner's collision check.
func SourceIDFromRef(ref string) string {
	base := filepath.Base(strings.TrimRight(ref, "/"))
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = sourceIDUnsafe.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "source"
	}
	return base
}

// FileExtractor reads plain-text files produced by earlier scraping
// runs. Files may start with a "Source:" / "URL:" / "Titre:" preamble
// followed by a ==== divider; the preamble is stripped so only article
// text reaches the normalizer.
type FileExtractor struct{}

var fileDivider = regexp.MustCompile(`(?m)^={10,}\s*$`)

// Extract implements Extractor for local .txt files.
func (FileExtractor) Extract(_ context.Context, ref string) (Document, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", ref, err)
	}
	text := string(data)
	if loc := fileDivider.FindStringIndex(text); loc != nil {
		text = text[loc[1]:]
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("%s: %w", ref, ErrNoUsableText)
	}
	return Document{
		SourceID:   SourceIDFromRef(ref),
		RawText:    text,
		OriginKind: OriginFile,
		OriginRef:  ref,
	}, nil
}
