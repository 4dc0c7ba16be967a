// Package ground answers fact-check requests: it retrieves evidence
// chunks for a claim, builds a grounded prompt, and parses the model's
// structured verdict.
package ground

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benoitv-dev/climafact/internal/store"
	"github.com/benoitv-dev/climafact/internal/telemetry"
	"github.com/benoitv-dev/climafact/provider"
)

// Status classifies how a check concluded. Every branch reports one.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusUnparseable      Status = "unparseable"
	StatusGenerationFailed Status = "generation_failed"
)

// DefaultTopK mirrors the retrieval depth the evidence prompt was tuned
// against; more passages dilute the verdict instruction.
const (
	DefaultTopK            = 3
	DefaultMaxTokens       = 300
	DefaultMaxContextChars = 8000
	contextSeparator       = "\n\n---\n\n"
)

// Evidence is one retrieved passage attached to a check result.
type Evidence struct {
	ChunkID  string  `json:"chunk_id"`
	Source   string  `json:"source"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance,omitempty"`
	Lexical  bool    `json:"lexical,omitempty"`
}

// Result is the full outcome of one fact-check.
type Result struct {
	Claim       string     `json:"claim"`
	Status      Status     `json:"status"`
	Outcome     Outcome    `json:"verdict"`
	RawLabel    string     `json:"raw_label,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
	Sources     []Evidence `json:"sources,omitempty"`
	RawAnswer   string     `json:"raw_answer,omitempty"`
}

// Retriever is the vector search surface the checker depends on.
type Retriever interface {
	GetCollection(ctx context.Context, name string) (store.Collection, error)
	Search(ctx context.Context, col store.Collection, vector []float32, k int) ([]store.SearchResult, error)
}

// LexicalSearcher is the degraded-mode keyword fallback, used only when
// the claim cannot be embedded.
type LexicalSearcher interface {
	Search(query string, k int) ([]Evidence, error)
}

// Checker runs the retrieve-then-verify loop for one collection.
type Checker struct {
	prov       provider.Provider
	retriever  Retriever
	lexical    LexicalSearcher
	collection string

	topK            int
	maxTokens       int
	temperature     float64
	maxContextChars int

	logger *log.Logger
}

// Options tune a Checker; zero values take the defaults above.
type Options struct {
	TopK            int
	MaxTokens       int
	Temperature     float64
	MaxContextChars int
	Lexical         LexicalSearcher
	Logger          *log.Logger
}

// NewChecker wires the checker against a provider and vector store.
func NewChecker(prov provider.Provider, retriever Retriever, collection string, opts Options) *Checker {
	c := &Checker{
		prov:            prov,
		retriever:       retriever,
		lexical:         opts.Lexical,
		collection:      collection,
		topK:            opts.TopK,
		maxTokens:       opts.MaxTokens,
		temperature:     opts.Temperature,
		maxContextChars: opts.MaxContextChars,
		logger:          opts.Logger,
	}
	if c.topK <= 0 {
		c.topK = DefaultTopK
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.maxContextChars <= 0 {
		c.maxContextChars = DefaultMaxContextChars
	}
	if c.logger == nil {
		c.logger = log.New(log.Writer(), "[CHECK] ", log.LstdFlags)
	}
	return c
}

// Check assesses a claim against the ingested corpus. It returns an
// error only for infrastructure failures where no meaningful Result
// exists; model-side failures come back as a Result with a non-ok
// Status so callers can always render something.
func (c *Checker) Check(ctx context.Context, claim string) (Result, error) {
	start := time.Now()
	res := Result{Claim: claim, Outcome: OutcomeUnknown}

	claim = strings.TrimSpace(claim)
	if claim == "" {
		return res, fmt.Errorf("empty claim")
	}

	evidence, err := c.retrieve(ctx, claim)
	if err != nil {
		return res, err
	}
	if len(evidence) == 0 {
		// Nothing to ground on: do not ask the model to guess.
		res.Status = StatusInsufficientData
		c.observe(res.Status, start)
		return res, nil
	}
	res.Sources = evidence

	answer, err := c.prov.Generate(ctx, c.buildPrompt(claim, evidence), provider.GenerateOptions{
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Printf("generation failed for claim %q: %v", truncate(claim, 80), err)
		res.Status = StatusGenerationFailed
		c.observe(res.Status, start)
		return res, nil
	}
	res.RawAnswer = answer

	v, ok := ParseVerdict(answer)
	if !ok {
		res.Status = StatusUnparseable
		c.observe(res.Status, start)
		return res, nil
	}
	res.Status = StatusOK
	res.Outcome = v.Outcome
	res.RawLabel = v.RawLabel
	res.Explanation = v.Explanation
	if v.HasConf {
		res.Confidence = v.Confidence
	}
	c.observe(res.Status, start)
	return res, nil
}

// retrieve embeds the claim and does a vector search, falling back to
// the keyword index when embedding itself fails.
func (c *Checker) retrieve(ctx context.Context, claim string) ([]Evidence, error) {
	col, err := c.retriever.GetCollection(ctx, c.collection)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", c.collection, err)
	}

	vecs, err := c.prov.Embed(ctx, col.EmbeddingModel, []string{claim})
	if err == nil && len(vecs) != 1 {
		err = fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	if err != nil {
		if c.lexical == nil {
			return nil, fmt.Errorf("embed claim: %w", err)
		}
		c.logger.Printf("embedding unavailable, using keyword fallback: %v", err)
		hits, lerr := c.lexical.Search(claim, c.topK)
		if lerr != nil {
			return nil, fmt.Errorf("embed claim: %v; keyword fallback: %w", err, lerr)
		}
		return hits, nil
	}

	results, err := c.retriever.Search(ctx, col, vecs[0], c.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	evidence := make([]Evidence, 0, len(results))
	for _, r := range results {
		evidence = append(evidence, Evidence{
			ChunkID:  r.ChunkID,
			Source:   r.Source,
			Text:     r.Text,
			Distance: r.Distance,
		})
	}
	return evidence, nil
}

func (c *Checker) buildPrompt(claim string, evidence []Evidence) string {
	var parts []string
	used := 0
	for _, e := range evidence {
		if used+len(e.Text) > c.maxContextChars && len(parts) > 0 {
			break
		}
		parts = append(parts, e.Text)
		used += len(e.Text)
	}
	joined := strings.Join(parts, contextSeparator)
	if len(joined) > c.maxContextChars {
		cut := c.maxContextChars
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut]
	}

	var b strings.Builder
	b.WriteString("You are a climate fact-checking assistant. Assess the claim strictly against the context passages below. Do not use outside knowledge.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(joined)
	b.WriteString("\n\nClaim: ")
	b.WriteString(claim)
	b.WriteString("\n\nRespond in exactly this format:\n")
	b.WriteString("VERDICT: [True/False/Unknown]\n")
	b.WriteString("CONFIDENCE: [0.0-1.0]\n")
	b.WriteString("EXPLANATION: [one or two sentences citing the context]\n")
	b.WriteString("SOURCES: [which passages support the verdict]\n")
	return b.String()
}

func (c *Checker) observe(status Status, start time.Time) {
	telemetry.Checks.WithLabelValues(string(status)).Inc()
	telemetry.CheckDuration.Observe(time.Since(start).Seconds())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
