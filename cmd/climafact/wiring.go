package main

import (
	"log"

	"github.com/benoitv-dev/climafact/config"
	"github.com/benoitv-dev/climafact/internal/ground"
	"github.com/benoitv-dev/climafact/internal/lexical"
	"github.com/benoitv-dev/climafact/internal/store"
	"github.com/benoitv-dev/climafact/provider"
)

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	return provider.NewProvider(provider.OpenAI, cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
}

// lexicalFallback bridges the keyword index into the checker's
// degraded-mode retrieval interface.
type lexicalFallback struct {
	idx *lexical.Index
}

func (l lexicalFallback) Search(query string, k int) ([]ground.Evidence, error) {
	hits, err := l.idx.Search(query, k)
	if err != nil {
		return nil, err
	}
	out := make([]ground.Evidence, 0, len(hits))
	for _, h := range hits {
		out = append(out, ground.Evidence{
			ChunkID: h.ChunkID,
			Source:  h.Source,
			Text:    h.Text,
			Lexical: true,
		})
	}
	return out, nil
}

// openLexical returns the keyword index when enabled, nil otherwise.
func openLexical(cfg *config.Config, logger *log.Logger) *lexical.Index {
	if !cfg.Lexical.Enabled {
		return nil
	}
	idx, err := lexical.Open(cfg.Lexical.Path)
	if err != nil {
		logger.Printf("keyword index unavailable, continuing without it: %v", err)
		return nil
	}
	return idx
}

func buildChecker(cfg *config.Config, prov provider.Provider, st *store.Store, idx *lexical.Index) *ground.Checker {
	opts := ground.Options{
		TopK:            cfg.Retrieval.TopK,
		MaxTokens:       cfg.Retrieval.MaxAnswerTokens,
		Temperature:     cfg.Retrieval.Temperature,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
	}
	if idx != nil {
		opts.Lexical = lexicalFallback{idx: idx}
	}
	return ground.NewChecker(prov, st, cfg.Storage.Collection, opts)
}
