package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai_provider "github.com/benoitv-dev/climafact/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

// GenerateOptions bound a single completion call.
type GenerateOptions = openai_provider.GenerateOptions

// Provider is the interface the ingestion pipeline and the grounding
// orchestrator depend on: an opaque text generator plus an embedding
// function.
type Provider interface {
	// Generate produces a completion for prompt with bounded output
	// length and the given sampling settings.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	// Embed converts texts into fixed-dimension vectors, same order and
	// same length as the input.
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// NewProvider creates an LLM client based on the provided configuration.
func NewProvider(client Client, apiKey, baseURL, model string, timeout time.Duration) (Provider, error) {
	switch client {
	case OpenAI:
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewClient(apiKey, baseURL, model, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", client)
	}
}
