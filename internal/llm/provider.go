package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	OpenAI = "openai"
	Ollama = "ollama"
)

// ErrRegionBlocked is returned when the hosted service refuses to serve the
// caller's network region.
var ErrRegionBlocked = errors.New("provider blocked by region")

// Provider produces raw model text for a prompt.
type Provider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Settings carries the configuration of every provider variant. It is only
// read by Build.
type Settings struct {
	OpenAI OpenAIConfig
	Ollama OllamaConfig
	// Schema is an optional JSON schema passed to the local provider.
	Schema []byte
}

// Build returns the provider registered under name.
func Build(name string, s Settings) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case OpenAI:
		return NewOpenAIProvider(s.OpenAI)
	case Ollama:
		return NewOllamaProvider(s.Ollama, s.Schema)
	default:
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
}
