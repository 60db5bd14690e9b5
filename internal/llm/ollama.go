package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaHost    = "http://localhost:11434"
	DefaultOllamaModel   = "llama3.2"
	DefaultOllamaTimeout = 180 * time.Second

	ollamaGeneratePath = "/api/generate"
	maxErrorBodyBytes  = 512
)

type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// OllamaProvider calls a local Ollama server.
type OllamaProvider struct {
	endpoint string
	model    string
	schema   json.RawMessage
	client   *http.Client
}

type ollamaRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  json.RawMessage `json:"format,omitempty"`
	Options *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaProvider builds a local provider. A non-empty schema is sent as the
// structured output format and switches decoding to temperature 0.
func NewOllamaProvider(cfg OllamaConfig, schema []byte) (*OllamaProvider, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = DefaultOllamaHost
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultOllamaModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultOllamaTimeout
	}

	var format json.RawMessage
	if len(bytes.TrimSpace(schema)) > 0 {
		if !json.Valid(schema) {
			return nil, errors.New("schema is not valid JSON")
		}
		format = json.RawMessage(schema)
	}

	return &OllamaProvider{
		endpoint: strings.TrimRight(host, "/") + ollamaGeneratePath,
		model:    model,
		schema:   format,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (p *OllamaProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	payload := ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	}
	if p.schema != nil {
		payload.Format = p.schema
		payload.Options = &ollamaOptions{Temperature: 0}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("do request: unexpected status: %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out ollamaResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return strings.TrimSpace(out.Response), nil
}
