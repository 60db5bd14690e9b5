package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderSendsSchemaAndTrimsResponse(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "  {\"Title\":\"T\"}  ", "done": true}`))
	}))
	defer srv.Close()

	schema := []byte(`{"type":"object"}`)
	p, err := NewOllamaProvider(OllamaConfig{Host: srv.URL + "/", Model: "m", Timeout: time.Second}, schema)
	require.NoError(t, err)

	text, err := p.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, `{"Title":"T"}`, text)
	assert.Equal(t, "m", got["model"])
	assert.Equal(t, "prompt", got["prompt"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, map[string]any{"type": "object"}, got["format"])
	assert.Equal(t, map[string]any{"temperature": float64(0)}, got["options"])
}

func TestOllamaProviderWithoutSchemaOmitsFormat(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"done": true}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(OllamaConfig{Host: srv.URL}, nil)
	require.NoError(t, err)

	text, err := p.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Empty(t, text)
	assert.NotContains(t, got, "format")
	assert.NotContains(t, got, "options")
	assert.Equal(t, DefaultOllamaModel, got["model"])
}

func TestOllamaProviderFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantMsg: "unexpected status: 500"},
		{name: "malformed reply", status: http.StatusOK, body: "not json", wantMsg: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewOllamaProvider(OllamaConfig{Host: srv.URL}, nil)
			require.NoError(t, err)

			_, err = p.GenerateText(context.Background(), "prompt")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.NotErrorIs(t, err, ErrRegionBlocked)
		})
	}
}

func TestOllamaProviderRejectsInvalidSchema(t *testing.T) {
	_, err := NewOllamaProvider(OllamaConfig{}, []byte("{"))
	require.Error(t, err)
}

func TestOpenAIProviderRegionBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"unsupported_country_region_territory",` +
			`"message":"Country, region, or territory not supported","param":null,"type":"request_forbidden"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "key", BaseURL: srv.URL + "/v1/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = p.GenerateText(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegionBlocked)
}

func TestOpenAIProviderGenericFailureIsNotRegionBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"invalid_request","message":"bad","param":null,"type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "key", BaseURL: srv.URL + "/v1/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = p.GenerateText(context.Background(), "prompt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRegionBlocked)
}

func TestOpenAIProviderReturnsTrimmedOutputText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "resp_1",
			"object": "response",
			"created_at": 1700000000,
			"status": "completed",
			"model": "gpt-5.2",
			"output": [{
				"type": "message",
				"id": "msg_1",
				"role": "assistant",
				"status": "completed",
				"content": [{"type": "output_text", "text": "  hello  ", "annotations": []}]
			}]
		}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "key", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	text, err := p.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{APIKey: "  "})
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	p, err := Build(" Ollama ", Settings{})
	require.NoError(t, err)
	assert.IsType(t, &OllamaProvider{}, p)

	p, err = Build(OpenAI, Settings{OpenAI: OpenAIConfig{APIKey: "key"}})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIProvider{}, p)

	_, err = Build("anthropic", Settings{})
	require.Error(t, err)
}

type countingProvider struct {
	calls int
	text  string
	err   error
}

func (p *countingProvider) GenerateText(_ context.Context, _ string) (string, error) {
	p.calls++

	return p.text, p.err
}

func TestCachingProviderMemoizesPrompts(t *testing.T) {
	next := &countingProvider{text: "answer"}
	cache := NewResponseCache(8, time.Hour)
	p := WithCache(next, OpenAI, cache)

	for range 3 {
		text, err := p.GenerateText(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "answer", text)
	}

	_, err := p.GenerateText(context.Background(), "other prompt")
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 2, cache.Len())
}

func TestCachingProviderSkipsErrorsAndEmptyOutput(t *testing.T) {
	next := &countingProvider{err: errors.New("boom")}
	cache := NewResponseCache(8, time.Hour)
	p := WithCache(next, Ollama, cache)

	_, err := p.GenerateText(context.Background(), "prompt")
	require.Error(t, err)

	next.err = nil
	next.text = "   "
	_, err = p.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 0, cache.Len())
}

func TestWithCacheNilCacheReturnsProvider(t *testing.T) {
	next := &countingProvider{}
	assert.Same(t, next, WithCache(next, OpenAI, nil))
}
