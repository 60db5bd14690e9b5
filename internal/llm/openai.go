package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	DefaultOpenAIModel   = "gpt-5.2"
	DefaultOpenAITimeout = 60 * time.Second

	// regionBlockedIndicator is the error code the hosted API returns for
	// unsupported countries, regions and territories.
	regionBlockedIndicator = "unsupported_country_region_territory"
)

type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint when set.
	BaseURL string
}

// OpenAIProvider calls OpenAI's Responses API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider builds a new hosted provider instance.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is empty")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultOpenAITimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: openai.ChatModel(p.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		if isRegionBlocked(err) {
			return "", fmt.Errorf("%w: %w", ErrRegionBlocked, err)
		}

		return "", fmt.Errorf("do request: %w", err)
	}

	if resp.Status == "incomplete" {
		return "", fmt.Errorf("response is incomplete (reason = %s)", resp.IncompleteDetails.Reason)
	}

	return strings.TrimSpace(resp.OutputText()), nil
}

func isRegionBlocked(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.Code == regionBlockedIndicator {
		return true
	}

	return strings.Contains(err.Error(), regionBlockedIndicator)
}
