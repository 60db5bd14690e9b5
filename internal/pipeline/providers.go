package pipeline

import (
	"newsdigest/internal/llm"
)

// NewProviderFactory builds providers from s. When cache is not nil every
// provider memoizes its responses in it.
func NewProviderFactory(s llm.Settings, cache *llm.ResponseCache) ProviderFactory {
	return func(name string) (llm.Provider, error) {
		p, err := llm.Build(name, s)
		if err != nil {
			return nil, err
		}

		return llm.WithCache(p, name, cache), nil
	}
}
