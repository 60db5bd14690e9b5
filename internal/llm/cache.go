package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheMaxEntries = 1024
	DefaultCacheTTL        = 24 * time.Hour
)

// ResponseCache memoizes model output by provider and prompt. It is shared by
// the providers built for consecutive scheduled runs.
type ResponseCache struct {
	entries *expirable.LRU[string, string]
}

func NewResponseCache(maxEntries int, ttl time.Duration) *ResponseCache {
	if maxEntries <= 0 {
		return nil
	}

	return &ResponseCache{
		entries: expirable.NewLRU[string, string](maxEntries, nil, ttl),
	}
}

func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}

	return c.entries.Len()
}

// CachingProvider answers repeated prompts from a ResponseCache. Errors and
// empty output are never cached.
type CachingProvider struct {
	next  Provider
	name  string
	cache *ResponseCache
}

// WithCache wraps p. A nil cache returns p unchanged.
func WithCache(p Provider, name string, cache *ResponseCache) Provider {
	if cache == nil {
		return p
	}

	return &CachingProvider{next: p, name: name, cache: cache}
}

func (p *CachingProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	key := responseCacheKey(p.name, prompt)
	if text, ok := p.cache.entries.Get(key); ok {
		return text, nil
	}

	text, err := p.next.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) != "" {
		p.cache.entries.Add(key, text)
	}

	return text, nil
}

func responseCacheKey(name string, prompt string) string {
	hash := sha256.Sum256([]byte(prompt))

	return strings.ToLower(strings.TrimSpace(name)) + "|" + hex.EncodeToString(hash[:])
}
