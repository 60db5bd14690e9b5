package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"newsdigest/internal/llm"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"`

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIModel   string        `env:"OPENAI_MODEL"    envDefault:"gpt-5.2"`
	OpenAITimeout time.Duration `env:"OPENAI_TIMEOUT"  envDefault:"60s"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`

	OllamaHost     string `env:"OLLAMA_HOST"      envDefault:"http://localhost:11434"`
	OllamaModel    string `env:"OLLAMA_MODEL"     envDefault:"llama3.2"`
	OllamaTimeoutS int    `env:"OLLAMA_TIMEOUT_S" envDefault:"180"`

	RSSURL      string `env:"GOOGLE_NEWS_RSS"`
	NewsCountry string `env:"NEWS_COUNTRY"`
	NewsLang    string `env:"NEWS_LANG"`
	GeoIPURL    string `env:"GEOIP_URL" envDefault:"https://ipwho.is/"`

	DBPath string `env:"DB_PATH" envDefault:"out/newsdigest.sqlite"`

	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":2112"`
}

// Load reads an optional .env file and then the process environment.
func Load(dotenvPaths ...string) (Config, error) {
	if err := godotenv.Load(dotenvPaths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Parse(env.Options{})
}

// Parse reads the configuration from the environment described by opts.
func Parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()

	return cfg, nil
}

func (c *Config) normalize() {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.OpenAIModel = strings.TrimSpace(c.OpenAIModel)
	c.OllamaHost = strings.TrimSpace(c.OllamaHost)
	c.OllamaModel = strings.TrimSpace(c.OllamaModel)
	c.RSSURL = strings.TrimSpace(c.RSSURL)
	c.NewsCountry = strings.ToUpper(strings.TrimSpace(c.NewsCountry))
	c.NewsLang = strings.TrimSpace(c.NewsLang)
	c.GeoIPURL = strings.TrimSpace(c.GeoIPURL)
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
}

// SetProvider overrides the primary provider, e.g. from a CLI flag.
func (c *Config) SetProvider(name string) {
	if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
		c.LLMProvider = name
	}
}

func (c Config) OllamaTimeout() time.Duration {
	return time.Duration(c.OllamaTimeoutS) * time.Second
}

// LLMSettings returns the provider settings; schema is the optional
// structured output hint for the local provider.
func (c Config) LLMSettings(schema []byte) llm.Settings {
	return llm.Settings{
		OpenAI: llm.OpenAIConfig{
			APIKey:  c.OpenAIAPIKey,
			Model:   c.OpenAIModel,
			Timeout: c.OpenAITimeout,
			BaseURL: c.OpenAIBaseURL,
		},
		Ollama: llm.OllamaConfig{
			Host:    c.OllamaHost,
			Model:   c.OllamaModel,
			Timeout: c.OllamaTimeout(),
		},
		Schema: schema,
	}
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Validate reports configuration errors that must stop the program before
// any network activity.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case llm.OpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("missing OPENAI_API_KEY for OpenAI provider")
		}
	case llm.Ollama:
	default:
		return fmt.Errorf("unknown provider: %q", c.LLMProvider)
	}

	if c.OllamaTimeoutS <= 0 {
		return fmt.Errorf("OLLAMA_TIMEOUT_S must be positive, got %d", c.OllamaTimeoutS)
	}

	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return errors.New("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	return nil
}
