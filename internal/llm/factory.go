package llm

import (
	"fmt"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/logging"
)

// NewClientFromConfig builds the Client for the active provider resolved from
// cfg (config file first, then environment variables).
func NewClientFromConfig(cfg *config.Config) (Client, error) {
	provider, settings, err := cfg.ActiveProviderSettings()
	if err != nil {
		return nil, err
	}
	return NewClient(provider, settings)
}

// NewClient builds a provider adapter from resolved settings.
func NewClient(provider config.Provider, settings config.ProviderSettings) (Client, error) {
	logging.Provider("creating client provider=%s model=%s", provider, settings.Model)

	switch provider {
	case config.ProviderAnthropic:
		c := DefaultAnthropicConfig(settings.APIKey)
		if settings.BaseURL != "" {
			c.BaseURL = settings.BaseURL
		}
		client := NewAnthropicClientWithConfig(c)
		if settings.Model != "" {
			client.SetModel(settings.Model)
		}
		return client, nil

	case config.ProviderGoogle:
		client := NewGeminiClient(settings.APIKey)
		if settings.Model != "" {
			client.SetModel(settings.Model)
		}
		return client, nil

	case config.ProviderOpenAI:
		c := DefaultOpenAIConfig(settings.APIKey)
		if settings.BaseURL != "" {
			c.BaseURL = settings.BaseURL
		}
		return newCompat(c, settings.Model), nil

	case config.ProviderDeepSeek:
		c := DefaultDeepSeekConfig(settings.APIKey)
		if settings.BaseURL != "" {
			c.BaseURL = settings.BaseURL
		}
		return newCompat(c, settings.Model), nil

	case config.ProviderOpenRouter:
		c := DefaultOpenRouterConfig(settings.APIKey)
		if settings.BaseURL != "" {
			c.BaseURL = settings.BaseURL
		}
		return newCompat(c, settings.Model), nil

	case config.ProviderOllama:
		c := DefaultOllamaConfig(settings.BaseURL)
		return newCompat(c, settings.Model), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func newCompat(c OpenAICompatConfig, model string) *OpenAICompatClient {
	client := NewOpenAICompatClient(c)
	if model != "" {
		client.SetModel(model)
	}
	return client
}
