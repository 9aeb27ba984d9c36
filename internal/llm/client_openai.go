package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/sizzlebop/CLIche/internal/logging"
)

// OpenAICompatClient implements Client over the chat-completions dialect
// shared by OpenAI, DeepSeek, OpenRouter, and Ollama.
type OpenAICompatClient struct {
	provider string
	model    string
	client   *openai.Client
	pacer    *rate.Limiter
}

// OpenAICompatConfig holds configuration for a chat-completions provider.
type OpenAICompatConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// DefaultOpenAIConfig returns defaults for api.openai.com.
func DefaultOpenAIConfig(apiKey string) OpenAICompatConfig {
	return OpenAICompatConfig{
		Provider: "openai",
		APIKey:   apiKey,
		Model:    "gpt-4o",
		Timeout:  120 * time.Second,
	}
}

// DefaultDeepSeekConfig returns defaults for the DeepSeek API.
func DefaultDeepSeekConfig(apiKey string) OpenAICompatConfig {
	return OpenAICompatConfig{
		Provider: "deepseek",
		APIKey:   apiKey,
		BaseURL:  "https://api.deepseek.com/v1",
		Model:    "deepseek-chat",
		Timeout:  120 * time.Second,
	}
}

// DefaultOpenRouterConfig returns defaults for OpenRouter.
func DefaultOpenRouterConfig(apiKey string) OpenAICompatConfig {
	return OpenAICompatConfig{
		Provider: "openrouter",
		APIKey:   apiKey,
		BaseURL:  "https://openrouter.ai/api/v1",
		Model:    "openai/gpt-4o-mini",
		Timeout:  120 * time.Second,
	}
}

// DefaultOllamaConfig returns defaults for a local Ollama daemon. Ollama
// exposes the same chat-completions surface and ignores the API key.
func DefaultOllamaConfig(baseURL string) OpenAICompatConfig {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return OpenAICompatConfig{
		Provider: "ollama",
		APIKey:   "ollama",
		BaseURL:  strings.TrimRight(baseURL, "/") + "/v1",
		Model:    "llama3.2",
		Timeout:  300 * time.Second,
	}
}

// NewOpenAICompatClient creates a client for any chat-completions provider.
func NewOpenAICompatClient(cfg OpenAICompatConfig) *OpenAICompatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAICompatClient{
		provider: cfg.Provider,
		model:    cfg.Model,
		client:   openai.NewClientWithConfig(clientCfg),
		pacer:    newPacer(200 * time.Millisecond),
	}
}

// Complete sends a prompt and returns the completion.
func (c *OpenAICompatClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAICompatClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	return withRetry(ctx, c.provider, func() (string, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return "", err
		}
		start := time.Now()

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		})
		if err != nil {
			return "", c.wrapErr(err)
		}
		if len(resp.Choices) == 0 {
			return "", &ProviderError{Provider: c.provider, Err: errors.New("no completion returned")}
		}
		out := strings.TrimSpace(resp.Choices[0].Message.Content)
		logging.Provider("%s: completed in %v model=%s response_len=%d", c.provider, time.Since(start), c.model, len(out))
		return out, nil
	})
}

func (c *OpenAICompatClient) wrapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: c.provider, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	// Transport-level failures are worth a retry.
	return &ProviderError{Provider: c.provider, StatusCode: 500, Err: err}
}

// Model returns the current model.
func (c *OpenAICompatClient) Model() string { return c.model }

// SetModel changes the model used for completions.
func (c *OpenAICompatClient) SetModel(model string) { c.model = model }
