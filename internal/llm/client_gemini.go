package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sizzlebop/CLIche/internal/logging"
)

// GeminiClient implements Client for the Google Gemini API via the genai SDK.
type GeminiClient struct {
	apiKey string
	model  string
	pacer  *rate.Limiter

	mu     sync.Mutex
	client *genai.Client
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey: apiKey,
		Model:  "gemini-2.0-flash",
	}
}

// NewGeminiClient creates a Gemini client with default config.
func NewGeminiClient(apiKey string) *GeminiClient {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a Gemini client with custom config.
func NewGeminiClientWithConfig(cfg GeminiConfig) *GeminiClient {
	return &GeminiClient{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		pacer:  newPacer(200 * time.Millisecond),
	}
}

// ensureClient creates the SDK client on first use; the SDK constructor
// needs a context so it cannot run in the factory.
func (c *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ProviderError{Provider: "google", Err: fmt.Errorf("create client: %w", err)}
	}
	c.client = client
	return client, nil
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", &ProviderError{Provider: "google", Err: fmt.Errorf("API key not configured")}
	}
	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(defaultTemperature)),
		MaxOutputTokens: defaultMaxTokens,
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	return withRetry(ctx, "google", func() (string, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return "", err
		}
		start := time.Now()

		resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), cfg)
		if err != nil {
			return "", classifyGeminiErr(err)
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", &ProviderError{Provider: "google", Err: fmt.Errorf("no completion returned")}
		}
		logging.Provider("google: completed in %v model=%s response_len=%d", time.Since(start), c.model, len(text))
		return text, nil
	})
}

func classifyGeminiErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "google", StatusCode: apiErr.Code, Err: err}
	}
	return &ProviderError{Provider: "google", StatusCode: 500, Err: err}
}

// Model returns the current model.
func (c *GeminiClient) Model() string { return c.model }

// SetModel changes the model used for completions.
func (c *GeminiClient) SetModel(model string) { c.model = model }
