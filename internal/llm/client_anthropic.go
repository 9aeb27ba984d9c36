package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sizzlebop/CLIche/internal/logging"
)

// AnthropicClient implements Client against the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	pacer      *rate.Limiter
}

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// DefaultAnthropicConfig returns sensible defaults.
func DefaultAnthropicConfig(apiKey string) AnthropicConfig {
	return AnthropicConfig{
		APIKey:    apiKey,
		BaseURL:   "https://api.anthropic.com/v1",
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: defaultMaxTokens,
		Timeout:   120 * time.Second,
	}
}

// NewAnthropicClient creates an Anthropic client with default config.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return NewAnthropicClientWithConfig(DefaultAnthropicConfig(apiKey))
}

// NewAnthropicClientWithConfig creates an Anthropic client with custom config.
func NewAnthropicClientWithConfig(cfg AnthropicConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &AnthropicClient{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		pacer: newPacer(200 * time.Millisecond),
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *AnthropicClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", &ProviderError{Provider: "anthropic", Err: fmt.Errorf("API key not configured")}
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
		Temperature: defaultTemperature,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	return withRetry(ctx, "anthropic", func() (string, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return "", err
		}
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", &ProviderError{Provider: "anthropic", StatusCode: http.StatusInternalServerError, Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &ProviderError{Provider: "anthropic", StatusCode: resp.StatusCode, Err: err}
		}

		if resp.StatusCode != http.StatusOK {
			return "", &ProviderError{
				Provider:   "anthropic",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
			}
		}

		var ar anthropicResponse
		if err := json.Unmarshal(body, &ar); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		if ar.Error != nil {
			return "", &ProviderError{Provider: "anthropic", Err: fmt.Errorf("%s", ar.Error.Message)}
		}
		if len(ar.Content) == 0 {
			return "", &ProviderError{Provider: "anthropic", Err: fmt.Errorf("no completion returned")}
		}

		var result strings.Builder
		for _, content := range ar.Content {
			if content.Type == "text" {
				result.WriteString(content.Text)
			}
		}
		logging.Provider("anthropic: completed in %v model=%s response_len=%d", time.Since(start), c.model, result.Len())
		return strings.TrimSpace(result.String()), nil
	})
}

// Model returns the current model.
func (c *AnthropicClient) Model() string { return c.model }

// SetModel changes the model used for completions.
func (c *AnthropicClient) SetModel(model string) { c.model = model }
