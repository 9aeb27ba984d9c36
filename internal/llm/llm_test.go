package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Disable()
	os.Exit(m.Run())
}

func TestProviderErrorRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{401, false},
		{400, false},
		{404, false},
		{0, false},
	}
	for _, tc := range cases {
		pe := &ProviderError{Provider: "test", StatusCode: tc.status, Err: errors.New("x")}
		assert.Equal(t, tc.want, pe.Retryable(), "status %d", tc.status)
	}
}

func TestIsRetryableUnwraps(t *testing.T) {
	inner := &ProviderError{Provider: "test", StatusCode: 429, Err: errors.New("slow down")}
	wrapped := fmt.Errorf("call failed: %w", inner)
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), "test", func() (string, error) {
		calls++
		return "", &ProviderError{Provider: "test", StatusCode: 401, Err: errors.New("bad key")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures must not be retried")
}

func TestWithRetrySucceedsImmediately(t *testing.T) {
	out, err := withRetry(context.Background(), "test", func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		// Cancel while the first backoff sleep is pending.
		cancel()
	}()
	_, err := withRetry(ctx, "test", func() (string, error) {
		calls++
		return "", &ProviderError{Provider: "test", StatusCode: 429, Err: errors.New("limited")}
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 2)
}

func TestNewClientPerProvider(t *testing.T) {
	cases := []struct {
		provider config.Provider
		model    string
	}{
		{config.ProviderAnthropic, "claude-sonnet-4-20250514"},
		{config.ProviderOpenAI, "gpt-4o"},
		{config.ProviderGoogle, "gemini-2.0-flash"},
		{config.ProviderDeepSeek, "deepseek-chat"},
		{config.ProviderOpenRouter, "openai/gpt-4o-mini"},
		{config.ProviderOllama, "llama3.2"},
	}
	for _, tc := range cases {
		client, err := NewClient(tc.provider, config.ProviderSettings{APIKey: "test-key"})
		require.NoError(t, err, tc.provider)
		assert.Equal(t, tc.model, client.Model(), "%s default model", tc.provider)

		client.SetModel("custom-model")
		assert.Equal(t, "custom-model", client.Model(), tc.provider)
	}
}

func TestNewClientModelOverride(t *testing.T) {
	client, err := NewClient(config.ProviderOpenAI, config.ProviderSettings{APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", client.Model())
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(config.Provider("watson"), config.ProviderSettings{})
	assert.Error(t, err)
}

func TestNewClientFromConfigUsesEnv(t *testing.T) {
	for _, v := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY",
		"DEEPSEEK_API_KEY", "OPENROUTER_API_KEY", "OLLAMA_HOST",
	} {
		t.Setenv(v, "")
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	client, err := NewClientFromConfig(config.Default())
	require.NoError(t, err)
	_, ok := client.(*AnthropicClient)
	assert.True(t, ok, "env fallback should pick the anthropic adapter")
}
