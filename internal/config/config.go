// Package config handles loading, saving, and resolving cliche configuration.
// Config lives at ~/.cliche/config.yaml; environment variables act as a
// fallback when the file has no usable provider entry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies a hosted LLM backend.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGoogle     Provider = "google"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderOpenRouter Provider = "openrouter"
	ProviderOllama     Provider = "ollama"
)

// ProviderSettings holds per-provider credentials and model selection.
type ProviderSettings struct {
	APIKey  string `yaml:"api_key,omitempty"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ServiceSettings holds credentials for non-LLM services (Unsplash, Brave).
type ServiceSettings struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// ResearchConfig tunes the aggregation pipeline.
type ResearchConfig struct {
	PerSourceChars  int           `yaml:"per_source_chars"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	SearchTimeout   time.Duration `yaml:"search_timeout"`
	BrowserDisabled bool          `yaml:"browser_disabled,omitempty"`
	UserAgent       string        `yaml:"user_agent,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	ActiveProvider Provider                      `yaml:"active_provider,omitempty"`
	Providers      map[Provider]ProviderSettings `yaml:"providers,omitempty"`
	Services       map[string]ServiceSettings    `yaml:"services,omitempty"`
	Professional   bool                          `yaml:"professional,omitempty"`
	Research       ResearchConfig                `yaml:"research"`
}

// DefaultResearchConfig returns sensible pipeline defaults.
func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		PerSourceChars: 8000,
		MaxConcurrent:  5,
		FetchTimeout:   60 * time.Second,
		SearchTimeout:  30 * time.Second,
		UserAgent:      "Mozilla/5.0 (compatible; cliche/1.0; +https://github.com/sizzlebop/CLIche)",
	}
}

// Default returns a Config with defaults filled in and no credentials.
func Default() *Config {
	return &Config{
		Providers: make(map[Provider]ProviderSettings),
		Services:  make(map[string]ServiceSettings),
		Research:  DefaultResearchConfig(),
	}
}

// Dir returns the cliche home directory (~/.cliche), creating it if needed.
func Dir() (string, error) {
	if override := os.Getenv("CLICHE_HOME"); override != "" {
		return override, os.MkdirAll(override, 0o755)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".cliche")
	return dir, os.MkdirAll(dir, 0o755)
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DocsDir returns the output directory for generated documents.
func DocsDir() (string, error) {
	return subdir("files", "docs")
}

// ImagesDir returns the download directory for fetched images.
func ImagesDir() (string, error) {
	return subdir("files", "images")
}

// ScrapeDir returns the directory holding scraped page JSON.
func ScrapeDir() (string, error) {
	return subdir("files", "scrape")
}

// LogsDir returns the directory for category log files.
func LogsDir() (string, error) {
	return subdir("logs")
}

func subdir(parts ...string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(append([]string{dir}, parts...)...)
	return p, os.MkdirAll(p, 0o755)
}

// Load reads config from path. A missing file yields Default(), not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadDefault loads config from the default location.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes config to path with restrictive permissions (it holds keys).
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) normalize() {
	if c.Providers == nil {
		c.Providers = make(map[Provider]ProviderSettings)
	}
	if c.Services == nil {
		c.Services = make(map[string]ServiceSettings)
	}
	def := DefaultResearchConfig()
	if c.Research.PerSourceChars <= 0 {
		c.Research.PerSourceChars = def.PerSourceChars
	}
	if c.Research.MaxConcurrent <= 0 {
		c.Research.MaxConcurrent = def.MaxConcurrent
	}
	if c.Research.FetchTimeout <= 0 {
		c.Research.FetchTimeout = def.FetchTimeout
	}
	if c.Research.SearchTimeout <= 0 {
		c.Research.SearchTimeout = def.SearchTimeout
	}
	if c.Research.UserAgent == "" {
		c.Research.UserAgent = def.UserAgent
	}
}

// envKeyOrder is the fallback priority when no provider is configured.
var envKeyOrder = []struct {
	envVar   string
	provider Provider
}{
	{"OPENAI_API_KEY", ProviderOpenAI},
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"GOOGLE_API_KEY", ProviderGoogle},
	{"DEEPSEEK_API_KEY", ProviderDeepSeek},
	{"OPENROUTER_API_KEY", ProviderOpenRouter},
}

// ActiveProviderSettings resolves the provider to use and its settings.
// Priority: explicit active_provider entry with a key, any configured entry
// with a key, environment variables, then Ollama if a host is reachable via
// OLLAMA_HOST. Returns an error when nothing is configured.
func (c *Config) ActiveProviderSettings() (Provider, ProviderSettings, error) {
	if c.ActiveProvider != "" {
		ps := c.Providers[c.ActiveProvider]
		if ps.APIKey != "" || c.ActiveProvider == ProviderOllama {
			return c.ActiveProvider, ps, nil
		}
		// Fall through to env vars for the chosen provider.
		if key := envKeyFor(c.ActiveProvider); key != "" {
			ps.APIKey = key
			return c.ActiveProvider, ps, nil
		}
	}

	for _, e := range envKeyOrder {
		if key := os.Getenv(e.envVar); key != "" {
			ps := c.Providers[e.provider]
			ps.APIKey = key
			return e.provider, ps, nil
		}
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		ps := c.Providers[ProviderOllama]
		if ps.BaseURL == "" {
			ps.BaseURL = host
		}
		return ProviderOllama, ps, nil
	}

	return "", ProviderSettings{}, fmt.Errorf(
		"no provider configured; run 'cliche config set' or set one of: OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY, DEEPSEEK_API_KEY, OPENROUTER_API_KEY, OLLAMA_HOST")
}

func envKeyFor(p Provider) string {
	for _, e := range envKeyOrder {
		if e.provider == p {
			return os.Getenv(e.envVar)
		}
	}
	return ""
}

// ServiceKey returns the API key for a named service (e.g. "unsplash",
// "brave"), consulting the environment when the config has none.
func (c *Config) ServiceKey(name string) string {
	if s, ok := c.Services[name]; ok && s.APIKey != "" {
		return s.APIKey
	}
	switch name {
	case "unsplash":
		return os.Getenv("UNSPLASH_API_KEY")
	case "brave":
		return os.Getenv("BRAVE_API_KEY")
	}
	return ""
}
