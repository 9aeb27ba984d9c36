package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sizzlebop/CLIche/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit cliche configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration (keys redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "active provider: %s\n", orUnset(string(cfg.ActiveProvider)))
		for name, ps := range cfg.Providers {
			fmt.Fprintf(out, "  %s: key=%s model=%s\n", name, redact(ps.APIKey), orUnset(ps.Model))
		}
		for name, svc := range cfg.Services {
			fmt.Fprintf(out, "service %s: key=%s\n", name, redact(svc.APIKey))
		}
		fmt.Fprintf(out, "research: per_source=%d max_concurrent=%d\n",
			cfg.Research.PerSourceChars, cfg.Research.MaxConcurrent)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [provider] [key=value]...",
	Short: "Configure a provider (api_key, model, base_url) and make it active",
	Example: `  cliche config set openai api_key=sk-... model=gpt-4o
  cliche config set ollama base_url=http://localhost:11434
  cliche config set service:unsplash api_key=...`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := strings.ToLower(args[0])

		if svc, ok := strings.CutPrefix(target, "service:"); ok {
			return setService(cmd, svc, args[1:])
		}

		provider := config.Provider(target)
		switch provider {
		case config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderGoogle,
			config.ProviderDeepSeek, config.ProviderOpenRouter, config.ProviderOllama:
		default:
			return fmt.Errorf("unknown provider %q", target)
		}

		ps := cfg.Providers[provider]
		for _, kv := range args[1:] {
			k, v, err := splitKV(kv)
			if err != nil {
				return err
			}
			switch k {
			case "api_key":
				ps.APIKey = v
			case "model":
				ps.Model = v
			case "base_url":
				ps.BaseURL = v
			default:
				return fmt.Errorf("unknown setting %q (valid: api_key, model, base_url)", k)
			}
		}
		cfg.Providers[provider] = ps
		cfg.ActiveProvider = provider

		return saveConfig(cmd, fmt.Sprintf("%s is now the active provider", provider))
	},
}

func setService(cmd *cobra.Command, name string, kvs []string) error {
	svc := cfg.Services[name]
	for _, kv := range kvs {
		k, v, err := splitKV(kv)
		if err != nil {
			return err
		}
		if k != "api_key" {
			return fmt.Errorf("unknown service setting %q (valid: api_key)", k)
		}
		svc.APIKey = v
	}
	cfg.Services[name] = svc
	return saveConfig(cmd, fmt.Sprintf("service %s configured", name))
}

func saveConfig(cmd *cobra.Command, msg string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func splitKV(kv string) (string, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", kv)
	}
	return strings.ToLower(k), v, nil
}

func redact(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
