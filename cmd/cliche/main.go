// Command cliche is a terminal assistant wrapping hosted LLM APIs, with a
// research pipeline that searches the web, aggregates sources, and
// synthesizes cited markdown documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/fetch"
	"github.com/sizzlebop/CLIche/internal/llm"
	"github.com/sizzlebop/CLIche/internal/logging"
	"github.com/sizzlebop/CLIche/internal/search"
)

var (
	logger    *zap.Logger
	debugMode bool
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "cliche",
	Short:         "Snarky terminal assistant with a web research pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if debugMode {
			zcfg := zap.NewDevelopmentConfig()
			logger, err = zcfg.Build()
		} else {
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			logger, err = zcfg.Build()
		}
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logging.SetDebugMode(debugMode)

		cfg, err = config.LoadDefault()
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging and stage timings")
}

// newLLMClient resolves the active provider into a client.
func newLLMClient() (llm.Client, error) {
	return llm.NewClientFromConfig(cfg)
}

// newPlanner wires the search backends from config.
func newPlanner() *search.Planner {
	ddg := search.NewDuckDuckGoBackend(cfg.Research.UserAgent, cfg.Research.SearchTimeout)
	var brave search.Backend
	if b := search.NewBraveBackend(cfg.ServiceKey("brave"), cfg.Research.SearchTimeout); b != nil {
		brave = b
	}
	return search.NewPlanner(ddg, brave)
}

// newFetcher builds the shared source fetcher. Callers must Close it.
func newFetcher() *fetch.Fetcher {
	return fetch.NewFetcher(cfg.Research)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
