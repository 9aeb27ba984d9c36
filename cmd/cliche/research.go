package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sizzlebop/CLIche/internal/images"
	"github.com/sizzlebop/CLIche/internal/research"
	"github.com/sizzlebop/CLIche/internal/search"
)

var (
	researchDepth      int
	researchMaxPages   int
	researchSummarize  bool
	researchSnippet    bool
	researchImageQuery string
	researchImageCount int
	researchEngine     string
	researchProf       bool
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic on the web and synthesize a cited document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := joinArgs(args)

		if researchSummarize && researchSnippet {
			return fmt.Errorf("--summarize and --snippet are mutually exclusive")
		}
		engine, err := search.ParseEngine(researchEngine)
		if err != nil {
			return err
		}

		mode := research.ModeComprehensive
		switch {
		case researchSummarize:
			mode = research.ModeSummary
		case researchSnippet:
			mode = research.ModeSnippet
		}

		client, err := newLLMClient()
		if err != nil {
			return err
		}
		fetcher := newFetcher()
		defer fetcher.Close()

		var unsplash *images.Client
		if researchImageQuery != "" {
			unsplash = images.NewClient(cfg.ServiceKey("unsplash"))
			if unsplash == nil {
				fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("no Unsplash key configured; continuing without images"))
			}
		}

		pipeline := research.NewPipeline(cfg, newPlanner(), fetcher, client, unsplash, logger)

		fmt.Fprintln(cmd.OutOrStdout(), statusStyle.Render(fmt.Sprintf("Researching %q (mode=%s, depth=%d)...", topic, mode, researchDepth)))

		result, err := pipeline.Run(cmd.Context(), research.Options{
			Topic:        topic,
			Depth:        researchDepth,
			MaxPages:     researchMaxPages,
			Mode:         mode,
			Engine:       engine,
			ImageQuery:   researchImageQuery,
			ImageCount:   researchImageCount,
			Professional: researchProf || cfg.Professional,
		})
		if err != nil {
			return err
		}

		if len(result.Failures) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(fmt.Sprintf("%d source(s) could not be fetched", len(result.Failures))))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Used %d sources.\n", result.Sources)
		fmt.Fprintln(cmd.OutOrStdout(), pathStyle.Render("Wrote "+result.Path))

		if debugMode {
			for stage, took := range result.Timings {
				logger.Debug("stage timing", zap.String("stage", string(stage)), zap.Duration("took", took))
			}
		}
		return nil
	},
}

func init() {
	researchCmd.Flags().IntVar(&researchDepth, "depth", 1, "research depth multiplier for content budgets")
	researchCmd.Flags().IntVar(&researchMaxPages, "max-pages", 5, "maximum pages to fetch")
	researchCmd.Flags().BoolVar(&researchSummarize, "summarize", false, "produce a summary (~800-1000 words) instead of a full document")
	researchCmd.Flags().BoolVar(&researchSnippet, "snippet", false, "produce a short snippet (<=300 words)")
	researchCmd.Flags().StringVar(&researchImageQuery, "image", "", "insert Unsplash images matching this search term")
	researchCmd.Flags().IntVar(&researchImageCount, "image-count", 2, "number of images to insert")
	researchCmd.Flags().StringVar(&researchEngine, "search-engine", "auto", "search engine: auto, duckduckgo, or brave")
	researchCmd.Flags().BoolVar(&researchProf, "professional", false, "use a strictly formal writing register")
	rootCmd.AddCommand(researchCmd)
}
