package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/images"
	"github.com/sizzlebop/CLIche/internal/research"
	"github.com/sizzlebop/CLIche/internal/scrape"
)

var (
	generateTopic      string
	generateSummarize  bool
	generateSnippet    bool
	generateImageQuery string
	generateImageCount int
	generateProf       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [scrape-file.json]",
	Short: "Synthesize a document from previously scraped JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateSummarize && generateSnippet {
			return fmt.Errorf("--summarize and --snippet are mutually exclusive")
		}

		pages, err := scrape.Load(args[0])
		if err != nil {
			return err
		}
		corpus := scrape.Corpus(pages)
		if corpus.Empty() {
			return fmt.Errorf("scrape file %s holds no usable content", args[0])
		}

		topic := generateTopic
		if topic == "" {
			topic = pages[0].Title
		}

		mode := research.ModeComprehensive
		switch {
		case generateSummarize:
			mode = research.ModeSummary
		case generateSnippet:
			mode = research.ModeSnippet
		}

		client, err := newLLMClient()
		if err != nil {
			return err
		}

		synth := research.NewSynthesizer(client)
		synth.SetProfessional(generateProf || cfg.Professional)
		doc, err := synth.Synthesize(cmd.Context(), topic, corpus, mode)
		if err != nil {
			return err
		}

		if generateImageQuery != "" {
			if unsplash := images.NewClient(cfg.ServiceKey("unsplash")); unsplash != nil {
				if imgs, err := unsplash.Search(cmd.Context(), generateImageQuery, generateImageCount); err == nil && len(imgs) > 0 {
					placer := research.NewImagePlacer(client)
					body, credits := placer.Place(cmd.Context(), doc.Body, imgs)
					doc.Body = body
					doc.Credits = append(doc.Credits, credits...)
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("no Unsplash key configured; continuing without images"))
			}
		}

		dir, err := config.DocsDir()
		if err != nil {
			return err
		}
		path, err := doc.Write(dir, topic)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pathStyle.Render("Wrote "+path))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateTopic, "topic", "", "document topic (defaults to the first scraped title)")
	generateCmd.Flags().BoolVar(&generateSummarize, "summarize", false, "produce a summary instead of a full document")
	generateCmd.Flags().BoolVar(&generateSnippet, "snippet", false, "produce a short snippet")
	generateCmd.Flags().StringVar(&generateImageQuery, "image", "", "insert Unsplash images matching this search term")
	generateCmd.Flags().IntVar(&generateImageCount, "image-count", 2, "number of images to insert")
	generateCmd.Flags().BoolVar(&generateProf, "professional", false, "use a strictly formal writing register")
	rootCmd.AddCommand(generateCmd)
}
