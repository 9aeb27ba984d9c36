package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/scrape"
)

var (
	scrapeTopic    string
	scrapeMaxChars int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]...",
	Short: "Extract readable content from pages into structured JSON",
	Long: `Fetches each URL (rendered in a headless browser when possible),
extracts the readable article, and saves the result as JSON under
~/.cliche/files/scrape for later use with 'cliche generate'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher := newFetcher()
		defer fetcher.Close()

		scraper := scrape.NewScraper(fetcher, scrapeMaxChars)
		pages, err := scraper.Scrape(cmd.Context(), args)
		if err != nil {
			return err
		}

		topic := scrapeTopic
		if topic == "" && len(pages) > 0 {
			topic = pages[0].Title
		}

		dir, err := config.ScrapeDir()
		if err != nil {
			return err
		}
		path, err := scrape.Save(dir, topic, pages)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Scraped %d/%d pages.\n", len(pages), len(args))
		fmt.Fprintln(cmd.OutOrStdout(), pathStyle.Render("Wrote "+path))
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeTopic, "topic", "", "topic label for the output file (defaults to the first page title)")
	scrapeCmd.Flags().IntVar(&scrapeMaxChars, "max-chars", 8000, "per-page content limit")
	rootCmd.AddCommand(scrapeCmd)
}
