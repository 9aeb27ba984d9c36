// Package scrape extracts structured page data and persists it as JSON, so
// the generate command can synthesize documents later without re-fetching.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sizzlebop/CLIche/internal/document"
	"github.com/sizzlebop/CLIche/internal/fetch"
	"github.com/sizzlebop/CLIche/internal/logging"
	"github.com/sizzlebop/CLIche/internal/research"
)

// PageData is one scraped page, as stored on disk.
type PageData struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	MainContent string            `json:"main_content"`
	Images      []fetch.PageImage `json:"images,omitempty"`
	ScrapedAt   time.Time         `json:"timestamp"`
}

// Scraper fetches pages through the shared source fetcher.
type Scraper struct {
	fetcher  research.SourceFetcher
	maxChars int
}

// NewScraper builds a scraper. maxChars bounds per-page content.
func NewScraper(fetcher research.SourceFetcher, maxChars int) *Scraper {
	if maxChars <= 0 {
		maxChars = 8000
	}
	return &Scraper{fetcher: fetcher, maxChars: maxChars}
}

// Scrape fetches each URL in order. Individual failures are logged and
// skipped; an error is returned only when nothing could be scraped.
func (s *Scraper) Scrape(ctx context.Context, urls []string) ([]PageData, error) {
	pages := make([]PageData, 0, len(urls))
	var lastErr error
	for _, u := range urls {
		page, err := s.fetcher.Fetch(ctx, u, s.maxChars)
		if err != nil {
			lastErr = err
			logging.FetchWarn("scrape skipping %s: %v", u, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		pages = append(pages, PageData{
			URL:         page.URL,
			Title:       page.Title,
			Description: firstParagraph(page.Markdown),
			MainContent: page.Markdown,
			Images:      page.Images,
			ScrapedAt:   time.Now().UTC(),
		})
	}
	if len(pages) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("all %d pages failed: %w", len(urls), lastErr)
		}
		return nil, fmt.Errorf("no pages scraped")
	}
	return pages, nil
}

// Save writes pages as pretty JSON under dir, keyed by topic, returning the
// path used.
func Save(dir, topic string, pages []PageData) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scrape dir: %w", err)
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode scrape data: %w", err)
	}
	path := document.UniquePath(dir, document.Slugify(topic), ".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write scrape data: %w", err)
	}
	return path, nil
}

// Load reads previously saved scrape JSON.
func Load(path string) ([]PageData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scrape data: %w", err)
	}
	var pages []PageData
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parse scrape data: %w", err)
	}
	return pages, nil
}

// Corpus converts scraped pages into a synthesis corpus, preserving order
// and citation numbering.
func Corpus(pages []PageData) *research.Corpus {
	corpus := &research.Corpus{}
	for i, p := range pages {
		if strings.TrimSpace(p.MainContent) == "" {
			continue
		}
		corpus.Sources = append(corpus.Sources, research.Source{
			Number:  len(corpus.Sources) + 1,
			Rank:    i + 1,
			URL:     p.URL,
			Title:   p.Title,
			Content: p.MainContent,
			Images:  p.Images,
		})
	}
	return corpus
}

// firstParagraph returns the first non-heading paragraph, truncated.
func firstParagraph(markdown string) string {
	for _, para := range strings.Split(markdown, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") {
			continue
		}
		return fetch.TruncateAtBoundary(para, 300)
	}
	return ""
}
