// Package fetch extracts readable page content for the research pipeline.
// The primary path renders pages in a headless browser; a static HTTP path
// takes over when rendering fails or is disabled. Either way the result is
// readability-extracted markdown truncated on content boundaries.
package fetch

import (
	"context"
	"errors"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/logging"
)

// Fetcher is the SourceFetcher used by the aggregator.
type Fetcher struct {
	browser *BrowserFetcher
	static  *StaticFetcher
}

// NewFetcher builds a fetcher from pipeline config. Browser rendering is on
// by default; cfg.BrowserDisabled drops straight to static extraction.
func NewFetcher(cfg config.ResearchConfig) *Fetcher {
	f := &Fetcher{
		static: NewStaticFetcher(cfg.UserAgent, cfg.FetchTimeout),
	}
	if !cfg.BrowserDisabled {
		f.browser = NewBrowserFetcher(cfg.FetchTimeout)
	}
	return f
}

// Fetch extracts a page, truncating its markdown to maxChars on a paragraph
// or sentence boundary. Returns *FetchError on failure.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, maxChars int) (*Page, error) {
	page, err := f.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	before := len(page.Markdown)
	page.Markdown = TruncateAtBoundary(page.Markdown, maxChars)
	if len(page.Markdown) < before {
		logging.FetchDebug("truncated %s from %d to %d chars", pageURL, before, len(page.Markdown))
	}
	return page, nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (*Page, error) {
	if f.browser != nil {
		page, err := f.browser.Fetch(ctx, pageURL)
		if err == nil {
			logging.Fetch("rendered %s (%d chars)", pageURL, len(page.Markdown))
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		logging.FetchWarn("render failed for %s, falling back to static: %v", pageURL, err)
	}

	page, err := f.static.Fetch(ctx, pageURL)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			logging.FetchWarn("static fetch failed for %s: %s", pageURL, fe.Reason)
		}
		return nil, err
	}
	logging.Fetch("fetched %s (%d chars)", pageURL, len(page.Markdown))
	return page, nil
}

// Close releases the browser if one was started.
func (f *Fetcher) Close() {
	if f.browser != nil {
		f.browser.Close()
	}
}
