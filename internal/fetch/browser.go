package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sizzlebop/CLIche/internal/logging"
)

// BrowserFetcher renders pages in a headless browser before extraction, so
// script-heavy sites yield real content. The browser launches lazily on the
// first fetch and is shared across fetches.
type BrowserFetcher struct {
	timeout   time.Duration
	extractor *extractor

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserFetcher builds the render-based fetcher.
func NewBrowserFetcher(timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserFetcher{
		timeout:   timeout,
		extractor: newExtractor(),
	}
}

func (f *BrowserFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		return f.browser, nil
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	logging.Browser("headless browser started")
	f.browser = browser
	return browser, nil
}

// Fetch renders the page and extracts its final DOM.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	browser, err := f.ensureBrowser()
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonNetwork, Err: err}
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonNetwork, Err: err}
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.timeout)

	if err := page.WaitLoad(); err != nil {
		return nil, &FetchError{URL: pageURL, Reason: classifyErr(err), Err: err}
	}
	// Give SPA hydration a beat to settle.
	time.Sleep(300 * time.Millisecond)

	rawHTML, err := page.HTML()
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: classifyErr(err), Err: err}
	}

	if blocked(rawHTML) {
		return nil, &FetchError{URL: pageURL, Reason: ReasonBlocked, Err: fmt.Errorf("challenge page detected")}
	}

	return f.extractor.Extract(rawHTML, pageURL)
}

// Close shuts the shared browser down.
func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		if err := f.browser.Close(); err != nil {
			logging.BrowserWarn("close browser: %v", err)
		}
		f.browser = nil
	}
}
