package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxFetchBodyBytes caps how much of a page body we read.
const maxFetchBodyBytes = 2 << 20

// captchaMarkers flag challenge pages that come back with a 200.
var captchaMarkers = []string{
	"captcha",
	"security check",
	"verify you are human",
	"access denied",
}

// StaticFetcher performs plain HTTP extraction. It is the fallback path when
// browser rendering fails or is disabled.
type StaticFetcher struct {
	httpClient *http.Client
	userAgent  string
	extractor  *extractor
}

// NewStaticFetcher builds the static-HTML fetcher.
func NewStaticFetcher(userAgent string, timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &StaticFetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		extractor:  newExtractor(),
	}
}

// Fetch downloads and extracts a single page.
func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: classifyErr(err), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusUnavailableForLegalReasons:
		return nil, &FetchError{URL: pageURL, Reason: ReasonBlocked, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{URL: pageURL, Reason: ReasonNetwork, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text/plain") {
		return nil, &FetchError{URL: pageURL, Reason: ReasonParseFailure, Err: fmt.Errorf("unsupported content type %s", ct)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: classifyErr(err), Err: err}
	}

	if blocked(string(body)) {
		return nil, &FetchError{URL: pageURL, Reason: ReasonBlocked, Err: fmt.Errorf("challenge page detected")}
	}

	return f.extractor.Extract(string(body), pageURL)
}

// blocked sniffs short bodies for bot-challenge markers. Real articles are
// long; challenge interstitials are not.
func blocked(body string) bool {
	if len(body) > 20_000 {
		return false
	}
	lower := strings.ToLower(body)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
