package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveBackend queries the Brave Web Search API. Requires a subscription
// token; the planner leaves this backend out when no key is configured.
type BraveBackend struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewBraveBackend builds the secondary search backend. Returns nil when the
// key is empty so the planner can skip it.
func NewBraveBackend(apiKey string, timeout time.Duration) *BraveBackend {
	if apiKey == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BraveBackend{
		apiKey:     apiKey,
		endpoint:   braveEndpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (b *BraveBackend) Name() string { return string(EngineBrave) }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries the API and maps its web results.
func (b *BraveBackend) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults > 20 {
		maxResults = 20 // API page limit
	}
	reqURL := fmt.Sprintf("%s?q=%s&count=%d", b.endpoint, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var br braveResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]Result, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
	}
	return results, nil
}
