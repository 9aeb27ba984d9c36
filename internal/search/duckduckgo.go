package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sizzlebop/CLIche/internal/logging"
)

const ddgEndpoint = "https://html.duckduckgo.com/html/"

// maxSearchBodyBytes caps the response we parse. DuckDuckGo HTML pages are
// well under this; the cap guards against misbehaving proxies.
const maxSearchBodyBytes = 1 << 20

// DuckDuckGoBackend scrapes the DuckDuckGo HTML endpoint. No API key needed.
type DuckDuckGoBackend struct {
	httpClient *http.Client
	userAgent  string
}

// NewDuckDuckGoBackend builds the primary search backend.
func NewDuckDuckGoBackend(userAgent string, timeout time.Duration) *DuckDuckGoBackend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DuckDuckGoBackend{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

func (b *DuckDuckGoBackend) Name() string { return string(EngineDuckDuckGo) }

// Search queries the HTML endpoint and parses the result list.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	searchURL := fmt.Sprintf("%s?q=%s", ddgEndpoint, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Browser-like headers; the endpoint rejects obvious bots.
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	results := parseDDGResults(doc, maxResults)
	logging.SearchDebug("duckduckgo: parsed %d results for %q", len(results), query)
	return results, nil
}

// parseDDGResults walks the document collecting result blocks. Each hit is a
// div with class "result results_links ...".
func parseDDGResults(doc *html.Node, maxResults int) []Result {
	var results []Result

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := nodeAttr(n, "class")
			if strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if r, ok := extractDDGResult(n); ok {
					results = append(results, r)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

// extractDDGResult pulls title, URL, and snippet out of one result block.
func extractDDGResult(n *html.Node) (Result, bool) {
	var r Result

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			class := nodeAttr(node, "class")
			switch {
			case node.Data == "a" && strings.Contains(class, "result__a"):
				r.Title = nodeText(node)
				r.URL = decodeDDGRedirect(nodeAttr(node, "href"))
			case strings.Contains(class, "result__snippet"):
				r.Snippet = nodeText(node)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return r, r.URL != "" && r.Title != ""
}

// decodeDDGRedirect unwraps //duckduckgo.com/l/?uddg=<escaped-url> links.
func decodeDDGRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.Contains(u.Host, "duckduckgo.com") && u.Path == "/l/" {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
