// Package search plans and executes web searches across engines. DuckDuckGo's
// HTML endpoint is the primary engine; the Brave Web Search API is the
// secondary. AUTO tries them in that order and falls through on failure or
// empty results; an explicit engine choice disables fallback.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sizzlebop/CLIche/internal/logging"
)

// Engine selects which search backend(s) to use.
type Engine string

const (
	EngineAuto       Engine = "auto"
	EngineDuckDuckGo Engine = "duckduckgo"
	EngineBrave      Engine = "brave"
)

// ParseEngine validates a --search-engine flag value.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case EngineAuto, "":
		return EngineAuto, nil
	case EngineDuckDuckGo:
		return EngineDuckDuckGo, nil
	case EngineBrave:
		return EngineBrave, nil
	default:
		return "", fmt.Errorf("unknown search engine %q (valid: auto, duckduckgo, brave)", s)
	}
}

// Result is a single ranked search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Rank    int
}

// Backend is a single search engine.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Planner runs queries against backends in preference order.
type Planner struct {
	backends map[Engine]Backend
}

// NewPlanner builds a planner with the given backends. A nil backend for an
// engine means that engine is unavailable (e.g. Brave without an API key).
func NewPlanner(duckduckgo, brave Backend) *Planner {
	p := &Planner{backends: make(map[Engine]Backend)}
	if duckduckgo != nil {
		p.backends[EngineDuckDuckGo] = duckduckgo
	}
	if brave != nil {
		p.backends[EngineBrave] = brave
	}
	return p
}

// order returns the backends to attempt for the requested engine.
func (p *Planner) order(engine Engine) []Backend {
	var out []Backend
	switch engine {
	case EngineDuckDuckGo, EngineBrave:
		if b, ok := p.backends[engine]; ok {
			out = append(out, b)
		}
	default: // AUTO
		for _, e := range []Engine{EngineDuckDuckGo, EngineBrave} {
			if b, ok := p.backends[e]; ok {
				out = append(out, b)
			}
		}
	}
	return out
}

// Search runs the query and returns rank-ordered, URL-deduplicated results.
// Under AUTO, a backend error or empty result set falls through to the next
// backend. Returns NoResultsError when every attempted engine came back
// empty, or SearchError when every attempt failed outright.
func (p *Planner) Search(ctx context.Context, query string, maxResults int, engine Engine) ([]Result, error) {
	backends := p.order(engine)
	if len(backends) == 0 {
		return nil, &SearchError{Engine: string(engine), Err: fmt.Errorf("no backend available")}
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	var lastErr error
	attempted := 0
	for _, b := range backends {
		attempted++
		logging.Search("querying %s: %q (max=%d)", b.Name(), query, maxResults)

		results, err := b.Search(ctx, query, maxResults)
		if err != nil {
			lastErr = &SearchError{Engine: b.Name(), Err: err}
			logging.SearchWarn("%s failed: %v", b.Name(), err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}
		if len(results) == 0 {
			logging.SearchWarn("%s returned no results for %q", b.Name(), query)
			continue
		}

		deduped := dedupeResults(results)
		for i := range deduped {
			deduped[i].Rank = i + 1
		}
		logging.Search("%s returned %d results (%d after dedup)", b.Name(), len(results), len(deduped))
		return deduped, nil
	}

	if lastErr != nil && attempted == 1 {
		return nil, lastErr
	}
	if lastErr != nil {
		// Mixed empties and failures under AUTO: report the failure, the
		// caller can still distinguish it from a clean zero-hit query.
		return nil, lastErr
	}
	return nil, &NoResultsError{Query: query}
}

// NormalizeURL canonicalizes a URL for dedup: lowercased scheme and host,
// fragment dropped, trailing slash trimmed.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	s := u.String()
	return strings.TrimRight(s, "/")
}

func dedupeResults(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := NormalizeURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
