// Package research implements the content aggregation and document synthesis
// pipeline behind the research, scrape, and generate commands.
package research

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/fetch"
	"github.com/sizzlebop/CLIche/internal/logging"
	"github.com/sizzlebop/CLIche/internal/search"
)

// SourceFetcher is the fetch dependency, satisfied by *fetch.Fetcher.
type SourceFetcher interface {
	Fetch(ctx context.Context, pageURL string, maxChars int) (*fetch.Page, error)
}

// Source is one fetched, deduplicated contribution to the corpus. Number is
// the citation number, assigned by first appearance.
type Source struct {
	Number  int
	Rank    int
	URL     string
	Title   string
	Content string
	Images  []fetch.PageImage
}

// Corpus is the assembled research material, in rank order.
type Corpus struct {
	Sources  []Source
	Failures []error // individual fetch failures, never fatal
}

// Empty reports whether no usable source was gathered.
func (c *Corpus) Empty() bool { return len(c.Sources) == 0 }

// Text assembles the corpus document the chunker and synthesizer operate on.
// Sources appear in rank order under stable markers.
func (c *Corpus) Text() string {
	var sb strings.Builder
	for i, s := range c.Sources {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Source %d: %s\nURL: %s\n\n%s", s.Number, s.Title, s.URL, s.Content)
	}
	return sb.String()
}

// Budgets are the character limits applied while aggregating.
type Budgets struct {
	PerSource int
	Total     int
}

// BudgetsForDepth scales the configured base budget by search depth.
// Total covers maxPages sources at the scaled per-source size.
func BudgetsForDepth(base config.ResearchConfig, depth, maxPages int) Budgets {
	if depth < 1 {
		depth = 1
	}
	if maxPages < 1 {
		maxPages = 1
	}
	per := base.PerSourceChars * depth
	return Budgets{PerSource: per, Total: per * maxPages}
}

// Aggregator turns ranked search results into a corpus.
type Aggregator struct {
	fetcher       SourceFetcher
	budgets       Budgets
	maxConcurrent int
}

// minUsefulChars is the smallest remaining budget worth spending on another
// source; below it a truncated fragment carries no signal.
const minUsefulChars = 200

// NewAggregator builds an aggregator.
func NewAggregator(fetcher SourceFetcher, budgets Budgets, maxConcurrent int) *Aggregator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Aggregator{fetcher: fetcher, budgets: budgets, maxConcurrent: maxConcurrent}
}

// Gather fetches results concurrently in bounded waves, reassembles them in
// rank order, deduplicates, and applies budgets. Fetch failures are recorded
// and skipped; Gather itself never fails. Budget exhaustion stops further
// waves and is normal termination.
func (a *Aggregator) Gather(ctx context.Context, results []search.Result) *Corpus {
	timer := logging.StartTimer(logging.CategoryAggregate, "gather")
	defer timer.Stop()

	corpus := &Corpus{}
	seenURL := make(map[string]bool)
	seenContent := make(map[string]bool)
	used := 0

	for lo := 0; lo < len(results); lo += a.maxConcurrent {
		if a.budgets.Total-used < minUsefulChars {
			logging.Aggregate("total budget reached (%d chars), stopping after %d sources", used, len(corpus.Sources))
			break
		}
		hi := lo + a.maxConcurrent
		if hi > len(results) {
			hi = len(results)
		}
		wave := results[lo:hi]

		pages := make([]*fetch.Page, len(wave))
		errs := make([]error, len(wave))

		g, gctx := errgroup.WithContext(ctx)
		for i, r := range wave {
			g.Go(func() error {
				page, err := a.fetcher.Fetch(gctx, r.URL, a.budgets.PerSource)
				pages[i], errs[i] = page, err
				return nil // failures are per-source, not fatal
			})
		}
		_ = g.Wait()

		// Reassemble strictly in rank order regardless of completion order.
		for i, r := range wave {
			if errs[i] != nil {
				corpus.Failures = append(corpus.Failures, errs[i])
				logging.AggregateDebug("skipping rank %d: %v", r.Rank, errs[i])
				continue
			}
			page := pages[i]

			urlKey := search.NormalizeURL(page.URL)
			if seenURL[urlKey] {
				logging.AggregateDebug("duplicate URL at rank %d: %s", r.Rank, page.URL)
				continue
			}
			contentKey := dedupKey(page.Title, page.Markdown)
			if seenContent[contentKey] {
				logging.AggregateDebug("duplicate content at rank %d: %s", r.Rank, page.URL)
				continue
			}

			remaining := a.budgets.Total - used
			if remaining < minUsefulChars {
				break
			}
			content := page.Markdown
			if len(content) > remaining {
				content = fetch.TruncateAtBoundary(content, remaining)
			}
			if strings.TrimSpace(content) == "" {
				continue
			}

			seenURL[urlKey] = true
			seenContent[contentKey] = true
			used += len(content)

			title := page.Title
			if title == "" {
				title = r.Title
			}
			corpus.Sources = append(corpus.Sources, Source{
				Number:  len(corpus.Sources) + 1,
				Rank:    r.Rank,
				URL:     page.URL,
				Title:   title,
				Content: content,
				Images:  page.Images,
			})
		}

		if ctx.Err() != nil {
			break
		}
	}

	logging.Aggregate("gathered %d sources (%d chars, %d failures)", len(corpus.Sources), used, len(corpus.Failures))
	return corpus
}

// dedupKey folds title plus the first 200 characters of content, so mirrors
// of the same article collapse even under different URLs.
func dedupKey(title, content string) string {
	prefix := content
	if len(prefix) > 200 {
		prefix = prefix[:200]
	}
	fold := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return fold(title) + "|" + fold(prefix)
}
