package scrape

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebop/CLIche/internal/fetch"
	"github.com/sizzlebop/CLIche/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Disable()
	os.Exit(m.Run())
}

type stubFetcher struct {
	pages map[string]*fetch.Page
}

func (s *stubFetcher) Fetch(ctx context.Context, pageURL string, maxChars int) (*fetch.Page, error) {
	page, ok := s.pages[pageURL]
	if !ok {
		return nil, &fetch.FetchError{URL: pageURL, Reason: fetch.ReasonNetwork}
	}
	return page, nil
}

func TestScrapeSkipsFailures(t *testing.T) {
	f := &stubFetcher{pages: map[string]*fetch.Page{
		"https://ok.example": {URL: "https://ok.example", Title: "OK", Markdown: "# OK\n\nbody text here."},
	}}
	s := NewScraper(f, 8000)

	pages, err := s.Scrape(context.Background(), []string{"https://down.example", "https://ok.example"})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "OK", pages[0].Title)
	assert.Equal(t, "body text here.", pages[0].Description, "description skips headings")
	assert.WithinDuration(t, time.Now(), pages[0].ScrapedAt, time.Minute)
}

func TestScrapeAllFailed(t *testing.T) {
	s := NewScraper(&stubFetcher{}, 8000)
	_, err := s.Scrape(context.Background(), []string{"https://a.example", "https://b.example"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 pages failed")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pages := []PageData{
		{
			URL:         "https://a.example",
			Title:       "Page A",
			Description: "first page",
			MainContent: "content of page a",
			Images:      []fetch.PageImage{{Src: "https://a.example/i.png", Alt: "diagram"}},
			ScrapedAt:   time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		},
		{URL: "https://b.example", Title: "Page B", MainContent: "content of page b"},
	}

	path, err := Save(dir, "My Topic!", pages)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my_topic.json"), path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, pages, loaded)

	// A second save of the same topic must not overwrite the first.
	again, err := Save(dir, "My Topic!", pages)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my_topic_1.json"), again)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestCorpusPreservesOrderAndNumbering(t *testing.T) {
	pages := []PageData{
		{URL: "https://a.example", Title: "A", MainContent: "alpha"},
		{URL: "https://empty.example", Title: "Empty", MainContent: "   "},
		{URL: "https://b.example", Title: "B", MainContent: "bravo"},
	}

	corpus := Corpus(pages)
	require.Len(t, corpus.Sources, 2)
	assert.Equal(t, 1, corpus.Sources[0].Number)
	assert.Equal(t, 1, corpus.Sources[0].Rank)
	assert.Equal(t, 2, corpus.Sources[1].Number, "numbering stays dense when blanks are dropped")
	assert.Equal(t, 3, corpus.Sources[1].Rank, "rank remembers the original position")
}

func TestFirstParagraph(t *testing.T) {
	assert.Equal(t, "lead paragraph.", firstParagraph("# Title\n\nlead paragraph.\n\nmore."))
	assert.Equal(t, "", firstParagraph("# Only A Heading"))
	long := firstParagraph(strings.Repeat("sentence goes on. ", 40))
	assert.LessOrEqual(t, len(long), 300)
}
