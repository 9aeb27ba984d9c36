package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebop/CLIche/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Disable()
	os.Exit(m.Run())
}

type fakeBackend struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func results(urls ...string) []Result {
	out := make([]Result, len(urls))
	for i, u := range urls {
		out[i] = Result{Title: fmt.Sprintf("title %d", i), URL: u, Snippet: "snippet"}
	}
	return out
}

func TestPlannerPrimaryFirst(t *testing.T) {
	ddg := &fakeBackend{name: "duckduckgo", results: results("https://a.example/x", "https://b.example/y")}
	brave := &fakeBackend{name: "brave", results: results("https://c.example/z")}
	p := NewPlanner(ddg, brave)

	got, err := p.Search(context.Background(), "golang", 10, EngineAuto)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, ddg.calls)
	assert.Equal(t, 0, brave.calls, "secondary must not be queried when primary succeeds")
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)
}

func TestPlannerFallsThroughOnError(t *testing.T) {
	ddg := &fakeBackend{name: "duckduckgo", err: errors.New("rate limited")}
	brave := &fakeBackend{name: "brave", results: results("https://c.example/z")}
	p := NewPlanner(ddg, brave)

	got, err := p.Search(context.Background(), "golang", 10, EngineAuto)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, ddg.calls)
	assert.Equal(t, 1, brave.calls)
}

func TestPlannerFallsThroughOnEmpty(t *testing.T) {
	ddg := &fakeBackend{name: "duckduckgo"}
	brave := &fakeBackend{name: "brave", results: results("https://c.example/z")}
	p := NewPlanner(ddg, brave)

	got, err := p.Search(context.Background(), "golang", 10, EngineAuto)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPlannerExplicitEngineDisablesFallback(t *testing.T) {
	ddg := &fakeBackend{name: "duckduckgo", err: errors.New("boom")}
	brave := &fakeBackend{name: "brave", results: results("https://c.example/z")}
	p := NewPlanner(ddg, brave)

	_, err := p.Search(context.Background(), "golang", 10, EngineDuckDuckGo)
	require.Error(t, err)
	var se *SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "duckduckgo", se.Engine)
	assert.Equal(t, 0, brave.calls, "explicit engine choice must not fall back")
}

func TestPlannerNoResults(t *testing.T) {
	ddg := &fakeBackend{name: "duckduckgo"}
	brave := &fakeBackend{name: "brave"}
	p := NewPlanner(ddg, brave)

	_, err := p.Search(context.Background(), "qqqxyzzy", 10, EngineAuto)
	var nre *NoResultsError
	require.ErrorAs(t, err, &nre, "all-empty must yield NoResultsError, not SearchError")
	assert.Equal(t, "qqqxyzzy", nre.Query)
}

func TestPlannerDedupesNormalizedURLs(t *testing.T) {
	ddg := &fakeBackend{name: "duckduckgo", results: []Result{
		{Title: "a", URL: "https://Example.com/page/"},
		{Title: "b", URL: "https://example.com/page#frag"},
		{Title: "c", URL: "https://example.com/other"},
	}}
	p := NewPlanner(ddg, nil)

	got, err := p.Search(context.Background(), "dup", 10, EngineAuto)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title, "first occurrence wins")
	assert.Equal(t, "c", got[1].Title)
}

func TestParseEngine(t *testing.T) {
	cases := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"", EngineAuto, false},
		{"auto", EngineAuto, false},
		{"DuckDuckGo", EngineDuckDuckGo, false},
		{"brave", EngineBrave, false},
		{"bing", "", true},
	}
	for _, tc := range cases {
		got, err := ParseEngine(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, NormalizeURL("https://Example.com/A/"), NormalizeURL("https://example.com/A#x"))
	assert.NotEqual(t, NormalizeURL("https://example.com/a"), NormalizeURL("https://example.com/b"))
}
