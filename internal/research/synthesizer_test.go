package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers each call in turn; a nil entry means that call fails.
type scriptedLLM struct {
	replies []string
	fail    map[int]error // call index -> error
	calls   int
	prompts []string
	systems []string
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.CompleteWithSystem(ctx, "", prompt)
}

func (s *scriptedLLM) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	idx := s.calls
	s.calls++
	s.prompts = append(s.prompts, user)
	s.systems = append(s.systems, system)
	if err := s.fail[idx]; err != nil {
		return "", err
	}
	if idx < len(s.replies) {
		return s.replies[idx], nil
	}
	return "## Filler\n\ngenerated text.", nil
}

func (s *scriptedLLM) Model() string     { return "scripted" }
func (s *scriptedLLM) SetModel(m string) {}

func smallCorpus() *Corpus {
	return &Corpus{Sources: []Source{
		{Number: 1, Rank: 1, Title: "Alpha Source", URL: "https://a.example/doc", Content: "alpha material."},
		{Number: 2, Rank: 2, Title: "Beta Source", URL: "https://b.example/doc", Content: "beta material."},
	}}
}

// sectionedCorpus is big enough for the chunker to produce several chunks.
func sectionedCorpus() *Corpus {
	section := func(h string) string {
		return "## " + h + "\n\n" + strings.Repeat("detail sentence for "+h+". ", 20)
	}
	return &Corpus{Sources: []Source{{
		Number: 1, Rank: 1, Title: "Long Source", URL: "https://long.example",
		Content: section("History") + "\n\n" + section("Design") + "\n\n" + section("Adoption"),
	}}}
}

func TestSynthesizeEmptyCorpus(t *testing.T) {
	s := NewSynthesizer(&scriptedLLM{})
	_, err := s.Synthesize(context.Background(), "anything", &Corpus{}, ModeSummary)
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
}

func TestSynthesizeSummarySingleCall(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"## Overview\n\nA summary citing [1] and [2]."}}
	s := NewSynthesizer(llm)

	doc, err := s.Synthesize(context.Background(), "go modules", smallCorpus(), ModeSummary)
	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls, "summary mode is a single call")
	assert.Equal(t, "Go Modules", doc.Title)
	assert.Contains(t, doc.Body, "citing [1]")
	require.Len(t, doc.References, 2)
	assert.Equal(t, 1, doc.References[0].Number)
	assert.Equal(t, "Alpha Source", doc.References[0].Title)
	assert.Contains(t, llm.prompts[0], "[1] Alpha Source — https://a.example/doc")
}

func TestSynthesizeSnippetDropsReferences(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"A short snippet."}}
	s := NewSynthesizer(llm)

	doc, err := s.Synthesize(context.Background(), "topic", smallCorpus(), ModeSnippet)
	require.NoError(t, err)
	assert.Empty(t, doc.References)
	assert.Equal(t, "A short snippet.", doc.Body)
}

func TestSynthesizeSummaryFailure(t *testing.T) {
	llm := &scriptedLLM{fail: map[int]error{0: errors.New("rate limited")}}
	s := NewSynthesizer(llm)

	_, err := s.Synthesize(context.Background(), "topic", smallCorpus(), ModeSummary)
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
}

func TestSynthesizeComprehensiveSkipsFailedChunks(t *testing.T) {
	llm := &scriptedLLM{
		replies: []string{
			"## History\n\nhistory section [1].",
			"", // fails
			"## Adoption\n\nadoption section [1].",
			"## Conclusion\n\nwrap-up.",
		},
		fail: map[int]error{1: errors.New("transient provider error")},
	}
	s := NewSynthesizer(llm)

	doc, err := s.Synthesize(context.Background(), "topic", sectionedCorpus(), ModeComprehensive)
	require.NoError(t, err, "one failed chunk must not fail the run")
	assert.Contains(t, doc.Body, "history section")
	assert.Contains(t, doc.Body, "adoption section")
	assert.Contains(t, doc.Body, "## Conclusion")
}

func TestSynthesizeComprehensiveAllChunksFail(t *testing.T) {
	boom := errors.New("provider down")
	llm := &scriptedLLM{fail: map[int]error{0: boom, 1: boom, 2: boom, 3: boom, 4: boom, 5: boom}}
	s := NewSynthesizer(llm)

	_, err := s.Synthesize(context.Background(), "topic", sectionedCorpus(), ModeComprehensive)
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Greater(t, se.ChunksTotal, 0)
	assert.Equal(t, se.ChunksTotal, se.ChunksFailed)
	assert.ErrorIs(t, err, boom)
}

func TestSynthesizeComprehensiveBuildsTOC(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"## Early Days\n\ntext one.",
		"## Modern Era\n\ntext two.",
		"## Open Questions\n\ntext three.",
		"## Conclusion\n\nthe end.",
	}}
	s := NewSynthesizer(llm)

	doc, err := s.Synthesize(context.Background(), "topic", sectionedCorpus(), ModeComprehensive)
	require.NoError(t, err)
	assert.Contains(t, doc.Body, "## Table of Contents")
	assert.Contains(t, doc.Body, "- [Early Days](#early-days)")
	assert.Less(t, strings.Index(doc.Body, "Table of Contents"), strings.Index(doc.Body, "## Early Days"))
}

func TestSynthesizeConclusionFailureIsNotFatal(t *testing.T) {
	failLast := map[int]error{}
	llm := &scriptedLLM{
		replies: []string{"## Only Section\n\nbody."},
		fail:    failLast,
	}
	s := NewSynthesizer(llm)
	corpus := smallCorpus()

	// First learn how many chunk calls a run takes, then fail the call after.
	dryRun := &scriptedLLM{}
	_, err := NewSynthesizer(dryRun).Synthesize(context.Background(), "topic", corpus, ModeComprehensive)
	require.NoError(t, err)
	failLast[dryRun.calls-1] = errors.New("conclusion timeout")

	doc, err := s.Synthesize(context.Background(), "topic", corpus, ModeComprehensive)
	require.NoError(t, err)
	assert.NotContains(t, doc.Body, "conclusion timeout")
}

func TestProfessionalToneChangesSystemPrompt(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"body"}}
	s := NewSynthesizer(llm)
	s.SetProfessional(true)

	_, err := s.Synthesize(context.Background(), "topic", smallCorpus(), ModeSummary)
	require.NoError(t, err)
	assert.Contains(t, llm.systems[0], "formal")

	llm2 := &scriptedLLM{replies: []string{"body"}}
	s2 := NewSynthesizer(llm2)
	_, err = s2.Synthesize(context.Background(), "topic", smallCorpus(), ModeSummary)
	require.NoError(t, err)
	assert.NotContains(t, llm2.systems[0], "formal")
	assert.Contains(t, llm2.systems[0], "engaging")
}

func TestSummaryInputCap(t *testing.T) {
	huge := &Corpus{Sources: []Source{{
		Number: 1, Title: "Huge", URL: "https://huge.example",
		Content: strings.Repeat("padding text. ", 3000), // ~42k chars
	}}}
	llm := &scriptedLLM{replies: []string{"summary"}}
	s := NewSynthesizer(llm)

	_, err := s.Synthesize(context.Background(), "topic", huge, ModeSummary)
	require.NoError(t, err)
	assert.Less(t, len(llm.prompts[0]), summaryInputCap+1000,
		"single-call input must be capped, not the whole corpus")
}

func TestReferencesDropUncitedSources(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"## Overview\n\nOnly the first source matters here [1]."}}
	s := NewSynthesizer(llm)

	doc, err := s.Synthesize(context.Background(), "topic", smallCorpus(), ModeSummary)
	require.NoError(t, err)
	require.Len(t, doc.References, 1, "uncited sources must not appear in the reference list")
	assert.Equal(t, 1, doc.References[0].Number)
	assert.Equal(t, "Alpha Source", doc.References[0].Title)
}

func TestReferencesKeptWhenNothingCited(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"## Overview\n\nProse without citation markers."}}
	s := NewSynthesizer(llm)

	doc, err := s.Synthesize(context.Background(), "topic", smallCorpus(), ModeSummary)
	require.NoError(t, err)
	assert.Len(t, doc.References, 2, "a body with no markers keeps the full source list")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Quantum Computing Basics", titleCase("quantum computing basics"))
	assert.Equal(t, "Go", titleCase("  go  "))
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "early-days", anchor("Early Days"))
	assert.Equal(t, "whats-new-in-go-122", anchor("What's New in Go 1.22"))
}

func TestSourceList(t *testing.T) {
	list := sourceList(smallCorpus())
	assert.Equal(t, "[1] Alpha Source — https://a.example/doc\n[2] Beta Source — https://b.example/doc\n", list)
}
