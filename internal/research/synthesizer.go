package research

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sizzlebop/CLIche/internal/chunk"
	"github.com/sizzlebop/CLIche/internal/document"
	"github.com/sizzlebop/CLIche/internal/llm"
	"github.com/sizzlebop/CLIche/internal/logging"
)

// Mode selects the synthesis strategy.
type Mode string

const (
	// ModeComprehensive issues one LLM call per chunk and assembles a full
	// document with TOC and references.
	ModeComprehensive Mode = "comprehensive"
	// ModeSummary issues a single call producing ~800-1000 words.
	ModeSummary Mode = "summary"
	// ModeSnippet issues a single call producing at most ~300 words.
	ModeSnippet Mode = "snippet"
)

// SynthesisError means synthesis produced nothing usable — every chunk call
// failed, or the single-call modes failed outright.
type SynthesisError struct {
	ChunksTotal  int
	ChunksFailed int
	Err          error
}

func (e *SynthesisError) Error() string {
	if e.ChunksTotal > 0 {
		return fmt.Sprintf("synthesis failed: %d/%d chunks failed: %v", e.ChunksFailed, e.ChunksTotal, e.Err)
	}
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// summaryInputCap bounds the corpus slice handed to single-call modes.
const summaryInputCap = 15000

// Synthesizer turns a corpus into a document via the active LLM.
type Synthesizer struct {
	client       llm.Client
	chunker      *chunk.Chunker
	professional bool
}

// NewSynthesizer builds a synthesizer with the default chunker.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client, chunker: chunk.DefaultChunker()}
}

// SetProfessional switches the writing tone from engaging to strictly formal.
func (s *Synthesizer) SetProfessional(on bool) { s.professional = on }

const synthSystemPrompt = "You are a precise technical writer. Write well-structured markdown. " +
	"Cite sources inline with bracketed numbers like [1] that refer to the numbered source list you are given. " +
	"Never invent citations, URLs, or facts not present in the provided material."

func (s *Synthesizer) systemPrompt() string {
	if s.professional {
		return synthSystemPrompt + " Use a strictly formal, neutral register."
	}
	return synthSystemPrompt + " Keep the prose readable and engaging."
}

// Synthesize produces a document for the topic from the corpus.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, corpus *Corpus, mode Mode) (*document.Document, error) {
	if corpus.Empty() {
		return nil, &SynthesisError{Err: fmt.Errorf("empty corpus for %q", topic)}
	}

	doc := &document.Document{
		Title:      titleCase(topic),
		References: referencesFor(corpus),
	}

	switch mode {
	case ModeSummary:
		body, err := s.singleCall(ctx, topic, corpus, "Write a cohesive summary document of 800-1000 words with a few ## section headings.")
		if err != nil {
			return nil, err
		}
		doc.Body = body
		doc.References = citedOnly(doc.References, doc.Body)
		return doc, nil

	case ModeSnippet:
		body, err := s.singleCall(ctx, topic, corpus, "Write a concise snippet of at most 300 words. No table of contents, no headings beyond an optional single one.")
		if err != nil {
			return nil, err
		}
		doc.Body = body
		doc.References = nil // snippets stay short; citations would dominate
		return doc, nil

	default:
		return s.comprehensive(ctx, topic, corpus, doc)
	}
}

// singleCall handles the summary and snippet modes.
func (s *Synthesizer) singleCall(ctx context.Context, topic string, corpus *Corpus, instruction string) (string, error) {
	material := corpus.Text()
	if len(material) > summaryInputCap {
		material = material[:summaryInputCap]
	}

	prompt := fmt.Sprintf("Topic: %s\n\n%s\n\nSource list:\n%s\n\nResearch material:\n\n%s",
		topic, instruction, sourceList(corpus), material)

	out, err := s.client.CompleteWithSystem(ctx, s.systemPrompt(), prompt)
	if err != nil {
		return "", &SynthesisError{Err: err}
	}
	return document.CleanMarkdown(out), nil
}

// comprehensive issues one call per chunk in order, skipping failed chunks.
// Only when every chunk fails does it return SynthesisError.
func (s *Synthesizer) comprehensive(ctx context.Context, topic string, corpus *Corpus, doc *document.Document) (*document.Document, error) {
	chunks := s.chunker.Split(corpus.Text())
	logging.Synth("comprehensive synthesis: %d chunks for %q", len(chunks), topic)

	sections := make([]string, 0, len(chunks))
	failed := 0
	var lastErr error

	for _, ck := range chunks {
		logging.SynthDebug("chunk %d/%d: %d chars, heading=%q", ck.Index+1, len(chunks), len(ck.Text), ck.Heading)
		prompt := fmt.Sprintf(
			"Topic: %s\n\nWrite one document section in markdown covering the material below. "+
				"Start with a single '## ' heading naming the section. Cite with [n] from the source list.\n\n"+
				"Source list:\n%s\n\nMaterial (part %d of %d):\n\n%s",
			topic, sourceList(corpus), ck.Index+1, len(chunks), ck.Text)

		out, err := s.client.CompleteWithSystem(ctx, s.systemPrompt(), prompt)
		if err != nil {
			failed++
			lastErr = err
			logging.SynthWarn("chunk %d/%d failed, skipping: %v", ck.Index+1, len(chunks), err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		sections = append(sections, document.CleanMarkdown(out))
	}

	if len(sections) == 0 {
		return nil, &SynthesisError{ChunksTotal: len(chunks), ChunksFailed: failed, Err: lastErr}
	}

	body := strings.Join(sections, "\n\n")
	doc.Body = tableOfContents(body) + body

	// A closing section is a nicety; losing it is not a failure.
	if conclusion, err := s.client.CompleteWithSystem(ctx, s.systemPrompt(),
		fmt.Sprintf("Topic: %s\n\nWrite a short '## Conclusion' section (one or two paragraphs) for a document with these sections:\n%s",
			topic, headingOutline(body))); err == nil {
		doc.Body += "\n\n" + document.CleanMarkdown(conclusion)
	} else {
		logging.SynthWarn("conclusion call failed, omitting: %v", err)
	}

	doc.References = citedOnly(doc.References, doc.Body)

	if failed > 0 {
		logging.Synth("completed with %d/%d chunks skipped", failed, len(chunks))
	}
	return doc, nil
}

var citationRe = regexp.MustCompile(`\[(\d+)\]`)

// citedOnly drops references whose [n] marker never appears in the body, so
// skipped chunks don't leave orphan entries. A body with no markers at all
// keeps the full list: the material still derives from every source.
func citedOnly(refs []document.Reference, body string) []document.Reference {
	cited := make(map[int]bool)
	for _, m := range citationRe.FindAllStringSubmatch(body, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			cited[n] = true
		}
	}
	if len(cited) == 0 {
		return refs
	}
	out := make([]document.Reference, 0, len(refs))
	for _, r := range refs {
		if cited[r.Number] {
			out = append(out, r)
		}
	}
	return out
}

// referencesFor numbers sources by first appearance in the corpus.
func referencesFor(corpus *Corpus) []document.Reference {
	refs := make([]document.Reference, 0, len(corpus.Sources))
	for _, s := range corpus.Sources {
		refs = append(refs, document.Reference{Number: s.Number, Title: s.Title, URL: s.URL})
	}
	return refs
}

// sourceList renders the numbered source list given to the model.
func sourceList(corpus *Corpus) string {
	var sb strings.Builder
	for _, s := range corpus.Sources {
		fmt.Fprintf(&sb, "[%d] %s — %s\n", s.Number, s.Title, s.URL)
	}
	return sb.String()
}

// headingOutline extracts the '## ' headings from a body.
func headingOutline(body string) string {
	var sb strings.Builder
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// tableOfContents builds a TOC from the section headings.
func tableOfContents(body string) string {
	outline := headingOutline(body)
	if outline == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Table of Contents\n\n")
	for _, line := range strings.Split(strings.TrimSpace(outline), "\n") {
		title := strings.TrimPrefix(line, "## ")
		fmt.Fprintf(&sb, "- [%s](#%s)\n", title, anchor(title))
	}
	sb.WriteString("\n")
	return sb.String()
}

func anchor(title string) string {
	title = strings.ToLower(title)
	title = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-':
			return '-'
		default:
			return -1
		}
	}, title)
	return strings.Trim(title, "-")
}

func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
