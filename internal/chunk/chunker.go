// Package chunk splits an aggregated corpus into heading-aligned sections
// sized for per-chunk LLM synthesis. Chunks are exact slices of the corpus:
// concatenating them in order reproduces the input byte for byte.
package chunk

import (
	"regexp"
	"strings"

	"github.com/sizzlebop/CLIche/internal/logging"
)

// Chunk is one synthesis unit.
type Chunk struct {
	Index   int
	Heading string // heading line the chunk opens under, if any
	Text    string
	Start   int // byte offset of Text within the corpus
	End     int
}

// Chunker splits a corpus into sections.
type Chunker struct {
	TargetSize int // preferred section size for artificial sections
	MaxSize    int // hard per-chunk limit
}

// DefaultChunker returns a chunker with the standard sizes.
func DefaultChunker() *Chunker {
	return &Chunker{TargetSize: 3000, MaxSize: 6000}
}

// minSections is the heading count below which a heading strategy is
// considered too sparse to structure the document.
const minSections = 3

var (
	markdownHeadingRe = regexp.MustCompile(`^#{1,6} \S`)
	capitalLineRe     = regexp.MustCompile(`^[A-Z][A-Za-z0-9 ,'\-&:]*$`)
)

// Split chunks the corpus. Never returns empty chunks; an empty corpus
// yields nil.
func (c *Chunker) Split(corpus string) []Chunk {
	if corpus == "" {
		return nil
	}
	target := c.TargetSize
	if target <= 0 {
		target = 3000
	}
	maxSize := c.MaxSize
	if maxSize <= 0 {
		maxSize = 2 * target
	}

	cuts := headingCuts(corpus, markdownHeading)
	strategy := "markdown-headings"
	if len(cuts) < minSections {
		cuts = headingCuts(corpus, capitalLineHeading)
		strategy = "capitalized-lines"
	}
	if len(cuts) < minSections {
		cuts = artificialCuts(corpus, target)
		strategy = "paragraph-groups"
	}

	cuts = enforceMax(corpus, cuts, maxSize)
	chunks := materialize(corpus, cuts)
	logging.Chunk("split corpus of %d chars into %d chunks (%s)", len(corpus), len(chunks), strategy)
	for _, ck := range chunks {
		logging.ChunkDebug("chunk %d [%d:%d] heading=%q", ck.Index, ck.Start, ck.End, ck.Heading)
	}
	return chunks
}

// headingKind classifies a line as a section start.
type headingKind func(line string) bool

func markdownHeading(line string) bool {
	return markdownHeadingRe.MatchString(line)
}

// capitalLineHeading matches short standalone capitalized lines, the way
// plain-text documentation marks its sections.
func capitalLineHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) >= 50 {
		return false
	}
	return capitalLineRe.MatchString(trimmed)
}

// headingCuts returns the byte offsets of lines that start sections.
// Offset 0 is always included so the preamble becomes its own chunk.
func headingCuts(corpus string, isHeading headingKind) []int {
	cuts := []int{0}
	offset := 0
	prevBlank := true
	for _, line := range strings.SplitAfter(corpus, "\n") {
		if offset > 0 && prevBlank && isHeading(strings.TrimRight(line, "\n")) {
			cuts = append(cuts, offset)
		}
		prevBlank = strings.TrimSpace(line) == ""
		offset += len(line)
	}
	return cuts
}

// artificialCuts groups paragraphs into sections of roughly target chars.
func artificialCuts(corpus string, target int) []int {
	cuts := []int{0}
	last := 0
	for _, p := range paragraphStarts(corpus, 0, len(corpus)) {
		if p-last >= target {
			cuts = append(cuts, p)
			last = p
		}
	}
	return cuts
}

// paragraphStarts returns offsets (within [lo,hi)) where a new paragraph
// begins, i.e. positions following a blank-line gap.
func paragraphStarts(corpus string, lo, hi int) []int {
	var starts []int
	section := corpus[lo:hi]
	idx := 0
	for {
		gap := strings.Index(section[idx:], "\n\n")
		if gap < 0 {
			break
		}
		start := idx + gap
		// Skip the whole run of newlines; next paragraph starts after it.
		for start < len(section) && section[start] == '\n' {
			start++
		}
		if start >= len(section) {
			break
		}
		starts = append(starts, lo+start)
		idx = start
	}
	return starts
}

// enforceMax splits any span longer than maxSize, preferring paragraph
// boundaries, then sentence ends, then a hard cut.
func enforceMax(corpus string, cuts []int, maxSize int) []int {
	out := make([]int, 0, len(cuts))
	for i, lo := range cuts {
		hi := len(corpus)
		if i+1 < len(cuts) {
			hi = cuts[i+1]
		}
		out = append(out, lo)
		out = append(out, splitSpan(corpus, lo, hi, maxSize)...)
	}
	return out
}

func splitSpan(corpus string, lo, hi, maxSize int) []int {
	var extra []int
	for hi-lo > maxSize {
		cut := boundaryBefore(corpus, lo, lo+maxSize)
		if cut <= lo {
			cut = lo + maxSize // force cut
		}
		extra = append(extra, cut)
		lo = cut
	}
	return extra
}

// boundaryBefore finds the latest paragraph or sentence boundary in
// (lo, limit]; returns lo when none exists.
func boundaryBefore(corpus string, lo, limit int) int {
	window := corpus[lo:limit]
	if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
		cut := lo + idx
		for cut < limit && corpus[cut] == '\n' {
			cut++
		}
		if cut > lo && cut < limit {
			return cut
		}
	}
	best := lo
	for _, sep := range []string{". ", ".\n", "! ", "? "} {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			if cut := lo + idx + len(sep); cut > best && cut < limit {
				best = cut
			}
		}
	}
	return best
}

// materialize converts cut offsets into chunks, dropping duplicate offsets
// so no chunk is ever empty.
func materialize(corpus string, cuts []int) []Chunk {
	uniq := cuts[:0]
	prev := -1
	for _, c := range cuts {
		if c != prev && c < len(corpus) {
			uniq = append(uniq, c)
			prev = c
		}
	}

	chunks := make([]Chunk, 0, len(uniq))
	for i, lo := range uniq {
		hi := len(corpus)
		if i+1 < len(uniq) {
			hi = uniq[i+1]
		}
		text := corpus[lo:hi]
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Heading: leadingHeading(text),
			Text:    text,
			Start:   lo,
			End:     hi,
		})
	}
	return chunks
}

// leadingHeading returns the first line when it reads as a heading.
func leadingHeading(text string) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	if markdownHeading(line) {
		return strings.TrimSpace(strings.TrimLeft(line, "#"))
	}
	if capitalLineHeading(line) {
		return line
	}
	return ""
}
