package research

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sizzlebop/CLIche/internal/document"
	"github.com/sizzlebop/CLIche/internal/images"
	"github.com/sizzlebop/CLIche/internal/llm"
	"github.com/sizzlebop/CLIche/internal/logging"
)

// placementRe matches one suggestion line: "PLACEMENT 2: paragraph 7".
var placementRe = regexp.MustCompile(`(?i)PLACEMENT\s+(\d+)\s*:\s*paragraph\s+(\d+)`)

// ImagePlacer inserts sourced images into a document body. Insertion points
// come from the LLM when it produces valid suggestions; otherwise images are
// spaced evenly through the body, deterministically.
type ImagePlacer struct {
	client llm.Client
}

// NewImagePlacer builds a placer. client may be nil, forcing the
// deterministic fallback.
func NewImagePlacer(client llm.Client) *ImagePlacer {
	return &ImagePlacer{client: client}
}

// Place inserts imgs into body and returns the new body plus credits.
// Images are never placed before the first paragraph or inside code fences.
func (p *ImagePlacer) Place(ctx context.Context, body string, imgs []images.Image) (string, []document.ImageCredit) {
	if len(imgs) == 0 || strings.TrimSpace(body) == "" {
		return body, nil
	}

	paragraphs := strings.Split(body, "\n\n")
	insertable := insertablePositions(paragraphs)
	if len(insertable) == 0 {
		return body, nil
	}

	positions := p.suggestPositions(ctx, paragraphs, len(imgs), insertable)
	if positions == nil {
		positions = evenPositions(insertable, len(imgs))
		logging.Images("using even-spacing fallback for %d images", len(imgs))
	}

	placed := make(map[int]images.Image, len(positions))
	credits := make([]document.ImageCredit, 0, len(positions))
	for i, pos := range positions {
		if i >= len(imgs) {
			break
		}
		placed[pos] = imgs[i]
		credits = append(credits, document.ImageCredit{
			Author:    imgs[i].Author,
			AuthorURL: imgs[i].AuthorURL,
			Source:    "Unsplash",
		})
	}

	var sb strings.Builder
	for i, para := range paragraphs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(para)
		if img, ok := placed[i]; ok {
			alt := img.Description
			if alt == "" {
				alt = "illustration"
			}
			ref := img.LocalPath
			if ref == "" {
				ref = img.URL
			}
			fmt.Fprintf(&sb, "\n\n![%s](%s)", alt, ref)
		}
	}
	return sb.String(), credits
}

// suggestPositions asks the LLM for insertion paragraphs and validates the
// answer. Returns nil when the model is unavailable or its output is
// unusable, triggering the fallback.
func (p *ImagePlacer) suggestPositions(ctx context.Context, paragraphs []string, count int, insertable []int) []int {
	if p.client == nil {
		return nil
	}

	var outline strings.Builder
	for i, para := range paragraphs {
		line := strings.TrimSpace(para)
		if len(line) > 80 {
			line = line[:80]
		}
		fmt.Fprintf(&outline, "Paragraph %d: %s\n", i+1, line)
	}

	prompt := fmt.Sprintf(
		"A document has %d paragraphs, outlined below. Choose %d distinct paragraphs after which an "+
			"illustrative image should be inserted. Do not pick paragraph 1. Respond with exactly %d lines "+
			"in the form 'PLACEMENT n: paragraph m' and nothing else.\n\n%s",
		len(paragraphs), count, count, outline.String())

	out, err := p.client.Complete(ctx, prompt)
	if err != nil {
		logging.ImagesWarn("placement suggestion failed: %v", err)
		return nil
	}

	ok := make(map[int]bool, len(insertable))
	for _, pos := range insertable {
		ok[pos] = true
	}

	var positions []int
	seen := make(map[int]bool)
	for _, m := range placementRe.FindAllStringSubmatch(out, -1) {
		para, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		pos := para - 1 // model speaks 1-based
		if !ok[pos] || seen[pos] {
			continue
		}
		seen[pos] = true
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		logging.ImagesWarn("no valid placements in model output, falling back")
		return nil
	}
	sort.Ints(positions)
	return positions
}

// insertablePositions returns paragraph indices after which an image may be
// inserted: not the first paragraph, and not inside a code fence.
func insertablePositions(paragraphs []string) []int {
	var out []int
	inFence := false
	for i, para := range paragraphs {
		fences := strings.Count(para, "```")
		opensOrCloses := fences%2 == 1
		if inFence {
			if opensOrCloses {
				inFence = false
			}
			continue
		}
		if opensOrCloses {
			inFence = true
			continue
		}
		if i == 0 {
			continue
		}
		out = append(out, i)
	}
	return out
}

// evenPositions spreads count insertion points evenly across the insertable
// paragraphs. Deterministic for a given body.
func evenPositions(insertable []int, count int) []int {
	if count > len(insertable) {
		count = len(insertable)
	}
	step := len(insertable) / (count + 1)
	if step < 1 {
		step = 1
	}
	var out []int
	for i := 1; i <= count; i++ {
		idx := i*step - 1
		if idx >= len(insertable) {
			idx = len(insertable) - 1
		}
		out = append(out, insertable[idx])
	}
	// Dedupe while preserving order; short bodies can collide.
	seen := make(map[int]bool, len(out))
	uniq := out[:0]
	for _, pos := range out {
		if !seen[pos] {
			seen[pos] = true
			uniq = append(uniq, pos)
		}
	}
	return uniq
}
