// Package document models a synthesized document and writes it to disk.
package document

import (
	"fmt"
	"regexp"
	"strings"
)

// Reference is a cited source, numbered by first appearance in the corpus.
type Reference struct {
	Number int
	Title  string
	URL    string
}

// ImageCredit attributes a placed image.
type ImageCredit struct {
	Author    string
	AuthorURL string
	Source    string
}

// Document is the assembled output of the synthesis pipeline.
type Document struct {
	Title      string
	Body       string // markdown, may include TOC and inline [n] citations
	References []Reference
	Credits    []ImageCredit
}

// Markdown renders the full document.
func (d *Document) Markdown() string {
	var sb strings.Builder
	if d.Title != "" {
		sb.WriteString("# ")
		sb.WriteString(d.Title)
		sb.WriteString("\n\n")
	}
	sb.WriteString(strings.TrimSpace(d.Body))
	sb.WriteString("\n")

	if len(d.References) > 0 {
		sb.WriteString("\n## References\n\n")
		for _, ref := range d.References {
			title := ref.Title
			if title == "" {
				title = ref.URL
			}
			fmt.Fprintf(&sb, "%d. %s — <%s>\n", ref.Number, title, ref.URL)
		}
	}

	if len(d.Credits) > 0 {
		sb.WriteString("\n## Image Credits\n\n")
		for _, c := range d.Credits {
			if c.AuthorURL != "" {
				fmt.Fprintf(&sb, "- Photo by [%s](%s) on %s\n", c.Author, c.AuthorURL, c.Source)
			} else {
				fmt.Fprintf(&sb, "- Photo by %s on %s\n", c.Author, c.Source)
			}
		}
	}

	return CleanMarkdown(sb.String()) + "\n"
}

var multiBlankRe = regexp.MustCompile(`\n{3,}`)

// CleanMarkdown tidies LLM output: collapses blank-line runs and closes a
// dangling code fence if the model left one open.
func CleanMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = multiBlankRe.ReplaceAllString(s, "\n\n")
	if strings.Count(s, "```")%2 != 0 {
		s = strings.TrimRight(s, "\n") + "\n```"
	}
	return strings.TrimSpace(s)
}
