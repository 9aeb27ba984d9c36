package fetch

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Page is extracted page content ready for aggregation.
type Page struct {
	URL      string
	Title    string
	Markdown string
	Images   []PageImage
}

// PageImage is an image reference found in the article body.
type PageImage struct {
	Src string
	Alt string
}

var (
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// newMarkdownConverter builds the shared HTML→markdown converter.
func newMarkdownConverter() *md.Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return conv
}

// extractor turns raw page HTML into a Page via readability article
// extraction and markdown conversion.
type extractor struct {
	converter *md.Converter
}

func newExtractor() *extractor {
	return &extractor{converter: newMarkdownConverter()}
}

// Extract reduces raw HTML to readable article markdown. Returns a
// PARSE_FAILURE FetchError when no usable article can be recovered.
func (e *extractor) Extract(rawHTML, pageURL string) (*Page, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonParseFailure, Err: err}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonParseFailure, Err: err}
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, &FetchError{URL: pageURL, Reason: ReasonParseFailure, Err: fmt.Errorf("empty article body")}
	}

	markdown, err := e.converter.ConvertString(article.Content)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonParseFailure, Err: err}
	}
	markdown = cleanMarkdown(markdown)
	if markdown == "" {
		return nil, &FetchError{URL: pageURL, Reason: ReasonParseFailure, Err: fmt.Errorf("no text content")}
	}

	return &Page{
		URL:      pageURL,
		Title:    strings.TrimSpace(article.Title),
		Markdown: markdown,
		Images:   harvestImages(article.Content, parsedURL),
	}, nil
}

// harvestImages collects absolute image URLs from the article HTML.
func harvestImages(articleHTML string, base *url.URL) []PageImage {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		return nil
	}
	var images []PageImage
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if ref, err := url.Parse(src); err == nil {
			src = base.ResolveReference(ref).String()
		}
		images = append(images, PageImage{
			Src: src,
			Alt: sel.AttrOr("alt", ""),
		})
	})
	return images
}

// cleanMarkdown collapses runaway whitespace left by conversion.
func cleanMarkdown(s string) string {
	s = multiNewlineRe.ReplaceAllString(s, "\n\n")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
