// Package extract converts raw HTML into a title and cleaned plain text.
package extract

import (
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum text length (in characters) for
// readability output to be considered valid. Below this we assume the
// algorithm failed to find the main content and fall back to a plain
// DOM text walk.
const minContentLength = 50

// Result carries the cleaned content of one page.
type Result struct {
	Title string
	Text  string
}

// Extract runs the Mozilla Readability algorithm on rawHTML and returns the
// page title plus cleaned plain text. It is best-effort and never fails:
// malformed HTML, a broken source URL, or a readability miss all degrade to
// a raw text walk of the document with scripts and styles stripped.
func Extract(rawHTML, sourceURL string) Result {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return fallback(rawHTML)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return fallback(rawHTML)
	}

	text := normalizeWhitespace(article.TextContent)
	if len(text) < minContentLength {
		res := fallback(rawHTML)
		if res.Title == "" {
			res.Title = strings.TrimSpace(article.Title)
		}
		return res
	}

	return Result{
		Title: strings.TrimSpace(article.Title),
		Text:  text,
	}
}

func fallback(rawHTML string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Result{Text: normalizeWhitespace(rawHTML)}
	}
	doc.Find("script, style, noscript").Remove()
	return Result{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  normalizeWhitespace(doc.Find("body").Text()),
	}
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
