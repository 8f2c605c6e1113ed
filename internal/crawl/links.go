package crawl

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// discoverPDFLinks parses html for anchors whose target path ends in .pdf and
// resolves each href against pageURL. Results keep document order; duplicates
// are left in, the frontier's pop-time dedup handles them.
func discoverPDFLinks(html []byte, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !strings.HasSuffix(resolved.Path, ".pdf") {
			return
		}
		resolved.Fragment = ""
		links = append(links, resolved.String())
	})
	return links
}

// isPDFURL reports whether the URL's path ends in .pdf.
func isPDFURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.HasSuffix(rawURL, ".pdf")
	}
	return strings.HasSuffix(u.Path, ".pdf")
}
