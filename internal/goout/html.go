package goout

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var eventPathPattern = regexp.MustCompile(`/event/([a-zA-Z0-9-]+)`)

// ExtractSlugsFromHTML scans the raw page text for /event/<slug> references.
// Entities are not decoded. Slugs are de-duplicated keeping first-seen order.
func ExtractSlugsFromHTML(page []byte) []string {
	slugs := make([]string, 0)
	seen := make(map[string]bool)
	for _, match := range eventPathPattern.FindAllSubmatch(page, -1) {
		slug := string(match[1])
		if seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}
	return slugs
}

// PageTitle returns the trimmed <title> of a page, or "" when it has none
func PageTitle(page []byte) string {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	doc := goquery.NewDocumentFromNode(root)
	return strings.TrimSpace(doc.Find("title").First().Text())
}
