package extract

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// extractReadability is the generic fallback pass: a readability parse over
// the already-fetched HTML. It handles layouts the selector heuristic does
// not know about.
func extractReadability(html, pageURL string) (Article, bool) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Article{}, false
	}

	doc, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return Article{}, false
	}

	content := strings.TrimSpace(doc.TextContent)
	if content == "" {
		return Article{}, false
	}

	article := Article{
		Title:       strings.TrimSpace(doc.Title),
		Content:     content,
		Author:      strings.TrimSpace(doc.Byline),
		Description: strings.TrimSpace(doc.Excerpt),
		Method:      "readability",
	}
	if doc.PublishedTime != nil {
		article.DateISO = doc.PublishedTime.Format("2006-01-02T15:04:05")
	}
	return article, true
}
