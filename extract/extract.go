// Package extract downloads a resolved article page and pulls out its title,
// body text, author, publication date and description. A selector-based
// heuristic runs first; when it yields too little text, a generic readability
// pass over the same HTML serves as fallback.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ncortes/newsenrich/fetch"
)

// ErrNoContent is returned when the page fetched fine but neither extraction
// pass produced enough body text.
var ErrNoContent = errors.New("no usable article content")

// DefaultMinContentChars is the minimum body length for an extraction to
// count as successful.
const DefaultMinContentChars = 200

// Pages larger than this are truncated before parsing.
const maxBodyBytes = 5 << 20

// Article is the extracted content of one news page.
type Article struct {
	Title       string
	Content     string
	Author      string
	DateISO     string
	Description string
	Words       int
	HTTPStatus  int
	Method      string
}

// Extractor fetches and parses article pages.
type Extractor struct {
	client   *fetch.Client
	minChars int
}

// New creates an extractor. Zero minChars uses DefaultMinContentChars.
func New(client *fetch.Client, minChars int) *Extractor {
	if client == nil {
		client = fetch.NewClient(0)
	}
	if minChars <= 0 {
		minChars = DefaultMinContentChars
	}
	return &Extractor{client: client, minChars: minChars}
}

// Extract downloads pageURL and returns its article content. The page is
// fetched once; both extraction passes work on the same bytes. The returned
// Article carries the HTTP status even when extraction fails.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (Article, error) {
	resp, err := e.client.Get(ctx, pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		io.Copy(io.Discard, resp.Body)
		return Article{HTTPStatus: resp.StatusCode}, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Article{HTTPStatus: resp.StatusCode}, fmt.Errorf("failed to read page: %w", err)
	}

	article := e.FromHTML(string(body), pageURL)
	article.HTTPStatus = resp.StatusCode
	if len(strings.TrimSpace(article.Content)) < e.minChars {
		return article, ErrNoContent
	}
	return article, nil
}

// FromHTML runs the extraction passes over already-fetched HTML. The caller
// checks the content-length threshold; FromHTML returns the best candidate
// either way.
func (e *Extractor) FromHTML(html, pageURL string) Article {
	article := extractHeuristic(html)
	article.Method = "goquery"

	if len(strings.TrimSpace(article.Content)) < e.minChars {
		if fallback, ok := extractReadability(html, pageURL); ok &&
			len(fallback.Content) > len(strings.TrimSpace(article.Content)) {
			// Keep metadata the heuristic found that readability missed.
			if fallback.Title == "" {
				fallback.Title = article.Title
			}
			if fallback.Author == "" {
				fallback.Author = article.Author
			}
			if fallback.DateISO == "" {
				fallback.DateISO = article.DateISO
			}
			if fallback.Description == "" {
				fallback.Description = article.Description
			}
			article = fallback
		}
	}

	article.Content = strings.TrimSpace(article.Content)
	article.Words = len(strings.Fields(article.Content))
	return article
}

// Selectors tried in order for the article body.
var contentSelectors = []string{
	"article",
	"[role='main']",
	"main",
	".article-body",
	".article-content",
	".entry-content",
	".post-content",
	".nota-contenido",
	".cuerpo-noticia",
	"#article-body",
}

// extractHeuristic pulls article fields out of the DOM with selectors tuned
// for news sites.
func extractHeuristic(html string) Article {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Article{}
	}

	doc.Find("script, style, nav, header, footer, aside, form, iframe, noscript").Remove()

	var article Article
	article.Title = firstNonEmpty(
		metaContent(doc, "meta[property='og:title']"),
		strings.TrimSpace(doc.Find("h1").First().Text()),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	article.Description = firstNonEmpty(
		metaContent(doc, "meta[property='og:description']"),
		metaContent(doc, "meta[name='description']"),
	)
	article.Author = firstNonEmpty(
		metaContent(doc, "meta[name='author']"),
		metaContent(doc, "meta[property='article:author']"),
		strings.TrimSpace(doc.Find(".author, .byline, [rel='author']").First().Text()),
	)
	article.DateISO = NormalizeDate(firstNonEmpty(
		metaContent(doc, "meta[property='article:published_time']"),
		datetimeAttr(doc),
		metaContent(doc, "meta[name='date']"),
	))

	for _, selector := range contentSelectors {
		if text := blockText(doc.Find(selector).First()); text != "" {
			article.Content = text
			break
		}
	}
	if article.Content == "" {
		// No recognized container: take every paragraph on the page.
		article.Content = blockText(doc.Find("body"))
	}
	return article
}

// blockText joins the paragraph texts under a selection, skipping fragments
// too short to be prose.
func blockText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) >= 25 {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func datetimeAttr(doc *goquery.Document) string {
	value, _ := doc.Find("time[datetime]").First().Attr("datetime")
	return strings.TrimSpace(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
