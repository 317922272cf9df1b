// Package goqueryparser implements crawler.Parser using goquery.
package goqueryparser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crawlkit/crawlkit/internal/crawler"
)

// Parser extracts titles and anchor hrefs from HTML documents.
type Parser struct{}

// New returns a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse extracts the document title and every anchor href, resolving
// relative hrefs against base. Documents without a title get
// crawler.NoTitle. Hrefs that do not parse are dropped silently.
func (p *Parser) Parse(body []byte, base *url.URL) (crawler.ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return crawler.ParseResult{}, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = crawler.NoTitle
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		links = append(links, abs.String())
	})

	return crawler.ParseResult{Title: title, Links: links}, nil
}
