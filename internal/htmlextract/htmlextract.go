// Package htmlextract is the HTML port (spec §4.2): parses a page body and
// emits normalized, absolute (href, anchor text) pairs. Grounded on
// goresearch/internal/extract.FromHTML's golang.org/x/net/html walk,
// repurposed from text extraction to link extraction — callers, not this
// package, decide which links matter.
package htmlextract

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

// Link is one extracted (absolute URL, anchor text) pair.
type Link struct {
	URL  string
	Text string
}

// Port is the HTML boundary the crawler depends on.
type Port interface {
	ExtractLinks(body []byte, baseURL string) ([]Link, error)
}

// Extractor is the default Port implementation.
type Extractor struct{}

// ExtractLinks resolves //host, /absolute, and relative hrefs against
// baseURL (honoring an in-document <base href> if present), normalizes
// each absolute URL (percent-encoding path segments, stripping fragments),
// and returns one Link per anchor with a resolvable href. No content
// filtering occurs here; callers filter (spec §4.2).
func (Extractor) ExtractLinks(body []byte, baseURL string) ([]Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	effectiveBase := base
	if docBase := findBaseHref(root); docBase != "" {
		if resolved, err := base.Parse(docBase); err == nil {
			effectiveBase = resolved
		}
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "a") {
			href, ok := attr(n, "href")
			if ok && strings.TrimSpace(href) != "" {
				if abs, ok := resolve(effectiveBase, href); ok {
					links = append(links, Link{URL: abs, Text: collectText(n)})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links, nil
}

func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	normalized, err := types.NormalizeURL(resolved.String())
	if err != nil {
		return "", false
	}
	return normalized, true
}

func findBaseHref(n *html.Node) string {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, "base") {
		if href, ok := attr(n, "href"); ok {
			return href
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v := findBaseHref(c); v != "" {
			return v
		}
	}
	return ""
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(collapseSpaces(b.String()))
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
