// Package crawler is the bounded BFS crawler (spec §4.3), grounded on the
// Python original's LinkCrawlerService and URLFilterService
// (src/autodiscovery/application/services/link_crawler_service.py,
// url_filter_service.py), reworked from unbounded recursion into an
// explicit FIFO queue as the spec requires ("State: FIFO queue of
// (url, depth), a visited set, and a candidate list").
package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/Franco1312/autodiscovery-sources/internal/contract"
	"github.com/Franco1312/autodiscovery-sources/internal/htmlextract"
	"github.com/Franco1312/autodiscovery-sources/internal/httpclient"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

// terminalExtensions are the file shapes the crawler treats as terminal
// candidates rather than HTML pages to keep crawling (spec §4.3).
var terminalExtensions = []string{".xls", ".xlsx", ".xlsm", ".pdf", ".zip"}

// HTTPPort is the minimal HTTP surface the crawler needs.
type HTTPPort interface {
	Get(ctx context.Context, rawURL string) ([]byte, httpclient.Headers, error)
}

// Crawler performs the bounded BFS described in spec §4.3.
type Crawler struct {
	HTTP HTTPPort
	HTML htmlextract.Port
}

// New returns a Crawler backed by http and html.
func New(http HTTPPort, html htmlextract.Port) *Crawler {
	return &Crawler{HTTP: http, HTML: html}
}

type queueItem struct {
	url   string
	depth int
}

// Crawl runs the bounded BFS over startURLs per scope/find, returning
// terminal candidates truncated to scope.MaxCandidates.
func (c *Crawler) Crawl(ctx context.Context, key types.SourceKey, startURLs []string, scope contract.Scope, find contract.Find) []types.Candidate {
	maxDepth := scope.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	maxCandidates := scope.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 1 << 30
	}

	visited := make(map[string]bool)
	var queue []queueItem
	for _, u := range startURLs {
		norm, err := types.NormalizeURL(u)
		if err != nil {
			continue
		}
		queue = append(queue, queueItem{url: norm, depth: 0})
	}

	var candidates []types.Candidate
	seen := make(map[string]bool)

	for len(queue) > 0 && len(candidates) < maxCandidates {
		item := queue[0]
		queue = queue[1:]

		if visited[item.url] {
			continue
		}
		if item.depth > maxDepth {
			continue
		}
		if !allowedByScope(item.url, scope) {
			continue
		}
		visited[item.url] = true

		body, headers, err := c.HTTP.Get(ctx, item.url)
		if err != nil {
			continue
		}

		contentType := types.NewMimeType(headers.Get("content-type"))
		if !isHTML(contentType) {
			cand := terminalCandidate(key, item.url, headers)
			candidates = append(candidates, cand)
			if len(candidates) >= maxCandidates {
				break
			}
			continue
		}

		links, err := c.HTML.ExtractLinks(body, item.url)
		if err != nil {
			continue
		}

		for _, link := range links {
			if len(candidates) >= maxCandidates {
				break
			}
			if !passesPrefilter(link, find) {
				continue
			}
			if isTerminalURL(link.URL) {
				// Scope gates which domains may contribute a terminal
				// candidate too, not just which pages get crawled —
				// otherwise scope.allow_domains would not actually bound
				// the artifacts a contract can discover.
				if !allowedByScope(link.URL, scope) {
					continue
				}
				// Dedupe by URL; the query string only counts when
				// scope.dedupe_query is set.
				dedupeKey := link.URL
				if i := strings.IndexByte(dedupeKey, '?'); i >= 0 && !scope.DedupeQuery {
					dedupeKey = dedupeKey[:i]
				}
				if seen[dedupeKey] {
					continue
				}
				seen[dedupeKey] = true
				candidates = append(candidates, types.Candidate{
					Key:      key,
					URL:      link.URL,
					Filename: filenameFromURL(link.URL),
				})
				continue
			}
			if item.depth+1 <= maxDepth && !visited[link.URL] {
				queue = append(queue, queueItem{url: link.URL, depth: item.depth + 1})
			}
		}
	}

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

func terminalCandidate(key types.SourceKey, rawURL string, headers httpclient.Headers) types.Candidate {
	filename := filenameFromURL(rawURL)
	if name, ok := httpclient.ContentDispositionFilename(headers.Get("content-disposition")); ok {
		filename = name
	}
	return types.Candidate{Key: key, URL: rawURL, Filename: filename}
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "file"
	}
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "file"
	}
	decoded, err := url.PathUnescape(last)
	if err != nil {
		return last
	}
	return decoded
}

func isHTML(mime types.MimeType) bool {
	m := string(mime)
	return m == "" || strings.HasPrefix(m, "text/html") || strings.HasPrefix(m, "application/xhtml+xml")
}

func isTerminalURL(rawURL string) bool {
	path := strings.ToLower(rawURL)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	for _, ext := range terminalExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func passesPrefilter(link htmlextract.Link, find contract.Find) bool {
	if len(find.LinkTextAny) == 0 && len(find.URLTokensAny) == 0 {
		return true
	}
	lowerText := strings.ToLower(link.Text)
	for _, needle := range find.LinkTextAny {
		if needle == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(needle)) {
			return true
		}
	}
	lowerURL := strings.ToLower(link.URL)
	for _, needle := range find.URLTokensAny {
		if needle == "" {
			continue
		}
		if strings.Contains(lowerURL, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func allowedByScope(rawURL string, scope contract.Scope) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if len(scope.AllowDomains) > 0 && !domainAllowed(u.Hostname(), scope.AllowDomains) {
		return false
	}
	if len(scope.AllowPathsAny) > 0 && !pathAllowed(u.Path, scope.AllowPathsAny) {
		return false
	}
	return true
}

func domainAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func pathAllowed(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
