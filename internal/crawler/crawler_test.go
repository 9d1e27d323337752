package crawler

import (
	"context"
	"testing"

	"github.com/Franco1312/autodiscovery-sources/internal/contract"
	"github.com/Franco1312/autodiscovery-sources/internal/htmlextract"
	"github.com/Franco1312/autodiscovery-sources/internal/httpclient"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

type fakePage struct {
	body        []byte
	contentType string
}

type fakeHTTP struct {
	pages map[string]fakePage
}

func (f *fakeHTTP) Get(ctx context.Context, rawURL string) ([]byte, httpclient.Headers, error) {
	p, ok := f.pages[rawURL]
	if !ok {
		return nil, nil, context.DeadlineExceeded
	}
	return p.body, httpclient.Headers{"content-type": p.contentType}, nil
}

func TestCrawlFindsTerminalCandidates(t *testing.T) {
	start := "https://example.com/reports/index.html"
	http := &fakeHTTP{pages: map[string]fakePage{
		start: {
			body: []byte(`<html><body>
				<a href="/files/infomodia-2025-11-04.xls">November report</a>
				<a href="/files/unrelated.html">Other page</a>
			</body></html>`),
			contentType: "text/html",
		},
	}}
	c := New(http, htmlextract.Extractor{})
	candidates := c.Crawl(context.Background(), "infomodia", []string{start}, contract.Scope{MaxDepth: 2, MaxCandidates: 10}, contract.Find{})
	if len(candidates) != 1 {
		t.Fatalf("expected 1 terminal candidate, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].URL != "https://example.com/files/infomodia-2025-11-04.xls" {
		t.Fatalf("unexpected candidate url: %s", candidates[0].URL)
	}
}

func TestCrawlRespectsMaxCandidatesCap(t *testing.T) {
	start := "https://example.com/index.html"
	body := `<html><body>`
	for i := 0; i < 50; i++ {
		body += `<a href="/files/f` + string(rune('a'+i%26)) + `.pdf">f</a>`
	}
	body += `</body></html>`
	http := &fakeHTTP{pages: map[string]fakePage{
		start: {body: []byte(body), contentType: "text/html"},
	}}
	c := New(http, htmlextract.Extractor{})
	candidates := c.Crawl(context.Background(), "k", []string{start}, contract.Scope{MaxDepth: 1, MaxCandidates: 1}, contract.Find{})
	if len(candidates) != 1 {
		t.Fatalf("expected fast-mode cap of 1, got %d", len(candidates))
	}
}

func TestCrawlPrefilterByLinkText(t *testing.T) {
	start := "https://example.com/index.html"
	http := &fakeHTTP{pages: map[string]fakePage{
		start: {
			body: []byte(`<html><body>
				<a href="/a.pdf">unrelated</a>
				<a href="/b.pdf">annual report</a>
			</body></html>`),
			contentType: "text/html",
		},
	}}
	c := New(http, htmlextract.Extractor{})
	candidates := c.Crawl(context.Background(), "k", []string{start}, contract.Scope{MaxDepth: 1, MaxCandidates: 10}, contract.Find{
		LinkTextAny: []string{"annual"},
	})
	if len(candidates) != 1 || candidates[0].URL != "https://example.com/b.pdf" {
		t.Fatalf("prefilter did not apply: %+v", candidates)
	}
}

func TestCrawlScopeRejectsOtherDomains(t *testing.T) {
	start := "https://example.com/index.html"
	http := &fakeHTTP{pages: map[string]fakePage{
		start: {
			body: []byte(`<html><body><a href="https://other.com/a.pdf">x</a></body></html>`),
			contentType: "text/html",
		},
	}}
	c := New(http, htmlextract.Extractor{})
	candidates := c.Crawl(context.Background(), "k", []string{start}, contract.Scope{MaxDepth: 2, MaxCandidates: 10, AllowDomains: []string{"example.com"}}, contract.Find{})
	if len(candidates) != 0 {
		t.Fatalf("expected scope to reject other.com, got %+v", candidates)
	}
}

var _ = types.Candidate{}
