// Package validate is the validator (spec §4.5): per-candidate HEAD, GET
// fallback, acceptance (MIME/size/age) enforcement. Kept as its own
// package — as the teacher does for its validation concern — but rebuilt
// for this spec's MIME/size/age acceptance semantics instead of the
// teacher's prose-audience validation.
package validate

import (
	"context"
	"time"

	"github.com/Franco1312/autodiscovery-sources/internal/contract"
	"github.com/Franco1312/autodiscovery-sources/internal/httpclient"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
	"github.com/Franco1312/autodiscovery-sources/internal/version"
)

// headFallbackNote is recorded on a candidate when HEAD failed but GET
// succeeded (spec §4.5, scenario S3).
const headFallbackNote = "head_failed_get_ok"

// minAttachmentFloorKB is the default size floor below which an
// attachment-flagged candidate is still rejected (spec §4.5).
const minAttachmentFloorKB = 1.0

var htmlLikeMimes = map[string]bool{
	"text/html":             true,
	"text/plain":            true,
	"application/xhtml+xml": true,
}

// Port is the validator boundary the discovery use case depends on.
type Port interface {
	Validate(ctx context.Context, candidates []types.Candidate, expect contract.Expect) []types.Candidate
}

// HTTPPort is the minimal HTTP surface the validator needs (HEAD + GET),
// kept narrower than httpclient.Port so tests can provide a small fake.
type HTTPPort interface {
	Head(ctx context.Context, rawURL string) (httpclient.Headers, error)
	Get(ctx context.Context, rawURL string) ([]byte, httpclient.Headers, error)
}

// Validator is the default Port implementation.
type Validator struct {
	HTTP HTTPPort
	Now  func() time.Time
}

// NewValidator returns a Validator backed by http, using time.Now unless
// overridden (tests inject a fixed clock for age-check determinism).
func NewValidator(http HTTPPort) *Validator {
	return &Validator{HTTP: http, Now: time.Now}
}

// Validate applies spec §4.5 to each ranked candidate in order, returning
// only the accepted subset with populated metadata. Per-candidate network
// or parse errors drop the candidate silently (propagation policy §7: "one
// broken link does not abort the whole run").
func (v *Validator) Validate(ctx context.Context, candidates []types.Candidate, expect contract.Expect) []types.Candidate {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	var accepted []types.Candidate
	for _, c := range candidates {
		validated, ok := v.validateOne(ctx, c, expect, now())
		if ok {
			accepted = append(accepted, validated)
		}
	}
	return accepted
}

func (v *Validator) validateOne(ctx context.Context, c types.Candidate, expect contract.Expect, now time.Time) (types.Candidate, bool) {
	headers, err := v.HTTP.Head(ctx, c.URL)
	usedGetFallback := false
	var body []byte
	if err != nil {
		body, headers, err = v.HTTP.Get(ctx, c.URL)
		if err != nil {
			return types.Candidate{}, false
		}
		usedGetFallback = true
	}

	populated := populateMetadata(c, headers, usedGetFallback)
	_ = body // the candidate body is re-fetched post-selection; validation only needs headers/metadata

	if !accept(populated, expect, now) {
		return types.Candidate{}, false
	}
	return populated, true
}

func populateMetadata(c types.Candidate, headers httpclient.Headers, usedGetFallback bool) types.Candidate {
	c.Mime = types.NewMimeType(headers.Get("content-type"))
	if n, ok := httpclient.ParseContentLength(headers); ok {
		c.SizeKB = types.SizeKBFromBytes(n)
		c.HasSize = true
	} else {
		c.SizeKB = 0
		c.HasSize = true // spec: absent Content-Length ⇒ size_kb=0, still a known (zero) size
	}
	if lm := headers.Get("last-modified"); lm != "" {
		if t, err := time.Parse(time.RFC1123, lm); err == nil {
			c.LastModified = t.UTC()
			c.HasLastMod = true
		} else if v := version.DateFromLastModified(lm); v != "" {
			if t, ok := version.ParseForOrdering(types.Version(v)); ok {
				c.LastModified = t
				c.HasLastMod = true
			}
		}
	}
	if name, ok := httpclient.ContentDispositionFilename(headers.Get("content-disposition")); ok {
		c.Filename = name
	}
	c.Attachment = httpclient.IsAttachment(headers.Get("content-disposition"))
	if usedGetFallback {
		if c.Notes != "" {
			c.Notes += ";" + headFallbackNote
		} else {
			c.Notes = headFallbackNote
		}
	}
	return c
}

// accept applies the predicates of spec §4.5: HTML rejection first (an
// attachment-flagged HTML-like response is decided by the size floor
// alone), then the MIME, size and age checks.
func accept(c types.Candidate, expect contract.Expect, now time.Time) bool {
	if htmlLikeMimes[string(c.Mime)] {
		if !c.Attachment {
			return false
		}
		return c.SizeKB.Float64() >= minAttachmentFloorKB
	}

	if len(expect.MimeAny) > 0 {
		matched := false
		for _, m := range expect.MimeAny {
			if c.Mime.EqualFold(m) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if expect.MinSizeKB > 0 && c.SizeKB.Float64() < expect.MinSizeKB {
		return false
	}

	if expect.MaxAgeDays > 0 && c.HasLastMod {
		age := now.Sub(c.LastModified)
		if age > time.Duration(expect.MaxAgeDays)*24*time.Hour {
			return false
		}
	}

	return true
}
