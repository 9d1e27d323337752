// Package discovery wires crawl → rank → validate → select → version →
// mirror → registry-upsert into the single per-key use case (spec §4.10),
// grounded on the Python original's
// usecases/discover_source.py DiscoverSourceUseCase — its
// _discover_html/_discover_api dispatch on source_type, its known_urls
// fallback when the crawl returns nothing, and its fast-mode override of
// scope.max_depth/max_candidates are all carried across unchanged in
// meaning, only rewritten from a single 200-line method into named stages
// a Go reader can follow one at a time.
package discovery

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Franco1312/autodiscovery-sources/internal/contract"
	"github.com/Franco1312/autodiscovery-sources/internal/crawler"
	"github.com/Franco1312/autodiscovery-sources/internal/httpclient"
	"github.com/Franco1312/autodiscovery-sources/internal/mirror"
	"github.com/Franco1312/autodiscovery-sources/internal/rank"
	"github.com/Franco1312/autodiscovery-sources/internal/registry"
	selecter "github.com/Franco1312/autodiscovery-sources/internal/select"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
	"github.com/Franco1312/autodiscovery-sources/internal/validate"
	"github.com/Franco1312/autodiscovery-sources/internal/version"
)

// HTTPPort is the HTTP surface the use case needs directly (GET for API
// sources and for fetching the selected candidate's body before mirroring).
type HTTPPort interface {
	Get(ctx context.Context, rawURL string) ([]byte, httpclient.Headers, error)
}

// Result is the use case's outcome, mirroring the Python original's
// Optional[RegistryEntry] return plus an explicit success/error shape so
// callers (CLI, SyncAll worker pool) don't have to infer failure from nil.
type Result struct {
	Key     string
	Success bool
	Entry   types.RegistryEntry
	Err     error
}

// Engine runs the discovery use case for one source key per call.
type Engine struct {
	Contracts contract.Repository
	HTTP      HTTPPort
	Crawler   *crawler.Crawler
	Validator *validate.Validator
	Mirror    *mirror.Mirror
	Registry  registry.Repository
	Now       func() time.Time
}

// Discover implements spec §4.10's top-level state machine: LOAD_CONTRACT,
// then dispatch on source_type. fast forces scope.max_depth=1,
// scope.max_candidates=1, matching the Python original's fast-mode
// override applied before dispatch.
func (e *Engine) Discover(ctx context.Context, key string, fast bool) Result {
	runID := uuid.NewString()
	logger := log.With().Str("key", key).Str("run_id", runID).Logger()

	c, found, err := e.Contracts.Get(key)
	if err != nil {
		logger.Error().Err(err).Str("stage", "load_contract").Msg("discover failed")
		return Result{Key: key, Err: types.Wrap(types.KindContract, "load", err)}
	}
	if !found {
		logger.Error().Str("stage", "load_contract").Msg("discover failed")
		return Result{Key: key, Err: types.Wrap(types.KindContract, "load", errNotFound(key))}
	}
	if err := c.Validate(); err != nil {
		logger.Error().Err(err).Str("stage", "validate_contract").Msg("discover failed")
		return Result{Key: key, Err: types.Wrap(types.KindContract, "validate", err)}
	}

	if fast {
		c.Scope.MaxDepth = 1
		c.Scope.MaxCandidates = 1
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	var result Result
	if c.SourceType == contract.SourceAPI {
		result = e.discoverAPI(ctx, c, now())
	} else {
		result = e.discoverHTML(ctx, c, now())
	}
	if result.Success {
		logger.Info().Str("version", result.Entry.Version).Str("url", result.Entry.URL).Msg("discover succeeded")
	} else {
		logger.Error().Err(result.Err).Str("kind", string(types.KindOf(result.Err))).Msg("discover failed")
	}
	return result
}

func (e *Engine) discoverAPI(ctx context.Context, c contract.Contract, now time.Time) Result {
	endpoint := c.StartURLs[0]
	body, headers, err := e.HTTP.Get(ctx, endpoint)
	if err != nil {
		return Result{Key: c.Key, Err: types.Wrap(types.KindNetwork, "api_fetch", err)}
	}

	sum := types.SumBytes(body)
	v := version.Derive(c.Versioning, "", headers.Get("last-modified"), nil, now)
	filename := filenameFromEndpoint(endpoint, c.Key)
	mime := types.NewMimeType(contentTypeOnly(headers.Get("content-type")))
	sizeKB := types.SizeKBFromBytes(int64(len(body)))

	entry := types.RegistryEntry{
		Key:         c.Key,
		URL:         endpoint,
		Version:     string(v),
		Filename:    filename,
		Mime:        string(mime),
		SizeKB:      float64(sizeKB),
		Sha256:      string(sum),
		LastChecked: types.NowISO8601UTC(now),
		Status:      types.StatusOK,
		Notes:       "api_source",
		Related:     c.Related,
	}

	if c.MirrorCfg.Enabled && e.Mirror != nil {
		result, mirrErr := e.Mirror.MirrorFile(ctx, endpoint, types.SourceKey(c.Key), v, filename, c.MirrorCfg.Compress)
		if mirrErr != nil {
			// A local mirror failure fails discovery and the registry
			// entry is not written.
			return Result{Key: c.Key, Err: mirrErr}
		}
		entry.StoredPath = result.LocalPath
	}

	if err := e.Registry.Upsert(entry); err != nil {
		return Result{Key: c.Key, Err: types.Wrap(types.KindRegistry, "upsert", err)}
	}
	return Result{Key: c.Key, Success: true, Entry: entry}
}

func (e *Engine) discoverHTML(ctx context.Context, c contract.Contract, now time.Time) Result {
	candidates := e.Crawler.Crawl(ctx, types.SourceKey(c.Key), c.StartURLs, c.Scope, c.Find)

	if len(candidates) == 0 && len(c.KnownURLs) > 0 {
		candidates = candidatesFromKnownURLs(c)
	}
	if len(candidates) == 0 {
		return Result{Key: c.Key, Err: types.Wrap(types.KindDiscovery, "crawl", errNoCandidates(c.Key))}
	}
	for i := range candidates {
		candidates[i].RegexGroups = contract.ExtractRegexGroups(candidates[i].Filename, c.Match)
	}

	strongTokens := strongTokensFrom(c.Find)
	ranked := rank.RankAndSort(candidates, strongTokens)

	validated := e.Validator.Validate(ctx, ranked, c.Expect)
	if len(validated) == 0 {
		return Result{Key: c.Key, Err: types.Wrap(types.KindValidation, "validate", errNoValidCandidates(c.Key))}
	}

	selected, ok := selecter.Select(validated, c.Select)
	if !ok {
		return Result{Key: c.Key, Err: types.Wrap(types.KindDiscovery, "select", errNoSelection(c.Key))}
	}

	body, headers, err := e.HTTP.Get(ctx, selected.URL)
	if err != nil {
		return Result{Key: c.Key, Err: types.Wrap(types.KindNetwork, "fetch_selected", err)}
	}
	sum := types.SumBytes(body)

	v := version.Derive(c.Versioning, selected.Filename, headers.Get("last-modified"), selected.RegexGroups, now)

	entry := types.RegistryEntry{
		Key:         c.Key,
		URL:         selected.URL,
		Version:     string(v),
		Filename:    selected.Filename,
		Mime:        string(selected.Mime),
		SizeKB:      float64(selected.SizeKB),
		Sha256:      string(sum),
		LastChecked: types.NowISO8601UTC(now),
		Status:      types.StatusOK,
		Notes:       selected.Notes,
		Related:     c.Related,
	}

	if c.MirrorCfg.Enabled && e.Mirror != nil {
		result, mirrErr := e.Mirror.MirrorFile(ctx, selected.URL, types.SourceKey(c.Key), v, selected.Filename, c.MirrorCfg.Compress)
		if mirrErr != nil {
			return Result{Key: c.Key, Err: mirrErr}
		}
		entry.StoredPath = result.LocalPath
	}

	if err := e.Registry.Upsert(entry); err != nil {
		return Result{Key: c.Key, Err: types.Wrap(types.KindRegistry, "upsert", err)}
	}
	return Result{Key: c.Key, Success: true, Entry: entry}
}

// ValidateSource revalidates only the latest registry entry's URL, per
// spec §4.10's "validate_source" operation — it never re-crawls.
func (e *Engine) ValidateSource(ctx context.Context, key string) Result {
	entry, found, err := e.Registry.Get(key)
	if err != nil {
		return Result{Key: key, Err: types.Wrap(types.KindRegistry, "get", err)}
	}
	if !found {
		return Result{Key: key, Err: types.Wrap(types.KindRegistry, "get", errNotFound(key))}
	}

	c, found, err := e.Contracts.Get(key)
	if err != nil {
		return Result{Key: key, Err: types.Wrap(types.KindContract, "load", err)}
	}
	if !found {
		return Result{Key: key, Err: types.Wrap(types.KindContract, "load", errNotFound(key))}
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	t := now()

	candidate := types.Candidate{Key: types.SourceKey(key), URL: entry.URL, Filename: entry.Filename}
	validated := e.Validator.Validate(ctx, []types.Candidate{candidate}, c.Expect)

	updated := entry
	updated.LastChecked = types.NowISO8601UTC(t)
	if len(validated) == 0 {
		// A broken source keeps its last-known mirror/location untouched
		// (spec §9 Open Question b): only Status and LastChecked change.
		updated.Status = types.StatusBroken
		if err := e.Registry.Upsert(updated); err != nil {
			return Result{Key: key, Err: types.Wrap(types.KindRegistry, "upsert", err)}
		}
		return Result{Key: key, Success: false, Entry: updated}
	}

	v := validated[0]
	updated.Mime = string(v.Mime)
	updated.SizeKB = float64(v.SizeKB)
	updated.Status = types.StatusOK
	if err := e.Registry.Upsert(updated); err != nil {
		return Result{Key: key, Err: types.Wrap(types.KindRegistry, "upsert", err)}
	}
	return Result{Key: key, Success: true, Entry: updated}
}

// SyncAll runs Discover for every key in a bounded-concurrency worker pool
// (spec §4.10's sync --all: "always attempts every key, regardless of
// earlier failures," resolving Open Question (c)).
func (e *Engine) SyncAll(ctx context.Context, concurrency int, fast bool) []Result {
	keys, err := e.Contracts.Keys()
	if err != nil {
		return []Result{{Err: types.Wrap(types.KindContract, "keys", err)}}
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]Result, len(keys))
	jobs := make(chan int)
	done := make(chan struct{})

	worker := func() {
		for i := range jobs {
			results[i] = e.Discover(ctx, keys[i], fast)
		}
		done <- struct{}{}
	}
	for i := 0; i < concurrency; i++ {
		go worker()
	}
	go func() {
		for i := range keys {
			jobs <- i
		}
		close(jobs)
	}()
	for i := 0; i < concurrency; i++ {
		<-done
	}
	return results
}

func candidatesFromKnownURLs(c contract.Contract) []types.Candidate {
	out := make([]types.Candidate, 0, len(c.KnownURLs))
	for _, u := range c.KnownURLs {
		out = append(out, types.Candidate{
			Key:      types.SourceKey(c.Key),
			URL:      u,
			Filename: filenameFromEndpoint(u, c.Key),
			Score:    100,
		})
	}
	return out
}

func strongTokensFrom(find contract.Find) []string {
	tokens := make([]string, 0, len(find.URLTokensAny)+len(find.LinkTextAny))
	tokens = append(tokens, find.URLTokensAny...)
	tokens = append(tokens, find.LinkTextAny...)
	return tokens
}

func filenameFromEndpoint(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return key + ".json"
	}
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" || !strings.Contains(last, ".") {
		return key + ".json"
	}
	return last
}

func contentTypeOnly(headerValue string) string {
	if idx := strings.Index(headerValue, ";"); idx >= 0 {
		return strings.TrimSpace(headerValue[:idx])
	}
	return strings.TrimSpace(headerValue)
}

type discoveryErr string

func (e discoveryErr) Error() string { return string(e) }

func errNotFound(key string) error {
	return discoveryErr("no contract or registry entry found for key: " + key)
}

func errNoCandidates(key string) error {
	return discoveryErr("no candidates found for key: " + key)
}

func errNoValidCandidates(key string) error {
	return discoveryErr("no candidate passed validation for key: " + key)
}

func errNoSelection(key string) error {
	return discoveryErr("selector produced no winner for key: " + key)
}
