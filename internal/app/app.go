// Package app is the composition root: it resolves Config (see config.go)
// and wires the discovery Engine's ports together, grounded on the
// teacher's internal/app/app.go App struct + New/Close shape. The teacher's
// LLM/search/synth pipeline is replaced end to end with the crawl → rank →
// validate → select → version → mirror → registry-upsert ports the
// discovery use case needs.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Franco1312/autodiscovery-sources/internal/contract"
	"github.com/Franco1312/autodiscovery-sources/internal/crawler"
	"github.com/Franco1312/autodiscovery-sources/internal/discovery"
	"github.com/Franco1312/autodiscovery-sources/internal/htmlextract"
	"github.com/Franco1312/autodiscovery-sources/internal/httpclient"
	"github.com/Franco1312/autodiscovery-sources/internal/metrics"
	"github.com/Franco1312/autodiscovery-sources/internal/mirror"
	"github.com/Franco1312/autodiscovery-sources/internal/registry"
	"github.com/Franco1312/autodiscovery-sources/internal/validate"
)

// App owns the wired engine plus the ambient ports (metrics, contracts)
// a CLI command needs beyond what Engine itself exposes.
type App struct {
	cfg      Config
	Engine   *discovery.Engine
	Metrics  *metrics.Registry
	Contract contract.Repository
}

// New wires an App from a resolved Config, grounded on the teacher's
// New(ctx, cfg) constructor: an HTTP client first, then the ports that
// depend on it, then the use case engine that depends on all of them.
func New(ctx context.Context, cfg Config) (*App, error) {
	var m *metrics.Registry
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	httpClient := httpclient.NewClient(cfg.UserAgent, cfg.InsecureSkipVerify)
	httpClient.Metrics = m
	if cfg.HTTPHeadTimeout > 0 {
		httpClient.HeadTimeout = cfg.HTTPHeadTimeout
	}
	if cfg.HTTPGetTimeout > 0 {
		httpClient.GetTimeout = cfg.HTTPGetTimeout
	}

	contracts := contract.NewFileRepository(cfg.ContractsPath)
	if _, err := contracts.Keys(); err != nil {
		log.Warn().Err(err).Str("path", cfg.ContractsPath).Msg("contracts file unreadable at startup; continuing")
	}

	reg, err := registry.NewFileRepository(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	if err := mirror.SweepStrayTemp(cfg.MirrorRoot); err != nil {
		log.Warn().Err(err).Str("root", cfg.MirrorRoot).Msg("stray temp sweep failed; continuing")
	}
	mir := mirror.New(cfg.MirrorRoot, httpClient, nil)
	mir.Metrics = m

	engine := &discovery.Engine{
		Contracts: contracts,
		HTTP:      httpClient,
		Crawler:   crawler.New(httpClient, htmlextract.Extractor{}),
		Validator: validate.NewValidator(httpClient),
		Mirror:    mir,
		Registry:  reg,
	}

	return &App{cfg: cfg, Engine: engine, Metrics: m, Contract: contracts}, nil
}

func (a *App) Close() {
	// nothing to release: registry and contract repositories are plain
	// files, reopened per call rather than held as live handles.
}

// Discover runs the discover operation for one key (spec §4.10, §7
// "discover <key> [--mirror/--no-mirror]"). mirror=false disables
// mirroring for this call only; mirror=true leaves it to the contract's
// own mirror.enabled flag, so a contract without it is not mirrored.
func (a *App) Discover(ctx context.Context, key string, mirror bool) discovery.Result {
	engineMirror := a.Engine.Mirror
	if !mirror {
		a.Engine.Mirror = nil
	}
	result := a.Engine.Discover(ctx, key, a.cfg.Fast)
	a.Engine.Mirror = engineMirror
	a.recordAttempt(key, result.Success)
	return result
}

// Validate runs the validate_source operation for one key (spec §4.10, §7 "validate").
func (a *App) Validate(ctx context.Context, key string) discovery.Result {
	result := a.Engine.ValidateSource(ctx, key)
	a.recordAttempt(key, result.Success)
	return result
}

// SyncAll runs discover for every contract key (spec §7 "sync --all").
func (a *App) SyncAll(ctx context.Context) []discovery.Result {
	results := a.Engine.SyncAll(ctx, a.cfg.SyncConcurrency, a.cfg.Fast)
	for _, r := range results {
		a.recordAttempt(r.Key, r.Success)
	}
	return results
}

func (a *App) recordAttempt(key string, success bool) {
	if a.Metrics == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	a.Metrics.DiscoveryAttempts.WithLabelValues(key, outcome).Inc()
}
