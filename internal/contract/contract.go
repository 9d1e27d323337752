// Package contract defines the declarative per-source contract (spec §3)
// and a YAML-backed repository for loading it, grounded on the teacher's
// gopkg.in/yaml.v3 usage in internal/app/config_file.go and confirmed by
// the Python original's contract_repository.py (also yaml.safe_load-based).
package contract

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceType distinguishes html-crawl sources from direct API endpoints.
type SourceType string

const (
	SourceHTML SourceType = "html"
	SourceAPI  SourceType = "api"
)

// Scope bounds what the crawler is allowed to fetch.
type Scope struct {
	AllowDomains   []string `yaml:"allow_domains"`
	AllowPathsAny  []string `yaml:"allow_paths_any"`
	MaxDepth       int      `yaml:"max_depth"`
	MaxCandidates  int      `yaml:"max_candidates"`
	// DedupeQuery resolves the Open Question in spec §9: whether query
	// strings are significant when deduping candidate URLs. Off by
	// default (query strings ignored), contract-toggleable.
	DedupeQuery bool `yaml:"dedupe_query"`
}

// Find holds the coarse prefilter applied before any HEAD request.
type Find struct {
	LinkTextAny []string `yaml:"link_text_any"`
	URLTokensAny []string `yaml:"url_tokens_any"`
}

// Match holds contract regexes used for filename/URL shape and date capture.
type Match struct {
	Patterns []string `yaml:"patterns"`
}

// Select holds the selector's extension preference and newest-by strategy.
type Select struct {
	PreferExt []string `yaml:"prefer_ext"`
	NewestBy  string   `yaml:"newest_by"`
}

// Expect holds the validator's acceptance expectations.
type Expect struct {
	MimeAny    []string `yaml:"mime_any"`
	MinSizeKB  float64  `yaml:"min_size_kb"`
	MaxAgeDays int      `yaml:"max_age_days"`
}

// Mirror holds mirroring behavior toggles.
type Mirror struct {
	Enabled  bool `yaml:"enabled"`
	Compress bool `yaml:"compress"`
}

// Contract is the immutable, per-run, per-source declarative specification
// described in spec §3.
type Contract struct {
	Key        string     `yaml:"key"`
	SourceType SourceType `yaml:"source_type"`
	StartURLs  []string   `yaml:"start_urls"`
	KnownURLs  []string   `yaml:"known_urls"`
	Scope      Scope      `yaml:"scope"`
	Find       Find       `yaml:"find"`
	Match      Match      `yaml:"match"`
	Select     Select     `yaml:"select"`
	Expect     Expect     `yaml:"expect"`
	Versioning string     `yaml:"versioning"`
	Related    []string   `yaml:"related"`
	MirrorCfg  Mirror     `yaml:"mirror"`
}

// Repository is the contract-loading port. A single YAML document (a list
// of Contract records) backs the default implementation.
type Repository interface {
	Get(key string) (Contract, bool, error)
	Keys() ([]string, error)
	All() ([]Contract, error)
}

// FileRepository loads contracts from a single YAML file, caching the
// parsed list for the process lifetime (mirrors the Python original's
// ContractRepository, which also memoizes on first load).
type FileRepository struct {
	Path string

	loaded bool
	items  []Contract
}

// NewFileRepository returns a Repository backed by the YAML file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{Path: path}
}

func (r *FileRepository) load() error {
	if r.loaded {
		return nil
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return fmt.Errorf("read contracts file %s: %w", r.Path, err)
	}
	var items []Contract
	if err := yaml.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse contracts file %s: %w", r.Path, err)
	}
	r.items = items
	r.loaded = true
	return nil
}

// Get returns the contract for key, or found=false if no contract declares it.
func (r *FileRepository) Get(key string) (Contract, bool, error) {
	if err := r.load(); err != nil {
		return Contract{}, false, err
	}
	for _, c := range r.items {
		if c.Key == key {
			return c, true, nil
		}
	}
	return Contract{}, false, nil
}

// Keys returns every contract key declared in the file, in file order.
func (r *FileRepository) Keys() ([]string, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(r.items))
	for _, c := range r.items {
		keys = append(keys, c.Key)
	}
	return keys, nil
}

// All returns every contract declared in the file, in file order.
func (r *FileRepository) All() ([]Contract, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]Contract, len(r.items))
	copy(out, r.items)
	return out, nil
}

// Validate performs the minimal shape checks a contract needs before a
// discovery run begins: a non-empty key, a known source type, and (for
// html and api sources alike) at least one start URL, per spec §8 boundary behavior
// "Empty start_urls ⇒ pipeline fails with ContractError-like reason".
func (c Contract) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("contract key must not be empty")
	}
	switch c.SourceType {
	case SourceHTML:
		if len(c.StartURLs) == 0 {
			return fmt.Errorf("contract %s: html source requires at least one start_url", c.Key)
		}
	case SourceAPI:
		if len(c.StartURLs) == 0 {
			return fmt.Errorf("contract %s: api source requires an endpoint in start_urls", c.Key)
		}
	default:
		return fmt.Errorf("contract %s: unknown source_type %q", c.Key, c.SourceType)
	}
	return nil
}
