// Package app is the composition root: it resolves Config from flags, env,
// and an optional YAML override file (in that precedence order, highest
// first), then wires the discovery Engine's ports together, grounded on
// the teacher's internal/app/config.go + config_env.go layered-config
// idiom. The field-by-field layering there is replaced here with
// caarlos0/env/v11 struct tags (the same library lueurxax-TelegramDigestBot
// uses for its platform config), which gives every scalar field a single
// source of truth for its env var name and default.
package app

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration for a discovery run, resolved from
// (in ascending precedence) defaults, an optional YAML file, environment
// variables, and command-line flags.
type Config struct {
	ContractsPath string `env:"AUTODISCOVERY_CONTRACTS_PATH" envDefault:"contracts.yaml"`
	RegistryPath  string `env:"AUTODISCOVERY_REGISTRY_PATH" envDefault:"registry/registry.json"`
	MirrorRoot    string `env:"AUTODISCOVERY_MIRROR_ROOT" envDefault:"mirror"`

	UserAgent          string        `env:"AUTODISCOVERY_USER_AGENT" envDefault:"autodiscovery-sources/1.0"`
	InsecureSkipVerify bool          `env:"AUTODISCOVERY_INSECURE_SKIP_VERIFY" envDefault:"false"`
	HTTPHeadTimeout    time.Duration `env:"AUTODISCOVERY_HTTP_HEAD_TIMEOUT" envDefault:"5s"`
	HTTPGetTimeout     time.Duration `env:"AUTODISCOVERY_HTTP_GET_TIMEOUT" envDefault:"10s"`

	SyncConcurrency int  `env:"AUTODISCOVERY_SYNC_CONCURRENCY" envDefault:"1"`
	Fast            bool `env:"AUTODISCOVERY_FAST" envDefault:"false"`
	Verbose         bool `env:"AUTODISCOVERY_VERBOSE" envDefault:"false"`

	MetricsEnabled bool   `env:"AUTODISCOVERY_METRICS_ENABLED" envDefault:"false"`
	MetricsAddr    string `env:"AUTODISCOVERY_METRICS_ADDR" envDefault:":9090"`

	RemoteUploadBucket string `env:"AUTODISCOVERY_REMOTE_BUCKET"`
}

// LoadEnv returns a Config populated from defaults and environment
// variables, giving callers (cmd/autodiscover) a base to overlay flag and
// YAML overrides onto, the same layering role the teacher's
// ApplyEnvToConfig plays before flags win.
func LoadEnv() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MergeFile overlays any non-zero field set in file onto cfg, matching the
// teacher's config_file.go precedence convention: file values fill gaps
// left by env, and are themselves overridden by flags in cmd/autodiscover.
func (c Config) MergeFile(file FileOverrides) Config {
	out := c
	unset := func(name string) bool { _, ok := os.LookupEnv(name); return !ok }
	if file.ContractsPath != "" && unset("AUTODISCOVERY_CONTRACTS_PATH") {
		out.ContractsPath = file.ContractsPath
	}
	if file.RegistryPath != "" && unset("AUTODISCOVERY_REGISTRY_PATH") {
		out.RegistryPath = file.RegistryPath
	}
	if file.MirrorRoot != "" && unset("AUTODISCOVERY_MIRROR_ROOT") {
		out.MirrorRoot = file.MirrorRoot
	}
	if file.UserAgent != "" && unset("AUTODISCOVERY_USER_AGENT") {
		out.UserAgent = file.UserAgent
	}
	if file.SyncConcurrency != 0 && unset("AUTODISCOVERY_SYNC_CONCURRENCY") {
		out.SyncConcurrency = file.SyncConcurrency
	}
	if file.MetricsAddr != "" && unset("AUTODISCOVERY_METRICS_ADDR") {
		out.MetricsAddr = file.MetricsAddr
	}
	return out
}

// FileOverrides is the YAML override document's schema — every field
// optional, zero value meaning "not set in the file" per MergeFile's gap
// filling, mirroring the teacher's FileConfig in config_file.go.
type FileOverrides struct {
	ContractsPath   string `yaml:"contracts_path"`
	RegistryPath    string `yaml:"registry_path"`
	MirrorRoot      string `yaml:"mirror_root"`
	UserAgent       string `yaml:"user_agent"`
	SyncConcurrency int    `yaml:"sync_concurrency"`
	MetricsAddr     string `yaml:"metrics_addr"`
}
