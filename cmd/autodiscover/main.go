package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/Franco1312/autodiscovery-sources/internal/app"
	"github.com/Franco1312/autodiscovery-sources/internal/discovery"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		contractsPath string
		registryPath  string
		mirrorRoot    string
		configPath    string
		envFile       string
		mirror        bool
		noMirror      bool
		fast          bool
		jsonOut       bool
		verbose       bool
		syncAll       bool
		syncKey       string
		concurrency   int
	)

	flag.StringVar(&contractsPath, "contracts", "", "Path to the contracts YAML file")
	flag.StringVar(&registryPath, "registry", "", "Path to the registry JSON file")
	flag.StringVar(&mirrorRoot, "mirror-root", "", "Root directory for mirrored files")
	flag.StringVar(&configPath, "config", "", "Optional YAML override file")
	flag.StringVar(&envFile, "env-file", "", "Optional dotenv file to load before resolving configuration")
	flag.BoolVar(&mirror, "mirror", true, "Mirror the selected artifact to local (and optional remote) storage")
	flag.BoolVar(&noMirror, "no-mirror", false, "Skip mirroring for this run (same as --mirror=false)")
	flag.BoolVar(&fast, "fast", false, "Force scope.max_depth=1, scope.max_candidates=1")
	flag.BoolVar(&jsonOut, "json", false, "Print machine-readable JSON instead of a text summary")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&syncAll, "all", false, "sync: attempt every contract key")
	flag.StringVar(&syncKey, "key", "", "sync: attempt only this contract key")
	flag.IntVar(&concurrency, "concurrency", 0, "sync: override AUTODISCOVERY_SYNC_CONCURRENCY for this run")
	flag.Parse()
	if noMirror {
		mirror = false
	}

	if envFile != "" {
		if err := app.LoadEnvFiles(envFile); err != nil {
			log.Error().Err(err).Str("path", envFile).Msg("failed to load env file")
			os.Exit(1)
		}
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: autodiscover <discover|sync|show|validate|list|version> [args] [flags]")
		os.Exit(1)
	}
	command, rest := args[0], args[1:]

	if command == "version" {
		runVersion(jsonOut)
		return
	}

	cfg, err := resolveConfig(configPath, contractsPath, registryPath, mirrorRoot, fast, concurrency)
	if err != nil {
		log.Error().Err(err).Msg("config resolution failed")
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize")
		os.Exit(1)
	}
	defer a.Close()

	if a.Metrics != nil {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", a.Metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server stopped")
			}
		}()
	}

	switch command {
	case "discover":
		runDiscover(ctx, a, rest, mirror, jsonOut)
	case "sync":
		runSync(ctx, a, syncAll, syncKey, jsonOut)
	case "validate":
		runValidate(ctx, a, rest, jsonOut)
	case "show":
		runShow(ctx, a, rest, jsonOut)
	case "list":
		runList(ctx, a, jsonOut)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(1)
	}
}

func resolveConfig(configPath, contractsPath, registryPath, mirrorRoot string, fast bool, concurrency int) (app.Config, error) {
	cfg, err := app.LoadEnv()
	if err != nil {
		return app.Config{}, err
	}
	overrides, err := app.LoadFileOverrides(configPath)
	if err != nil {
		return app.Config{}, err
	}
	cfg = cfg.MergeFile(overrides)

	if contractsPath != "" {
		cfg.ContractsPath = contractsPath
	}
	if registryPath != "" {
		cfg.RegistryPath = registryPath
	}
	if mirrorRoot != "" {
		cfg.MirrorRoot = mirrorRoot
	}
	if fast {
		cfg.Fast = true
	}
	if concurrency > 0 {
		cfg.SyncConcurrency = concurrency
	}
	return cfg, nil
}

// runDiscover implements "discover <key> [--mirror/--no-mirror] [--json]"
// (spec §6: exit 0 on success, 1 on failure).
func runDiscover(ctx context.Context, a *app.App, args []string, mirror, jsonOut bool) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: autodiscover discover <key>")
		os.Exit(1)
	}
	key := args[0]
	result := a.Discover(ctx, key, mirror)
	printResult(result, jsonOut)
	if !result.Success {
		os.Exit(1)
	}
}

// runSync implements "sync (--all | --key K) [--fast] [--json]" (spec §6:
// exit 0 if all succeed, 1 otherwise). The per-key table uses fatih/color
// for green ✓ / red ✗ markers.
func runSync(ctx context.Context, a *app.App, all bool, key string, jsonOut bool) {
	var results []discovery.Result
	if key != "" {
		results = []discovery.Result{a.Discover(ctx, key, true)}
	} else if all {
		results = a.SyncAll(ctx)
	} else {
		fmt.Fprintln(os.Stderr, "usage: autodiscover sync (--all | --key K)")
		os.Exit(1)
	}

	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(results)
	} else {
		anyFailed := false
		for _, r := range results {
			mark := color.GreenString("✓")
			if !r.Success {
				mark = color.RedString("✗")
				anyFailed = true
			}
			fmt.Printf("%s %s\n", mark, r.Key)
		}
		if anyFailed {
			fmt.Println("\nerrors:")
			for _, r := range results {
				if !r.Success {
					fmt.Printf("  %s: %v\n", r.Key, r.Err)
				}
			}
		}
	}

	for _, r := range results {
		if !r.Success {
			os.Exit(1)
		}
	}
}

// runValidate implements "validate <key>" (spec §6: exit 0 iff status=ok).
func runValidate(ctx context.Context, a *app.App, args []string, jsonOut bool) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: autodiscover validate <key>")
		os.Exit(1)
	}
	result := a.Validate(ctx, args[0])
	printResult(result, jsonOut)
	if result.Entry.Status != types.StatusOK {
		os.Exit(1)
	}
}

// runShow implements "show [key]" (spec §6: exit 0 unconditionally).
func runShow(ctx context.Context, a *app.App, args []string, jsonOut bool) {
	if len(args) == 1 {
		entry, found, err := a.Engine.Registry.Get(args[0])
		if err != nil {
			log.Error().Err(err).Msg("registry read failed")
			return
		}
		if !found {
			fmt.Printf("no registry entry for key %q\n", args[0])
			return
		}
		printEntry(entry, jsonOut)
		return
	}
	entries, err := a.Engine.Registry.All()
	if err != nil {
		log.Error().Err(err).Msg("registry read failed")
		return
	}
	for _, e := range entries {
		printEntry(e, jsonOut)
	}
}

// runVersion implements "version": print the -ldflags-populated build
// metadata (spec §6 unconditional exit 0; no config resolution needed).
func runVersion(jsonOut bool) {
	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"version": app.BuildVersion,
			"commit":  app.BuildCommit,
			"date":    app.BuildDate,
		})
		return
	}
	fmt.Printf("autodiscover %s (commit %s, built %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
}

// runList implements "list" (spec §6: exit 0 unconditionally).
func runList(ctx context.Context, a *app.App, jsonOut bool) {
	keys, err := a.Contract.Keys()
	if err != nil {
		log.Error().Err(err).Msg("contracts read failed")
		return
	}
	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(keys)
		return
	}
	for _, k := range keys {
		fmt.Println(k)
	}
}

func printResult(r discovery.Result, jsonOut bool) {
	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(r)
		return
	}
	if r.Success {
		fmt.Printf("%s: ok version=%s url=%s\n", r.Key, r.Entry.Version, r.Entry.URL)
		return
	}
	fmt.Printf("%s: failed: %v\n", r.Key, r.Err)
}

func printEntry(e types.RegistryEntry, jsonOut bool) {
	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(e)
		return
	}
	fmt.Printf("%s\tversion=%s\tstatus=%s\turl=%s\n", e.Key, e.Version, e.Status, e.URL)
}
