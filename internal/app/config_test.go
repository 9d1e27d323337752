package app

import "testing"

func TestLoadEnvAppliesDefaults(t *testing.T) {
	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.ContractsPath != "contracts.yaml" {
		t.Fatalf("unexpected default contracts path: %q", cfg.ContractsPath)
	}
	if cfg.SyncConcurrency != 1 {
		t.Fatalf("unexpected default sync concurrency: %d", cfg.SyncConcurrency)
	}
}

func TestMergeFileOnlyOverridesSetFields(t *testing.T) {
	base, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	merged := base.MergeFile(FileOverrides{RegistryPath: "custom/registry.json"})
	if merged.RegistryPath != "custom/registry.json" {
		t.Fatalf("expected override to apply, got %q", merged.RegistryPath)
	}
	if merged.ContractsPath != base.ContractsPath {
		t.Fatalf("expected untouched field to keep base value, got %q", merged.ContractsPath)
	}
}

func TestLoadFileOverridesMissingPathIsNotAnError(t *testing.T) {
	fo, err := LoadFileOverrides("")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if fo != (FileOverrides{}) {
		t.Fatalf("expected zero-value overrides, got %+v", fo)
	}
}
