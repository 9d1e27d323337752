package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeContracts(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "contracts.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write contracts: %v", err)
	}
	return path
}

func TestNewWiresEngineFromConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="/f.pdf">report</a></body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	contractsPath := writeContracts(t, dir, `
- key: demo
  source_type: html
  start_urls:
    - `+srv.URL+`/index.html
  scope:
    max_depth: 1
    max_candidates: 5
`)

	cfg := Config{
		ContractsPath:   contractsPath,
		RegistryPath:    filepath.Join(dir, "registry.json"),
		MirrorRoot:      filepath.Join(dir, "mirror"),
		UserAgent:       "autodiscovery-test/1.0",
		SyncConcurrency: 2,
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Engine == nil {
		t.Fatal("expected engine to be wired")
	}
	if a.Metrics != nil {
		t.Fatal("expected metrics to stay nil when MetricsEnabled is false")
	}
}

func TestDiscoverRecordsMetricsWhenEnabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		_, _ = w.Write([]byte(`<html><body>no links</body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	contractsPath := writeContracts(t, dir, `
- key: demo
  source_type: html
  start_urls:
    - `+srv.URL+`/index.html
  scope:
    max_depth: 1
    max_candidates: 5
`)

	cfg := Config{
		ContractsPath:  contractsPath,
		RegistryPath:   filepath.Join(dir, "registry.json"),
		MirrorRoot:     filepath.Join(dir, "mirror"),
		UserAgent:      "autodiscovery-test/1.0",
		MetricsEnabled: true,
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Metrics == nil {
		t.Fatal("expected metrics registry to be created")
	}

	result := a.Discover(context.Background(), "demo", true)
	if result.Success {
		t.Fatal("expected failure: no links and no known_urls fallback")
	}

	rec := httptest.NewRecorder()
	a.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `autodiscovery_attempts_total{key="demo",outcome="failure"} 1`) {
		t.Fatalf("expected one recorded failure attempt for demo, got:\n%s", rec.Body.String())
	}
}
