package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Franco1312/autodiscovery-sources/internal/httpclient"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

func TestMirrorFileWritesAndHashes(t *testing.T) {
	const payload = "informe anual de resultados"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := httpclient.NewClient("test-agent", false)
	m := New(dir, c, nil)

	result, err := m.MirrorFile(context.Background(), srv.URL, types.SourceKey("infomodia"), types.Version("2025-11-04"), "report.pdf", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := sha256.Sum256([]byte(payload))
	if result.Sha256 != types.Sha256Hex(hex.EncodeToString(want[:])) {
		t.Fatalf("unexpected hash: %s", result.Sha256)
	}
	data, err := os.ReadFile(result.LocalPath)
	if err != nil {
		t.Fatalf("reading mirrored file: %v", err)
	}
	if string(data) != payload {
		t.Fatalf("unexpected file contents: %q", data)
	}
	if _, err := os.Stat(result.LocalPath + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected no stray .part file left behind")
	}
}

func TestMirrorFileCompressesWithZstd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("some content worth compressing"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := httpclient.NewClient("test-agent", false)
	m := New(dir, c, nil)

	result, err := m.MirrorFile(context.Background(), srv.URL, types.SourceKey("k"), types.Version("v1"), "data.bin", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(result.LocalPath) != ".zst" {
		t.Fatalf("expected .zst suffix, got %s", result.LocalPath)
	}
}

func TestSweepStrayTempRemovesPartFiles(t *testing.T) {
	dir := t.TempDir()
	stray := filepath.Join(dir, "leftover.pdf.part")
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := SweepStrayTemp(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Fatal("expected stray .part file to be removed")
	}
}
