package registry

import (
	"path/filepath"
	"testing"

	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

func TestUpsertThenGetRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := types.RegistryEntry{
		Key:         "infomodia",
		URL:         "https://example.com/report.xls",
		Version:     "2025-11-04",
		Filename:    "report.xls",
		Mime:        "application/vnd.ms-excel",
		SizeKB:      128.5,
		Sha256:      "ab12",
		LastChecked: "2025-11-04T00:00:00Z",
		Status:      types.StatusOK,
	}
	if err := repo.Upsert(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, found, err := repo.Get("infomodia")
	if err != nil || !found {
		t.Fatalf("expected entry, err=%v found=%v", err, found)
	}
	if got.URL != entry.URL || got.Version != entry.Version {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestListKeysSkipsMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Upsert(types.RegistryEntry{Key: "a", LastChecked: "2025-01-01T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Upsert(types.RegistryEntry{Key: "b", LastChecked: "2025-01-02T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}

	keys, err := repo.ListKeys()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected [a b], got %+v", keys)
	}
}

func TestHasReportsPresenceWithoutDecoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := repo.Has("missing")
	if err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}
	if err := repo.Upsert(types.RegistryEntry{Key: "present", LastChecked: "2025-01-01T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	ok, err = repo.Has("present")
	if err != nil || !ok {
		t.Fatalf("expected present key, ok=%v err=%v", ok, err)
	}
}

func TestAllReturnsEveryEntrySortedByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"zeta", "alpha", "mid"} {
		if err := repo.Upsert(types.RegistryEntry{Key: k, LastChecked: "2025-01-01T00:00:00Z"}); err != nil {
			t.Fatal(err)
		}
	}
	all, err := repo.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].Key != "alpha" || all[1].Key != "mid" || all[2].Key != "zeta" {
		t.Fatalf("expected sorted [alpha mid zeta], got %+v", all)
	}
}
