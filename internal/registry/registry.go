// Package registry is the persistent per-key JSON store (spec §4.9),
// grounded on the Python original's
// infrastructure/registry_fs_adapter.py ("Atomic write: write to temp file
// then rename", skip any top-level key that "startswith('_')" as reserved
// metadata) and the teacher's internal/cache/httpcache.go temp-file+rename
// idiom for the Go side of the same pattern.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

// metadataKey is the reserved top-level document key holding registry
// bookkeeping, skipped on load the same way the Python adapter skips any
// key starting with "_".
const metadataKey = "_metadata"

type metadata struct {
	UpdatedAt string `json:"updated_at"`
	Version   string `json:"version"`
}

// schemaVersion is recorded in every upsert's _metadata block.
const schemaVersion = "1.0"

// Repository is the registry port: get/upsert/has/list_keys/all per spec §4.9.
type Repository interface {
	Get(key string) (types.RegistryEntry, bool, error)
	Upsert(entry types.RegistryEntry) error
	Has(key string) (bool, error)
	ListKeys() ([]string, error)
	All() ([]types.RegistryEntry, error)
}

// FileRepository is a JSON-document-per-file Repository implementation.
// Writes are serialized by mu so concurrent SyncAll workers can't
// interleave a read-modify-write cycle and lose an update.
type FileRepository struct {
	Path string

	mu sync.Mutex
}

// NewFileRepository returns a Repository backed by the JSON file at path,
// creating an empty document if none exists yet.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{Path: path}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, types.Wrap(types.KindRegistry, "mkdir", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.writeDocument(map[string]json.RawMessage{}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *FileRepository) readDocument() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(r.Path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, types.Wrap(types.KindRegistry, "read", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, types.Wrap(types.KindRegistry, "parse", err)
	}
	return doc, nil
}

// writeDocument persists doc atomically: write to a sibling .tmp file,
// then rename over the destination.
func (r *FileRepository) writeDocument(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return types.Wrap(types.KindRegistry, "encode", err)
	}
	tmpPath := r.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return types.Wrap(types.KindRegistry, "write_temp", err)
	}
	if err := os.Rename(tmpPath, r.Path); err != nil {
		_ = os.Remove(tmpPath)
		return types.Wrap(types.KindRegistry, "rename", err)
	}
	return nil
}

// Get returns the entry for key, or found=false if absent.
func (r *FileRepository) Get(key string) (types.RegistryEntry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readDocument()
	if err != nil {
		return types.RegistryEntry{}, false, err
	}
	raw, ok := doc[key]
	if !ok {
		return types.RegistryEntry{}, false, nil
	}
	var entry types.RegistryEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return types.RegistryEntry{}, false, types.Wrap(types.KindRegistry, "decode_entry", err)
	}
	return entry, true, nil
}

// Has reports whether key has an entry, without decoding it.
func (r *FileRepository) Has(key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readDocument()
	if err != nil {
		return false, err
	}
	_, ok := doc[key]
	return ok, nil
}

// Upsert writes entry under its own key, refreshing the _metadata block
// the same way the Python adapter does on every write.
func (r *FileRepository) Upsert(entry types.RegistryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readDocument()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return types.Wrap(types.KindRegistry, "encode_entry", err)
	}
	doc[entry.Key] = encoded

	meta, err := json.Marshal(metadata{UpdatedAt: entry.LastChecked, Version: schemaVersion})
	if err != nil {
		return types.Wrap(types.KindRegistry, "encode_metadata", err)
	}
	doc[metadataKey] = meta

	return r.writeDocument(doc)
}

// ListKeys returns every non-metadata key, sorted for determinism.
func (r *FileRepository) ListKeys() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readDocument()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		if strings.HasPrefix(k, "_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// All returns every decodable non-metadata entry, sorted by key. An entry
// that fails to decode is skipped rather than failing the whole call,
// mirroring the Python adapter's "Skip invalid entries" behavior in load().
func (r *FileRepository) All() ([]types.RegistryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readDocument()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		if strings.HasPrefix(k, "_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]types.RegistryEntry, 0, len(keys))
	for _, k := range keys {
		var entry types.RegistryEntry
		if err := json.Unmarshal(doc[k], &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
