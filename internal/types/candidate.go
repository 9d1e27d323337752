package types

import "time"

// Candidate is a URL encountered during crawl that might be the target
// artifact (spec §3). It exists only within a single discovery run.
type Candidate struct {
	Key      SourceKey
	URL      string
	Filename string

	Mime         MimeType
	SizeKB       SizeKB
	HasSize      bool
	LastModified time.Time
	HasLastMod   bool
	Attachment   bool

	Score int
	Notes string

	// RegexGroups holds regex-captured substrings from contract match
	// patterns, consumed by the versioning and selection policies to
	// extract dates from the filename/URL.
	RegexGroups []string
}

// Validated extends Candidate with metadata attached by the validator,
// kept as a distinct, immutable type per DESIGN NOTES §9 ("mutable
// candidate records" → "produce a validated candidate value that extends
// the raw candidate with metadata").
type Validated struct {
	Candidate
	Accepted bool
}

// RegistryEntry is the persistent, one-per-key record (spec §3).
type RegistryEntry struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Version     string    `json:"version"`
	Filename    string    `json:"filename"`
	Mime        string    `json:"mime"`
	SizeKB      float64   `json:"size_kb"`
	Sha256      string    `json:"sha256"`
	LastChecked string    `json:"last_checked"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	StoredPath  string    `json:"stored_path,omitempty"`
	RemoteKey   string    `json:"remote_key,omitempty"`
	Related     []string  `json:"related,omitempty"`
}

// Status is the registry entry's last-observed health.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSuspect Status = "suspect"
	StatusBroken  Status = "broken"
)

// NowISO8601UTC formats t as ISO-8601 UTC, the format used for
// RegistryEntry.LastChecked (spec §3).
func NowISO8601UTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
