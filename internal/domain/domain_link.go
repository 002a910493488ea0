// Package domain defines domain models and interfaces
package domain

import "time"

// LinkType is the markdown syntax a reference was written in.
type LinkType string

const (
	LinkTypeWikiLink    LinkType = "wikilink"
	LinkTypeEmbed       LinkType = "embed"
	LinkTypeMarkdownURL LinkType = "markdown_url"
)

// LinkStatus is the resolution outcome of a reference. Anything but ok is broken.
type LinkStatus string

const (
	StatusOK             LinkStatus = "ok"
	StatusMissingSymlink LinkStatus = "missing_symlink"
	StatusMissingTarget  LinkStatus = "missing_target"
	StatusLegacyLink     LinkStatus = "legacy_link"
)

// TargetKind is the resolver rule that classified a reference.
type TargetKind string

const (
	TargetExternalURL TargetKind = "url"
	TargetVaultDir    TargetKind = "vault"
	TargetLegacy      TargetKind = "legacy"
	TargetSymlink     TargetKind = "symlink"
	TargetNote        TargetKind = "note"
)

// EdgeKindLink tags edge rows; the sweep only ever deletes rows of this kind.
const EdgeKindLink = "link"

// URI schemes used for canonical targets.
const (
	SchemeVault  = "vault:///"
	SchemeLegacy = "legacy:///"
	SchemeFile   = "file://"
)

// LinkRecord is one reference observed during a scan. It lives only for the scan.
type LinkRecord struct {
	ID           string
	SourceURI    string
	NotePath     string
	Line         int
	LinkType     LinkType
	RawTarget    string
	Alias        string
	TargetURI    string
	Status       LinkStatus
	Kind         TargetKind
	ResolvedPath string
	RawLine      string
}

// ToEdge keeps the canonical fields of the record; scan-only fields are dropped.
func (r *LinkRecord) ToEdge(seen time.Time) *Edge {
	return &Edge{
		ID:        r.ID,
		Kind:      EdgeKindLink,
		SourceURI: r.SourceURI,
		TargetURI: r.TargetURI,
		LinkType:  r.LinkType,
		Status:    r.Status,
		Line:      r.Line,
		NotePath:  r.NotePath,
		FirstSeen: seen,
		LastSeen:  seen,
	}
}

// Edge is the persisted form of a link occurrence.
type Edge struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	SourceURI string     `json:"sourceUri"`
	TargetURI string     `json:"targetUri"`
	LinkType  LinkType   `json:"linkType"`
	Status    LinkStatus `json:"status"`
	Line      int        `json:"line"`
	NotePath  string     `json:"notePath"`
	FirstSeen time.Time  `json:"firstSeen"`
	LastSeen  time.Time  `json:"lastSeen"`
}

// ScanStats aggregates one scan. Errors keep walk order.
type ScanStats struct {
	NotesScanned int      `json:"notesScanned"`
	EdgeTotal    int      `json:"edgeTotal"`
	Errors       []string `json:"errors"`
}

// ScanMeta is the persisted singleton describing the last sync; StartedAt is the sweep watermark.
type ScanMeta struct {
	RunID        string
	StartedAt    time.Time
	DurationMs   int64
	NotesScanned int
	EdgeTotal    int
	ByType       map[string]int64
	ByStatus     map[string]int64
	Errors       []string
}

// HasCounts reports whether the meta carries precomputed aggregates.
func (m *ScanMeta) HasCounts() bool {
	return m != nil && len(m.ByStatus) > 0
}
