package model

// LinkEdge mapped from the edge table <database>_<collection>
type LinkEdge struct {
	ID          string `gorm:"column:id;primaryKey;size:32" json:"id"`
	Kind        string `gorm:"column:kind;not null;size:16;index" json:"kind"`
	SourceURI   string `gorm:"column:source_uri;not null" json:"sourceUri"`
	TargetURI   string `gorm:"column:target_uri;not null;size:700;index" json:"targetUri"`
	LinkType    string `gorm:"column:link_type;not null;size:16" json:"linkType"`
	Status      string `gorm:"column:status;not null;size:32;index" json:"status"`
	Line        int    `gorm:"column:line;not null" json:"line"`
	NotePath    string `gorm:"column:note_path;not null" json:"notePath"`
	FirstSeenNs int64  `gorm:"column:first_seen;not null" json:"firstSeen"`
	LastSeenNs  int64  `gorm:"column:last_seen;not null;index" json:"lastSeen"`
}

// ScanMeta mapped from the meta table <database>_<collection>_meta; holds a single row
type ScanMeta struct {
	ID           string           `gorm:"column:id;primaryKey;size:16" json:"id"`
	RunID        string           `gorm:"column:run_id;size:36" json:"runId"`
	StartedAtNs  int64            `gorm:"column:started_at;not null" json:"startedAt"`
	DurationMs   int64            `gorm:"column:duration_ms" json:"durationMs"`
	NotesScanned int              `gorm:"column:notes_scanned" json:"notesScanned"`
	EdgeTotal    int              `gorm:"column:edge_total" json:"edgeTotal"`
	ByType       map[string]int64 `gorm:"column:by_type;serializer:json" json:"byType"`
	ByStatus     map[string]int64 `gorm:"column:by_status;serializer:json" json:"byStatus"`
	Errors       []string         `gorm:"column:errors;serializer:json" json:"errors"`
}

// ScanMetaID is the primary key of the meta singleton.
const ScanMetaID = "scan_meta"
