package load

import (
	"time"

	"sheetview/domain/core"
)

// SourceKind tells which acquisition strategy produced a document
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
)

// Status is the outcome of one load attempt
type Status string

const (
	StatusLoaded     Status = "loaded"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
)

// Record describes one load attempt for the history log
type Record struct {
	ID         core.LoadID `json:"id" db:"id"`
	Generation uint64      `json:"generation" db:"generation"`
	SourceKind SourceKind  `json:"source_kind" db:"source_kind"`
	Source     string      `json:"source" db:"source"`
	Format     string      `json:"format" db:"format"`
	SheetCount int         `json:"sheet_count" db:"sheet_count"`
	Bytes      int64       `json:"bytes" db:"bytes"`
	Checksum   core.Hash   `json:"checksum,omitempty" db:"checksum"`
	Status     Status      `json:"status" db:"status"`
	Error      string      `json:"error,omitempty" db:"error"`
	StartedAt  time.Time   `json:"started_at" db:"started_at"`
	DurationMS int64       `json:"duration_ms" db:"duration_ms"`
}

// Duration returns the recorded duration
func (r *Record) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}
