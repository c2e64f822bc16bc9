package recorder

import "time"

// Run summarizes one fetch and process cycle.
type Run struct {
	ID         string
	Trigger    string // "cron", "manual" or "cli"
	StartedAt  time.Time
	FinishedAt time.Time
	Queued     int
	Skipped    int
	Fetched    int
	Files      int
	Ticks      int
	Err        string
}

// ArchiveEvent records a downloaded vendor archive.
type ArchiveEvent struct {
	RunID  string
	Symbol string
	Year   int
	Month  int
	Bytes  int
	Path   string
}

// TickFileEvent records a saved tick file.
type TickFileEvent struct {
	RunID    string
	Name     string
	Symbol   string
	BaseDate time.Time
	Kind     string
	Ticks    int
	Bytes    int64
	Path     string
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(run *Run) error
	RecordArchive(evt *ArchiveEvent) error
	RecordTickFile(evt *TickFileEvent) error
	Close() error
}
