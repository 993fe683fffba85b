package store

import (
	"errors"

	"apedash/internal/results"
)

// DefaultDBPath is the default relative path for the SQLite DB.
// Resolve against cwd; Open() creates the parent dir (.apedash).
const DefaultDBPath = ".apedash/apedash.db"

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one archived results file.
type Run struct {
	ID          int64
	Name        string
	SourcePath  string
	CreatedAt   string // ISO 8601 UTC
	RecordCount int
}

// Store archives ingested result sets. CLI and dashboard use only this
// interface; the implementation is SQLite or in-memory.
type Store interface {
	// SaveRun archives a parsed results file under a display name.
	// Saving is transactional: a failed save leaves no partial run.
	SaveRun(name, sourcePath string, recs []results.Record) (runID int64, err error)
	GetRun(runID int64) (*Run, error)
	ListRuns() ([]*Run, error)
	// LatestRun returns the most recently saved run, or ErrNotFound.
	LatestRun() (*Run, error)
	LoadRecords(runID int64) ([]results.Record, error)
	Close() error
}
