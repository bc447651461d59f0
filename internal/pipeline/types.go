package pipeline

import (
	"time"

	"github.com/hvdclogix/cargoflow/internal/export"
)

// RunStatus is the lifecycle state of one snapshot run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// SnapshotRun tracks one snapshot file through the engine.
type SnapshotRun struct {
	ID           int64
	FilePath     string
	SnapshotDate time.Time
	Status       RunStatus
	Items        int
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	Reports      export.ReportPaths
}

// Config holds the orchestrator's tunables.
type Config struct {
	WorkerCount int
	SnapshotDir string
	ReportDir   string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 4,
		SnapshotDir: "data/snapshots",
		ReportDir:   "data/reports",
	}
}
