package pipeline

import (
	"sort"
	"sync"
	"time"
)

// tracker is the in-memory run ledger. Runs are bookkeeping for the CLI
// and logs; the durable record of a run lives in the flow repository.
type tracker struct {
	mu     sync.Mutex
	nextID int64
	runs   map[int64]*SnapshotRun
}

func newTracker() *tracker {
	return &tracker{runs: make(map[int64]*SnapshotRun)}
}

func (t *tracker) create(filePath string, snapshotDate time.Time) *SnapshotRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	run := &SnapshotRun{
		ID:           t.nextID,
		FilePath:     filePath,
		SnapshotDate: snapshotDate,
		Status:       StatusPending,
		StartedAt:    time.Now(),
	}
	t.runs[run.ID] = run
	return run
}

func (t *tracker) update(run *SnapshotRun) {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := *run
	t.runs[run.ID] = &copied
}

func (t *tracker) list() []SnapshotRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	runs := make([]SnapshotRun, 0, len(t.runs))
	for _, run := range t.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs
}
