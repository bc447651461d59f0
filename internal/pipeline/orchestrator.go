package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hvdclogix/cargoflow/internal/export"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/hvdclogix/cargoflow/internal/ingest"
	"github.com/hvdclogix/cargoflow/internal/service"
	"github.com/hvdclogix/cargoflow/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Orchestrator drives snapshot files through ingest, the engine, export
// and optional archiving. Each file is one independent full recompute.
type Orchestrator struct {
	config   Config
	loader   *ingest.Loader
	engine   *flowcore.Engine
	exporter *export.Writer
	svc      *service.FlowService
	archiver *storage.Archiver
	tracker  *tracker
	sem      *semaphore.Weighted
}

// NewOrchestrator wires a pipeline. svc and archiver may be nil; a nil
// service skips publication and a nil archiver skips uploads.
func NewOrchestrator(config Config, loader *ingest.Loader, engine *flowcore.Engine, svc *service.FlowService, archiver *storage.Archiver) *Orchestrator {
	workers := config.WorkerCount
	if workers < 1 {
		workers = 1
	}
	config.WorkerCount = workers

	return &Orchestrator{
		config:   config,
		loader:   loader,
		engine:   engine,
		exporter: export.NewWriter(config.ReportDir),
		svc:      svc,
		archiver: archiver,
		tracker:  newTracker(),
		sem:      semaphore.NewWeighted(int64(workers)),
	}
}

// ProcessSnapshot runs one snapshot file end to end and publishes its
// result as the current run.
func (o *Orchestrator) ProcessSnapshot(ctx context.Context, path string) (*SnapshotRun, error) {
	run, result, err := o.computeSnapshot(ctx, path)
	if err != nil {
		return run, err
	}

	if err := o.publish(ctx, run, result); err != nil {
		return run, err
	}
	return run, nil
}

// ProcessDir runs every snapshot file in the directory concurrently and
// publishes the one with the newest snapshot date.
func (o *Orchestrator) ProcessDir(ctx context.Context, dir string) ([]SnapshotRun, error) {
	files, err := listSnapshotFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn().Str("dir", dir).Msg("no snapshot files found")
		return nil, nil
	}

	log.Info().Str("dir", dir).Int("files", len(files)).Msg("processing snapshot directory")

	type computed struct {
		run    *SnapshotRun
		result *flowcore.Result
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []computed
		runs    []SnapshotRun
	)

	for _, file := range files {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			return runs, err
		}

		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			defer o.sem.Release(1)

			run, result, err := o.computeSnapshot(ctx, file)
			mu.Lock()
			defer mu.Unlock()
			if run != nil {
				runs = append(runs, *run)
			}
			if err != nil {
				log.Error().Err(err).Str("file", file).Msg("snapshot run failed")
				return
			}
			results = append(results, computed{run: run, result: result})
		}(file)
	}
	wg.Wait()

	if len(results) == 0 {
		return runs, fmt.Errorf("all %d snapshot runs failed", len(files))
	}

	// Publish the newest snapshot as the current run.
	sort.Slice(results, func(i, j int) bool {
		return results[i].result.SnapshotDate.Before(results[j].result.SnapshotDate)
	})
	newest := results[len(results)-1]
	if err := o.publish(ctx, newest.run, newest.result); err != nil {
		return runs, err
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

// Runs returns every run tracked by this orchestrator instance.
func (o *Orchestrator) Runs() []SnapshotRun {
	return o.tracker.list()
}

func (o *Orchestrator) computeSnapshot(ctx context.Context, path string) (*SnapshotRun, *flowcore.Result, error) {
	if err := o.loader.Validate(path); err != nil {
		return nil, nil, err
	}

	snapshotDate, err := o.loader.SnapshotDate(filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}

	run := o.tracker.create(path, snapshotDate)
	run.Status = StatusProcessing
	o.tracker.update(run)

	start := time.Now()
	log.Info().Str("file", path).Time("snapshot_date", snapshotDate).Msg("processing snapshot")

	records, err := o.loader.Load(path)
	if err != nil {
		return o.failRun(run, fmt.Errorf("load failed: %w", err)), nil, err
	}

	result := o.engine.Run(snapshotDate, records)
	run.Items = len(result.Items)

	reports, err := o.exporter.WriteAll(result)
	if err != nil {
		return o.failRun(run, fmt.Errorf("export failed: %w", err)), nil, err
	}
	run.Reports = reports

	if o.archiver != nil {
		stamp := export.SnapshotStamp(result.SnapshotDate)
		if err := o.archiver.ArchiveRun(ctx, stamp, reports); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("report archive failed")
		}
	}

	run.Status = StatusCompleted
	now := time.Now()
	run.CompletedAt = &now
	o.tracker.update(run)

	log.Info().
		Str("file", path).
		Int("items", run.Items).
		Dur("elapsed", time.Since(start)).
		Msg("snapshot run completed")
	return run, result, nil
}

func (o *Orchestrator) publish(ctx context.Context, run *SnapshotRun, result *flowcore.Result) error {
	if o.svc == nil {
		return nil
	}
	runID, err := o.svc.PublishResult(ctx, result)
	if err != nil {
		return fmt.Errorf("publish failed for %s: %w", run.FilePath, err)
	}
	if runID != 0 {
		log.Info().Int64("run_id", runID).Str("file", run.FilePath).Msg("run persisted")
	}
	return nil
}

func (o *Orchestrator) failRun(run *SnapshotRun, err error) *SnapshotRun {
	run.Status = StatusFailed
	run.ErrorMessage = err.Error()
	now := time.Now()
	run.CompletedAt = &now
	o.tracker.update(run)
	return run
}

func listSnapshotFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed reading snapshot dir %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
