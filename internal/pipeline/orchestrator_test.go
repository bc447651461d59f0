package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/hvdclogix/cargoflow/internal/ingest"
	"github.com/hvdclogix/cargoflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	content := strings.Join(append([]string{
		"case_no,vendor,pkg,sqm,status,DSV Indoor,DSV Al Markaz,DAS",
	}, rows...), "\n")
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestOrchestrator(t *testing.T, svc *service.FlowService) *Orchestrator {
	t.Helper()
	catalog := flowcore.DefaultCatalog()
	return NewOrchestrator(Config{
		WorkerCount: 2,
		ReportDir:   t.TempDir(),
	}, ingest.NewLoader(catalog, "20060102"), flowcore.NewEngine(catalog), svc, nil)
}

func TestProcessSnapshotEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "20240701_status.csv",
		"HE-0001,Hitachi,5,12.5,DAS,2024-06-01,,2024-06-20",
	)

	svc := service.NewFlowService(nil, nil)
	orchestrator := newTestOrchestrator(t, svc)

	run, err := orchestrator.ProcessSnapshot(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 1, run.Items)
	assert.Equal(t, "2024-07-01", run.SnapshotDate.Format("2006-01-02"))
	assert.NotNil(t, run.CompletedAt)

	// Reports exist on disk.
	for _, report := range []string{run.Reports.Items, run.Reports.Warehouse, run.Reports.Site, run.Reports.Billing, run.Reports.KPI} {
		_, err := os.Stat(report)
		assert.NoError(t, err)
	}

	// The run was published to the service.
	latest, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, latest.TotalItems)
}

func TestProcessSnapshotRejectsBadInput(t *testing.T) {
	orchestrator := newTestOrchestrator(t, nil)
	ctx := context.Background()

	_, err := orchestrator.ProcessSnapshot(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	dir := t.TempDir()
	badExt := filepath.Join(dir, "20240701_status.txt")
	require.NoError(t, os.WriteFile(badExt, []byte("x"), 0o644))
	_, err = orchestrator.ProcessSnapshot(ctx, badExt)
	assert.Error(t, err)

	// No usable date prefix in the filename.
	noDate := writeSnapshot(t, dir, "status.csv", "HE-1,ACME,1,,DAS,,,")
	_, err = orchestrator.ProcessSnapshot(ctx, noDate)
	assert.Error(t, err)
}

func TestProcessDirPublishesNewestSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "20240601_status.csv",
		"OLD-1,ACME,1,,DAS,,,2024-05-20",
	)
	writeSnapshot(t, dir, "20240701_status.csv",
		"NEW-1,ACME,2,,DAS,,,2024-06-20",
		"NEW-2,ACME,3,,DSV Indoor,2024-06-22,,",
	)

	svc := service.NewFlowService(nil, nil)
	orchestrator := newTestOrchestrator(t, svc)

	runs, err := orchestrator.ProcessDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", latest.SnapshotDate.Format("2006-01-02"))
	assert.Equal(t, 2, latest.TotalItems)
}

func TestProcessDirSkipsNonSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))
	writeSnapshot(t, dir, "20240701_status.csv", "HE-1,ACME,1,,DAS,,,2024-06-20")

	orchestrator := newTestOrchestrator(t, nil)
	runs, err := orchestrator.ProcessDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusCompleted, runs[0].Status)
}

func TestProcessDirEmptyDirectory(t *testing.T) {
	orchestrator := newTestOrchestrator(t, nil)
	runs, err := orchestrator.ProcessDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
