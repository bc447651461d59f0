package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hvdclogix/cargoflow/internal/config"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/hvdclogix/cargoflow/internal/ingest"
	"github.com/hvdclogix/cargoflow/internal/pipeline"
	"github.com/hvdclogix/cargoflow/internal/storage"
	"github.com/hvdclogix/cargoflow/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "flowctl",
		Usage: "Run the cargo movement engine over snapshot extracts",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Process every snapshot in a directory and write reports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Directory containing snapshot files",
						Value:   "./data/snapshots",
						EnvVars: []string{"APP_SNAPSHOT_DIR"},
					},
					&cli.StringFlag{
						Name:    "report-dir",
						Usage:   "Directory to write report CSVs into",
						Value:   "./data/reports",
						EnvVars: []string{"APP_REPORT_DIR"},
					},
				},
				Action: runDir,
			},
			{
				Name:  "export",
				Usage: "Process one snapshot file and write (optionally archive) its reports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Snapshot file (.csv or .xlsx) to process",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "report-dir",
						Usage:   "Directory to write report CSVs into",
						Value:   "./data/reports",
						EnvVars: []string{"APP_REPORT_DIR"},
					},
					&cli.BoolFlag{
						Name:  "archive",
						Usage: "Upload reports to the configured object storage",
						Value: false,
					},
				},
				Action: exportSnapshot,
			},
			{
				Name:  "seed",
				Usage: "Process one snapshot file and persist the run into postgres",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Snapshot file (.csv or .xlsx) to process",
						Required: true,
					},
				},
				Action: seedRun,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func buildEngine() (*flowcore.Engine, *ingest.Loader) {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	catalog := flowcore.DefaultCatalog()
	catalog.EstimationRatio = cfg.Engine.EstimationRatio
	catalog.ReconcileTolerance = cfg.Engine.ReconcileTolerance
	catalog.DefaultFlowCode = cfg.Engine.DefaultFlowCode

	return flowcore.NewEngine(catalog), ingest.NewLoader(catalog, cfg.Engine.InputDateFormat)
}

func runDir(c *cli.Context) error {
	engine, loader := buildEngine()
	cfg := config.Load()

	orchestrator := pipeline.NewOrchestrator(pipeline.Config{
		WorkerCount: cfg.Engine.WorkerCount,
		SnapshotDir: c.String("dir"),
		ReportDir:   c.String("report-dir"),
	}, loader, engine, nil, nil)

	runs, err := orchestrator.ProcessDir(c.Context, c.String("dir"))
	if err != nil {
		return err
	}

	for _, run := range runs {
		fmt.Printf("%-40s %-10s items=%d\n", filepath.Base(run.FilePath), run.Status, run.Items)
		if run.ErrorMessage != "" {
			fmt.Printf("  error: %s\n", run.ErrorMessage)
		}
	}
	return nil
}

func exportSnapshot(c *cli.Context) error {
	engine, loader := buildEngine()
	cfg := config.Load()

	var archiver *storage.Archiver
	if c.Bool("archive") {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("archive requested but not configured: %w", err)
		}
		archiver = storage.NewArchiver(client)
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Config{
		WorkerCount: 1,
		ReportDir:   c.String("report-dir"),
	}, loader, engine, nil, archiver)

	run, err := orchestrator.ProcessSnapshot(c.Context, c.String("file"))
	if err != nil {
		return err
	}

	fmt.Printf("processed %s: %d items\n", filepath.Base(run.FilePath), run.Items)
	fmt.Printf("reports:\n")
	for _, p := range []string{run.Reports.Items, run.Reports.Warehouse, run.Reports.Site, run.Reports.Billing, run.Reports.KPI} {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func seedRun(c *cli.Context) error {
	engine, loader := buildEngine()

	path := c.String("file")
	if err := loader.Validate(path); err != nil {
		return err
	}
	snapshotDate, err := loader.SnapshotDate(filepath.Base(path))
	if err != nil {
		return err
	}
	records, err := loader.Load(path)
	if err != nil {
		return err
	}

	result := engine.Run(snapshotDate, records)

	runID, err := persistRun(c.Context, c.String("db-url"), result)
	if err != nil {
		return err
	}

	fmt.Printf("persisted run %d: %d items, %d transfers\n", runID, len(result.Items), len(result.Transfers))
	for _, check := range result.KPI {
		fmt.Printf("  %-22s %-4s observed=%.2f threshold=%.2f\n", check.Name, check.Status, check.Observed, check.Threshold)
	}
	return nil
}
