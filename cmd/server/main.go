package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hvdclogix/cargoflow/internal/api"
	"github.com/hvdclogix/cargoflow/internal/cache"
	"github.com/hvdclogix/cargoflow/internal/config"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/hvdclogix/cargoflow/internal/ingest"
	"github.com/hvdclogix/cargoflow/internal/pipeline"
	"github.com/hvdclogix/cargoflow/internal/repository"
	"github.com/hvdclogix/cargoflow/internal/repository/postgres"
	"github.com/hvdclogix/cargoflow/internal/service"
	"github.com/hvdclogix/cargoflow/internal/storage"
	"github.com/hvdclogix/cargoflow/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.App.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog := flowcore.DefaultCatalog()
	catalog.EstimationRatio = cfg.Engine.EstimationRatio
	catalog.ReconcileTolerance = cfg.Engine.ReconcileTolerance
	catalog.DefaultFlowCode = cfg.Engine.DefaultFlowCode
	engine := flowcore.NewEngine(catalog)

	var repo repository.FlowRepository
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("database unavailable, serving from memory only")
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		cancel()
		repo = postgres.NewFlowRepository(db)
	}

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	flowService := service.NewFlowService(repo, dashboardCache)

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("report archive unavailable, continuing without it")
		} else {
			archiver = storage.NewArchiver(client)
		}
	}

	// Process any snapshots already on disk so the API has a run to serve.
	loader := ingest.NewLoader(catalog, cfg.Engine.InputDateFormat)
	orchestrator := pipeline.NewOrchestrator(pipeline.Config{
		WorkerCount: cfg.Engine.WorkerCount,
		SnapshotDir: cfg.App.SnapshotDir,
		ReportDir:   cfg.App.ReportDir,
	}, loader, engine, flowService, archiver)

	go func() {
		if _, err := orchestrator.ProcessDir(context.Background(), cfg.App.SnapshotDir); err != nil {
			logger.Log.Warn().Err(err).Msg("startup snapshot processing failed")
		}
	}()

	router := api.NewRouter(&api.Services{FlowService: flowService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
