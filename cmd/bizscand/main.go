package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/bizscan/internal/app"
	"github.com/joseph-ayodele/bizscan/internal/async"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/export"
	"github.com/joseph-ayodele/bizscan/internal/httpapi"
	"github.com/joseph-ayodele/bizscan/internal/ingest"
	"github.com/joseph-ayodele/bizscan/internal/pipeline"
	repo "github.com/joseph-ayodele/bizscan/internal/repository"
	"github.com/joseph-ayodele/bizscan/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := app.NewLogger(os.Getenv("LOG_LEVEL"))
	common.LoadDotEnv(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Snapshot store
	db, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Store.DSN,
		MaxConns:         cfg.Store.MaxConns,
		MaxConnLifetime:  30 * time.Minute,
		MaxConnIdleTime:  5 * time.Minute,
		DialTimeout:      cfg.Store.DialTimeout,
		StatementTimeout: cfg.Store.QueryTimeout,
	}, logger)
	if err != nil {
		logger.Error("opening snapshot store", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)
	if err := repo.HealthCheck(ctx, db, cfg.Store.DialTimeout, logger); err != nil {
		logger.Error("snapshot store health failed", "error", err)
		os.Exit(1)
	}
	snapshots := repo.NewSnapshotRepository(db, cfg.Store.QueryTimeout, logger)

	gate, closeGate, err := app.NewGateway(cfg, logger)
	if err != nil {
		logger.Error("approval gateway", "error", err)
		os.Exit(1)
	}
	defer closeGate()

	archiver, err := app.NewArchiver(ctx, cfg, logger)
	if err != nil {
		logger.Error("workbook archive", "error", err)
		os.Exit(1)
	}

	comps := app.Build(cfg, logger)
	svc := pipeline.NewService(comps.Processor, export.NewRenderer(logger), logger,
		pipeline.WithReviewer(comps.Reviewer),
		pipeline.WithSnapshotStore(snapshots),
		pipeline.WithArchiver(archiver),
		pipeline.WithBatchOptions(app.BatchOptions(cfg)...),
		pipeline.WithQueueOptions(async.WithWorkers(2)),
		pipeline.WithStoreTimeout(cfg.Store.QueryTimeout),
	)

	// Drop folder
	if cfg.Watch.Dir != "" {
		groups, err := ingest.Watch(ctx, ingest.WatchConfig{
			Root:       cfg.Watch.Dir,
			Quiet:      cfg.Watch.Quiet,
			MaxBytes:   ingest.DefaultMaxFileBytes,
			SkipHidden: true,
		}, logger)
		if err != nil {
			logger.Error("watch folder", "dir", cfg.Watch.Dir, "error", err)
			os.Exit(1)
		}
		go startWatchedBatches(ctx, svc, groups, logger)
	}

	// HTTP
	var g httpapi.Gate
	if gate != nil {
		g = gate
	}
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(svc, g, comps.Checker, logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr, "approval", gate != nil)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	// gRPC
	grpcSrv, health := server.New(server.NewBatchServer(svc, comps.Checker, logger), logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen", "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("grpc serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcSrv.GracefulStop()
	svc.Close(shutdownCtx)
	logger.Info("stopped")
}

// startWatchedBatches starts one batch per group of files dropped into the
// watch folder.
func startWatchedBatches(ctx context.Context, svc *pipeline.Service, groups <-chan []ingest.File, logger *slog.Logger) {
	for group := range groups {
		files := make([]pipeline.File, len(group))
		for i, f := range group {
			files[i] = pipeline.File{Name: f.Name, Data: f.Data}
		}
		id, err := svc.Start(ctx, files)
		if err != nil {
			logger.Error("watch folder batch", "files", len(files), "error", err)
			continue
		}
		logger.Info("watch folder batch started", "batch_id", id, "files", len(files))
	}
}
