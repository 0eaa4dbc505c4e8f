package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
	"github.com/FACorreiaa/backoffice/pkg/config"
)

func main() {
	var (
		spoolDir = flag.String("spool", "./spool", "directory watched for statement files")
		ownerID  = flag.String("owner", "", "owner UUID for ingested statements")
		interval = flag.Duration("interval", 10*time.Second, "spool scan interval")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger, *spoolDir, *ownerID, *interval); err != nil {
		logger.Error("ingestd exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, spoolDir, rawOwnerID string, interval time.Duration) error {
	owner, err := uuid.Parse(rawOwnerID)
	if err != nil {
		return fmt.Errorf("invalid -owner: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if cfg.Observability.MetricsEnabled {
		go serveMetrics(logger, cfg.Observability.MetricsPort)
	}

	if deps.Scheduler != nil {
		if err := deps.Scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer deps.Scheduler.Stop()
	}

	for _, dir := range []string{spoolDir, filepath.Join(spoolDir, "processed"), filepath.Join(spoolDir, "failed")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create spool dir %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watching spool", "dir", spoolDir, "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := drainSpool(ctx, deps, spoolDir, owner); err != nil {
			logger.Error("spool scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// drainSpool ingests every regular file at the top of the spool directory,
// then moves it to processed/ or failed/ depending on the batch outcome.
func drainSpool(ctx context.Context, deps *Dependencies, spoolDir string, owner uuid.UUID) error {
	entries, err := os.ReadDir(spoolDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		path := filepath.Join(spoolDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			deps.Logger.Error("read spool file", "file", entry.Name(), "error", err)
			continue
		}

		mimeType := mime.TypeByExtension(filepath.Ext(entry.Name()))
		batch, err := deps.Ingestion.Ingest(ctx, data, entry.Name(), mimeType, owner)
		if err != nil {
			deps.Logger.Error("ingestion failed", "file", entry.Name(), "error", err)
		}

		dest := filepath.Join(spoolDir, "processed", entry.Name())
		if batch == nil || batch.Status != repository.BatchCompleted {
			dest = filepath.Join(spoolDir, "failed", entry.Name())
		}
		if err := os.Rename(path, dest); err != nil {
			deps.Logger.Error("move spool file", "file", entry.Name(), "error", err)
			continue
		}

		if batch != nil {
			deps.Logger.Info("batch finished",
				"file", entry.Name(),
				"status", string(batch.Status),
				"total", batch.TotalTransactions,
				"processed", batch.ProcessedTransactions,
				"failed", batch.FailedTransactions,
				"duplicates", batch.DuplicateCount,
			)
		}
	}
	return nil
}

func serveMetrics(logger *slog.Logger, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
