package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/dedup"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/parser"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/service"
	"github.com/FACorreiaa/backoffice/pkg/config"
	"github.com/FACorreiaa/backoffice/pkg/cron"
	"github.com/FACorreiaa/backoffice/pkg/db"
	"github.com/FACorreiaa/backoffice/pkg/docai"
	"github.com/FACorreiaa/backoffice/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Store       repository.Store
	Parser      *parser.Parser
	Detector    *dedup.Detector
	FileArchive *storage.LocalStorage
	Scheduler   *cron.Scheduler
	Ingestion   *service.Service
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database
	d.Store = repository.NewPostgresStore(database.Pool)
	return nil
}

func (d *Dependencies) initServices() error {
	d.Parser = parser.New(d.Logger)

	// Document-understanding fallback is optional; without an API key
	// unknown formats are rejected as unsupported.
	if d.Config.DocAI.APIKey != "" {
		extractor := docai.NewGeminiExtractor(d.Config.DocAI.APIKey, d.Config.DocAI.Model)
		d.Parser.WithDocumentExtractor(extractor)
		d.Logger.Info("document extractor enabled", "model", d.Config.DocAI.Model)
	}

	d.Detector = dedup.NewDetector(d.Store, d.Logger)
	d.Ingestion = service.NewService(d.Store, d.Parser, d.Detector, d.Logger)

	if d.Config.Archive.Enabled {
		archive, err := storage.NewLocalStorage(d.Config.Archive.Path)
		if err != nil {
			return fmt.Errorf("failed to init file archive: %w", err)
		}
		d.FileArchive = archive
		d.Ingestion.WithArchive(archive)

		if days := d.Config.Archive.RetentionDays; days > 0 {
			retention := time.Duration(days) * 24 * time.Hour
			d.Scheduler = cron.NewScheduler(archive, retention, d.Logger)
		}
	}

	d.Logger.Info("services initialized")
	return nil
}

// Close releases held resources.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
