// Package cron provides scheduled background maintenance jobs using
// robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/backoffice/pkg/storage"
)

// Scheduler runs the archive retention sweep on a fixed daily schedule.
type Scheduler struct {
	cron      *cron.Cron
	archive   *storage.LocalStorage
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler sweeping archived uploads older than the
// retention period.
func NewScheduler(archive *storage.LocalStorage, retention time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		archive:   archive,
		retention: retention,
		logger:    logger,
	}
}

// Start begins scheduled jobs. The retention sweep runs daily at 3:00 AM.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", s.sweepArchive)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.Duration("retention", s.retention),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the retention sweep.
func (s *Scheduler) RunNow() {
	go s.sweepArchive()
}

func (s *Scheduler) sweepArchive() {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.archive.Prune(cutoff)
	if err != nil {
		s.logger.Error("archive retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("archive retention sweep finished", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	}
}
