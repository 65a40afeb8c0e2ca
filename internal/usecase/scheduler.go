package usecase

import (
	"context"
	"log/slog"
	"time"

	"RfpFinder/internal/config"
	"RfpFinder/internal/ports"
)

// Scheduler wires the cron driver to the scrape-and-notify job. In realtime
// mode a digest goes out right after every run; in daily-digest mode the run
// cadence itself is the digest cadence, so the same post-run dispatch applies
// with a 24h window.
type Scheduler struct {
	driver      *Orchestrator
	batcher     *Batcher
	cron        ports.Scheduler
	notifyAfter bool
	logger      *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(cron ports.Scheduler, orchestrator *Orchestrator, batcher *Batcher, cfg config.NotificationConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		driver:      orchestrator,
		batcher:     batcher,
		cron:        cron,
		notifyAfter: batcher != nil && (cfg.Mode == config.ModeRealtime || cfg.Mode == config.ModeDailyDigest),
		logger:      logger,
	}
}

// RunOnce executes a single scrape run followed by notification dispatch.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	if _, err := s.driver.Run(ctx); err != nil {
		return err
	}

	if s.notifyAfter {
		if err := s.batcher.SendDigest(ctx); err != nil {
			// Dispatch failure leaves the batch retryable; the run itself
			// already succeeded and is recorded.
			s.warn("digest dispatch failed", "error", err)
		}
	}

	return nil
}

// Start registers the job with the provided cron driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cron == nil || s.driver == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.RunOnce(ctx); err != nil {
			s.warn("scheduled run failed", "trigger", trigger, "error", err)
		}
	}

	return s.cron.Start(ctx, job)
}

// Stop gracefully tears down the underlying cron driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	return s.cron.Stop(ctx)
}

func (s *Scheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
