package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"RfpFinder/internal/classify"
	"RfpFinder/internal/collector"
	"RfpFinder/internal/config"
	"RfpFinder/internal/infrastructure/email"
	"RfpFinder/internal/infrastructure/scheduler"
	"RfpFinder/internal/infrastructure/source"
	"RfpFinder/internal/infrastructure/storage"
	"RfpFinder/internal/logging"
	"RfpFinder/internal/taxonomy"
	"RfpFinder/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	tax := taxonomy.Default()
	if cfg.Classifier.TaxonomyFile != "" {
		if tax, err = taxonomy.Load(cfg.Classifier.TaxonomyFile); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	classifier, err := classify.New(tax,
		classify.WithMinRelevance(cfg.Classifier.MinRelevance),
		classify.WithTitleFloor(cfg.Classifier.TitleFloor),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	delay := time.Duration(cfg.Scrape.RequestDelayMillis) * time.Millisecond
	httpClient := &http.Client{Timeout: 20 * time.Second}

	registry := collector.NewRegistry()
	registry.Register(source.NewSAMGovCollector(httpClient, delay))
	registry.Register(source.NewBonfirehubCollector(httpClient, delay))
	registry.Register(source.NewMunicipalCollector(httpClient, delay))

	notices := storage.NewNoticeRepository(db, cfg.Database.Driver)
	runs := storage.NewRunRepository(db, cfg.Database.Driver)

	pipeline := usecase.NewPipeline(classifier, notices, baseLogger.With("component", "pipeline"))

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Registry: registry,
		Pipeline: pipeline,
		Runs:     runs,
		Sources:  cfg.Sources,
		Scrape:   cfg.Scrape,
		Logger:   baseLogger.With("component", "orchestrator"),
	})

	var batcher *usecase.Batcher
	if len(cfg.Notifications.Recipients) > 0 {
		notifier := email.NewNotifier(cfg.Notifications.SMTP)
		batcher = usecase.NewBatcher(notices, notifier, cfg.Notifications, baseLogger.With("component", "batcher"))
	}

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	sched := usecase.NewScheduler(cron, orchestrator, batcher, cfg.Notifications, baseLogger.With("component", "scheduler"))

	return &Application{cfg: cfg, db: db, scheduler: sched}, nil
}

// Run executes one scrape-and-notify pass, then keeps the cron loop alive
// until the context is cancelled. With no cron expression configured it
// returns after the single pass.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.RunOnce(ctx); err != nil {
		return err
	}

	if a.cfg.Scheduler.CronExpression == "" {
		return nil
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return a.scheduler.Stop(context.Background())
}

// Close releases the store connection.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
