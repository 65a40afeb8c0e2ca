package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"RfpFinder/internal/collector"
	"RfpFinder/internal/config"
	"RfpFinder/internal/domain"
	"RfpFinder/internal/ports"
)

// Report aggregates one run's outcome across all sources.
type Report struct {
	RunID     string
	PerSource map[string]int // new records per source name
	Failures  map[string]string
	Total     int
}

// OrchestratorDeps wires the run's collaborators.
type OrchestratorDeps struct {
	Registry *collector.Registry
	Pipeline *Pipeline
	Runs     ports.RunRepository
	Sources  []config.SourceConfig
	Scrape   config.ScrapeConfig
	Logger   *slog.Logger
}

// Orchestrator sequences the configured source collectors within one recorded
// run. Each collector's failure is contained; the run only fails when every
// collector failed. The orchestrator is the sole writer of its run-log row.
type Orchestrator struct {
	registry    *collector.Registry
	pipeline    *Pipeline
	runs        ports.RunRepository
	sources     []config.SourceConfig
	parallelism int
	maxSources  int
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrchestrator constructs the run coordinator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	parallelism := deps.Scrape.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	return &Orchestrator{
		registry:    deps.Registry,
		pipeline:    deps.Pipeline,
		runs:        deps.Runs,
		sources:     deps.Sources,
		parallelism: parallelism,
		maxSources:  deps.Scrape.MaxSources,
		logger:      deps.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one scrape run over the configured sources.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	sources := o.sources
	if o.maxSources > 0 && len(sources) > o.maxSources {
		o.info("truncating source list", "configured", len(sources), "max", o.maxSources)
		sources = sources[:o.maxSources]
	}

	run := domain.Run{
		ID:          uuid.NewString(),
		SourceLabel: label(sources),
		Status:      domain.RunRunning,
		StartTime:   o.now(),
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return Report{}, fmt.Errorf("record run start: %w", err)
	}

	report := Report{
		RunID:     run.ID,
		PerSource: make(map[string]int, len(sources)),
		Failures:  map[string]string{},
	}

	var mu sync.Mutex
	var group errgroup.Group
	group.SetLimit(o.parallelism)

	for _, src := range sources {
		src := src
		group.Go(func() error {
			// Cooperative cancellation checkpoint between collectors.
			if err := ctx.Err(); err != nil {
				mu.Lock()
				report.Failures[src.Name] = err.Error()
				mu.Unlock()
				return nil
			}

			count, err := o.collectOne(ctx, src)
			mu.Lock()
			if err != nil {
				report.Failures[src.Name] = err.Error()
				o.warn("source failed", "source", src.Name, "error", err, "partial", count)
			}
			// Records upserted before a mid-batch failure are durable and
			// still count toward the run total.
			if count > 0 || err == nil {
				report.PerSource[src.Name] = count
				report.Total += count
			}
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()

	run.EndTime = o.now()
	run.DurationSecs = run.EndTime.Sub(run.StartTime).Seconds()
	run.RFPsFound = report.Total
	run.Success = len(sources) == 0 || len(report.Failures) < len(sources)
	run.Status = domain.RunSucceeded
	if !run.Success {
		run.Status = domain.RunFailed
	}
	run.ErrorMessage = failureSummary(report.Failures)

	if err := o.runs.Finish(ctx, run); err != nil {
		o.warn("record run finish failed", "run", run.ID, "error", err)
	}

	o.info("run finished",
		"run", run.ID,
		"status", string(run.Status),
		"new_records", report.Total,
		"failed_sources", len(report.Failures),
		"duration_seconds", run.DurationSecs,
	)

	return report, nil
}

func (o *Orchestrator) collectOne(ctx context.Context, src config.SourceConfig) (int, error) {
	strategy, err := o.registry.Resolve(src.Collector)
	if err != nil {
		return 0, err
	}

	candidates, err := strategy.Collect(ctx, collector.Request{
		SourceName: src.Name,
		State:      src.State,
		URL:        src.URL,
		Options:    src.Options,
	})
	if err != nil {
		return 0, fmt.Errorf("collect: %w", err)
	}

	result, err := o.pipeline.Ingest(ctx, src.EffectiveNamespace(), candidates)
	if err != nil {
		return result.Inserted, err
	}

	o.info("source done",
		"source", src.Name,
		"candidates", len(candidates),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"rejected", result.Rejected,
		"failed", result.Failed,
	)

	return result.Inserted, nil
}

func label(sources []config.SourceConfig) string {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name)
	}
	return strings.Join(names, ",")
}

func failureSummary(failures map[string]string) string {
	if len(failures) == 0 {
		return ""
	}

	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+failures[name])
	}
	return strings.Join(lines, "; ")
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
