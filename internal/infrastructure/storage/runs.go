package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"RfpFinder/internal/domain"
	"RfpFinder/internal/ports"
)

// RunRepository records scrape-run provenance. Only the orchestrator that
// created a run row ever finishes it.
type RunRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository wires a sql.DB with the driver's placeholder dialect.
func NewRunRepository(db *sql.DB, driver string) *RunRepository {
	return &RunRepository{db: db, sb: builderFor(driver)}
}

// Create inserts the run in its initial state.
func (r *RunRepository) Create(ctx context.Context, run domain.Run) error {
	query, args, err := r.sb.Insert("scraper_runs").
		Columns("id", "source_label", "status", "start_time", "success", "rfps_found", "error_message").
		Values(run.ID, run.SourceLabel, string(run.Status), run.StartTime.UTC(), false, 0, "").
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	return nil
}

// Finish records the run's terminal state.
func (r *RunRepository) Finish(ctx context.Context, run domain.Run) error {
	query, args, err := r.sb.Update("scraper_runs").
		Set("status", string(run.Status)).
		Set("end_time", run.EndTime.UTC()).
		Set("duration_seconds", run.DurationSecs).
		Set("success", run.Success).
		Set("rfps_found", run.RFPsFound).
		Set("error_message", run.ErrorMessage).
		Where(sq.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}

	return nil
}

// Latest returns the most recent runs, newest first, for diagnostics.
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]domain.Run, error) {
	query, args, err := r.sb.Select(
		"id", "source_label", "status", "start_time", "end_time",
		"duration_seconds", "success", "rfps_found", "error_message",
	).From("scraper_runs").
		OrderBy("start_time DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest runs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			run      domain.Run
			status   string
			endTime  sql.NullTime
			duration sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &run.SourceLabel, &status, &run.StartTime,
			&endTime, &duration, &run.Success, &run.RFPsFound, &run.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = domain.RunStatus(status)
		if endTime.Valid {
			run.EndTime = endTime.Time
		}
		if duration.Valid {
			run.DurationSecs = duration.Float64
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest runs rows: %w", err)
	}

	return runs, nil
}
