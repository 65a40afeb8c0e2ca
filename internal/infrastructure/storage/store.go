package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS notices (
	id                    TEXT PRIMARY KEY,
	title                 TEXT NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	state                 TEXT NOT NULL,
	agency                TEXT NOT NULL DEFAULT '',
	publication_date      TIMESTAMP,
	due_date              TIMESTAMP,
	url                   TEXT NOT NULL DEFAULT '',
	scada_relevance_score INTEGER NOT NULL DEFAULT 0,
	is_water_wastewater   BOOLEAN NOT NULL DEFAULT FALSE,
	is_mining             BOOLEAN NOT NULL DEFAULT FALSE,
	is_oil_gas            BOOLEAN NOT NULL DEFAULT FALSE,
	is_hvac               BOOLEAN NOT NULL DEFAULT FALSE,
	processed             BOOLEAN NOT NULL DEFAULT FALSE,
	notified              BOOLEAN NOT NULL DEFAULT FALSE,
	created_at            TIMESTAMP NOT NULL,
	updated_at            TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notices_state ON notices(state);
CREATE INDEX IF NOT EXISTS idx_notices_relevance ON notices(scada_relevance_score);
CREATE INDEX IF NOT EXISTS idx_notices_notified ON notices(notified);

CREATE TABLE IF NOT EXISTS scraper_runs (
	id               TEXT PRIMARY KEY,
	source_label     TEXT NOT NULL,
	status           TEXT NOT NULL,
	start_time       TIMESTAMP NOT NULL,
	end_time         TIMESTAMP,
	duration_seconds DOUBLE PRECISION,
	success          BOOLEAN NOT NULL DEFAULT FALSE,
	rfps_found       INTEGER NOT NULL DEFAULT 0,
	error_message    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_start ON scraper_runs(start_time);
`

// Open connects to the configured relational store and ensures the schema
// exists. Supported drivers: "postgres" (lib/pq) and "sqlite3".
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s store: %w", driver, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// builderFor returns a statement builder with the placeholder format the
// driver expects: $1 for postgres, ? elsewhere.
func builderFor(driver string) sq.StatementBuilderType {
	if driver == "postgres" {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}
