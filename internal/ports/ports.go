package ports

import (
	"context"
	"time"

	"RfpFinder/internal/domain"
)

// NoticeRepository persists classified notices with dedup semantics.
type NoticeRepository interface {
	// Upsert inserts a new notice or refreshes the mutable fields of an
	// existing one, never touching id, created_at, or notified.
	Upsert(ctx context.Context, notice domain.Notice) (domain.UpsertOutcome, error)
	// Unnotified returns notices with notified=false, scoring at least
	// minScore and created since the given time, ordered most relevant and
	// most urgent first.
	Unnotified(ctx context.Context, minScore int, since time.Time) ([]domain.Notice, error)
	// MarkNotified flips notified to true for the given ids.
	MarkNotified(ctx context.Context, ids []string) error
}

// RunRepository records scrape-run provenance.
type RunRepository interface {
	Create(ctx context.Context, run domain.Run) error
	Finish(ctx context.Context, run domain.Run) error
}

// Notifier delivers a rendered digest to a recipient. Implementations must
// report failure honestly: the batcher only marks notices notified on success.
type Notifier interface {
	Dispatch(ctx context.Context, recipient string, digest domain.Digest) error
}

// Scheduler controls when scrape and notification jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
