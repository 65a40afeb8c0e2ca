package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"RfpFinder/internal/config"
	"RfpFinder/internal/domain"
	"RfpFinder/internal/ports"
)

// Batcher selects un-notified notices above the notification threshold,
// renders them into a digest, and performs the notify then mark-notified
// transition. At-least-once: nothing is marked unless every dispatch
// succeeded, so a failed send is safely retried whole.
type Batcher struct {
	notices    ports.NoticeRepository
	notifier   ports.Notifier
	recipients []string
	minScore   int
	includeLow bool
	window     time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewBatcher constructs the notification component from config.
func NewBatcher(notices ports.NoticeRepository, notifier ports.Notifier, cfg config.NotificationConfig, logger *slog.Logger) *Batcher {
	return &Batcher{
		notices:    notices,
		notifier:   notifier,
		recipients: cfg.Recipients,
		minScore:   cfg.MinScore,
		includeLow: cfg.IncludeLowRelevance,
		window:     time.Duration(cfg.WindowHours) * time.Hour,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendDigest collects the current batch and dispatches it to every recipient.
// An empty batch is a no-op.
func (b *Batcher) SendDigest(ctx context.Context) error {
	digest, err := b.Collect(ctx)
	if err != nil {
		return err
	}
	if digest.Total() == 0 {
		b.info("no un-notified notices above threshold, skipping digest")
		return nil
	}

	for _, recipient := range b.recipients {
		if err := b.notifier.Dispatch(ctx, recipient, digest); err != nil {
			// Leave every notice un-notified so the whole batch retries.
			return fmt.Errorf("dispatch digest to %s: %w", recipient, err)
		}
	}

	if err := b.notices.MarkNotified(ctx, digest.IDs()); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	b.info("digest dispatched",
		"recipients", len(b.recipients),
		"notices", len(digest.Notices),
		"low_priority", len(digest.LowPriority),
	)

	return nil
}

// Collect assembles the digest without side effects: the threshold section
// first, then (optionally) sub-threshold notices in a low-priority section
// that never changes the threshold section's inclusion criteria.
func (b *Batcher) Collect(ctx context.Context) (domain.Digest, error) {
	since := time.Time{}
	if b.window > 0 {
		since = b.now().Add(-b.window)
	}

	high, err := b.notices.Unnotified(ctx, b.minScore, since)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("collect unnotified: %w", err)
	}

	digest := domain.Digest{Notices: high, Since: since, MinScore: b.minScore}

	if b.includeLow {
		all, err := b.notices.Unnotified(ctx, 0, since)
		if err != nil {
			return domain.Digest{}, fmt.Errorf("collect low relevance: %w", err)
		}
		for _, n := range all {
			if n.RelevanceScore < b.minScore {
				digest.LowPriority = append(digest.LowPriority, n)
			}
		}
	}

	return digest, nil
}

func (b *Batcher) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}
