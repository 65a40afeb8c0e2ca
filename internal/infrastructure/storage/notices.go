package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"RfpFinder/internal/domain"
	"RfpFinder/internal/ports"
)

var noticeColumns = []string{
	"id", "title", "description", "state", "agency",
	"publication_date", "due_date", "url",
	"scada_relevance_score", "is_water_wastewater", "is_mining", "is_oil_gas", "is_hvac",
	"processed", "notified", "created_at", "updated_at",
}

// NoticeRepository persists classified notices into the relational store.
// It is the sole writer of notice content; only MarkNotified touches the
// notified flag, and nothing here ever resets it.
type NoticeRepository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ ports.NoticeRepository = (*NoticeRepository)(nil)

// NewNoticeRepository wires a sql.DB with the driver's placeholder dialect.
func NewNoticeRepository(db *sql.DB, driver string) *NoticeRepository {
	return &NoticeRepository{db: db, sb: builderFor(driver), now: func() time.Time { return time.Now().UTC() }}
}

// Upsert inserts the notice if its id is unseen, otherwise refreshes every
// mutable field. Lookup and write share one transaction so two workers cannot
// both observe "absent" and double-insert. Idempotent: a second call with
// identical input only moves updated_at.
func (r *NoticeRepository) Upsert(ctx context.Context, n domain.Notice) (domain.UpsertOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.sb.Select("created_at").From("notices").Where(sq.Eq{"id": n.ID}).ToSql()
	if err != nil {
		return "", fmt.Errorf("build lookup: %w", err)
	}

	now := r.now()
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, query, args...).Scan(&createdAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		insert := r.sb.Insert("notices").Columns(noticeColumns...).Values(
			n.ID, n.Title, n.Description, n.State, n.Agency,
			nullableTime(n.PublicationDate), nullableTime(n.DueDate), n.URL,
			n.RelevanceScore, n.IsWaterWastewater, n.IsMining, n.IsOilGas, n.IsHVAC,
			true, false, now, now,
		)
		if query, args, err = insert.ToSql(); err != nil {
			return "", fmt.Errorf("build insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("insert notice %s: %w", n.ID, err)
		}
		if err = tx.Commit(); err != nil {
			return "", fmt.Errorf("commit insert %s: %w", n.ID, err)
		}
		return domain.OutcomeInserted, nil

	case err != nil:
		return "", fmt.Errorf("lookup notice %s: %w", n.ID, err)
	}

	// Existing row: id, created_at and notified are immutable here.
	update := r.sb.Update("notices").
		Set("title", n.Title).
		Set("description", n.Description).
		Set("state", n.State).
		Set("agency", n.Agency).
		Set("publication_date", nullableTime(n.PublicationDate)).
		Set("due_date", nullableTime(n.DueDate)).
		Set("url", n.URL).
		Set("scada_relevance_score", n.RelevanceScore).
		Set("is_water_wastewater", n.IsWaterWastewater).
		Set("is_mining", n.IsMining).
		Set("is_oil_gas", n.IsOilGas).
		Set("is_hvac", n.IsHVAC).
		Set("processed", true).
		Set("updated_at", now).
		Where(sq.Eq{"id": n.ID})

	if query, args, err = update.ToSql(); err != nil {
		return "", fmt.Errorf("build update: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("update notice %s: %w", n.ID, err)
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit update %s: %w", n.ID, err)
	}

	return domain.OutcomeUpdated, nil
}

// Unnotified returns un-notified notices at or above minScore created since
// the given time, most relevant first, then most urgent.
func (r *NoticeRepository) Unnotified(ctx context.Context, minScore int, since time.Time) ([]domain.Notice, error) {
	query, args, err := r.sb.Select(noticeColumns...).From("notices").
		Where(sq.Eq{"notified": false}).
		Where(sq.GtOrEq{"scada_relevance_score": minScore}).
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("scada_relevance_score DESC", "due_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unnotified query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unnotified: %w", err)
	}
	defer rows.Close()

	var notices []domain.Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unnotified rows: %w", err)
	}

	return notices, nil
}

// MarkNotified flips notified to true for the given ids. false-to-true only;
// re-notification requires an administrative reset outside this repository.
func (r *NoticeRepository) MarkNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := r.sb.Update("notices").
		Set("notified", true).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark notified: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	return nil
}

// Get fetches one notice by id, mainly for listing surfaces and tests.
func (r *NoticeRepository) Get(ctx context.Context, id string) (domain.Notice, error) {
	query, args, err := r.sb.Select(noticeColumns...).From("notices").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Notice{}, fmt.Errorf("build get: %w", err)
	}

	n, err := scanNotice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Notice{}, fmt.Errorf("get notice %s: %w", id, err)
	}

	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (domain.Notice, error) {
	var (
		n       domain.Notice
		pubDate sql.NullTime
		dueDate sql.NullTime
	)

	err := row.Scan(
		&n.ID, &n.Title, &n.Description, &n.State, &n.Agency,
		&pubDate, &dueDate, &n.URL,
		&n.RelevanceScore, &n.IsWaterWastewater, &n.IsMining, &n.IsOilGas, &n.IsHVAC,
		&n.Processed, &n.Notified, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return domain.Notice{}, err
	}

	if pubDate.Valid {
		t := pubDate.Time
		n.PublicationDate = &t
	}
	if dueDate.Valid {
		t := dueDate.Time
		n.DueDate = &t
	}

	return n, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
