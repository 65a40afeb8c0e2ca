package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"RfpFinder/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "rfpfinder-test.db")
	db, err := Open(context.Background(), "sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testNotice(id string) domain.Notice {
	due := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	return domain.Notice{
		ID: id,
		Candidate: domain.Candidate{
			Title:       "SCADA System Upgrade",
			Description: "PLC and HMI replacement",
			Agency:      "City Water Department",
			State:       "AZ",
			DueDate:     &due,
			URL:         "https://example.gov/rfps/1",
		},
		Classification: domain.Classification{
			RelevanceScore:    72,
			IsWaterWastewater: true,
			IsRelevant:        true,
		},
	}
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewNoticeRepository(db, "sqlite3")
	ctx := context.Background()

	outcome, err := repo.Upsert(ctx, testNotice("AZ-RFP-1"))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if outcome != domain.OutcomeInserted {
		t.Fatalf("first upsert outcome %s, want inserted", outcome)
	}

	stored, err := repo.Get(ctx, "AZ-RFP-1")
	if err != nil {
		t.Fatalf("get after insert: %v", err)
	}
	if !stored.Processed || stored.Notified {
		t.Fatalf("fresh notice flags wrong: processed=%v notified=%v", stored.Processed, stored.Notified)
	}
	if stored.CreatedAt.IsZero() || !stored.CreatedAt.Equal(stored.UpdatedAt) {
		t.Fatalf("timestamps wrong on insert: created=%v updated=%v", stored.CreatedAt, stored.UpdatedAt)
	}
	if stored.DueDate == nil || !stored.DueDate.Equal(time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("due date not round-tripped: %v", stored.DueDate)
	}

	changed := testNotice("AZ-RFP-1")
	changed.Description = "expanded scope: pump station telemetry"
	changed.RelevanceScore = 80

	outcome, err = repo.Upsert(ctx, changed)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if outcome != domain.OutcomeUpdated {
		t.Fatalf("second upsert outcome %s, want updated", outcome)
	}

	updated, err := repo.Get(ctx, "AZ-RFP-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Description != changed.Description || updated.RelevanceScore != 80 {
		t.Fatalf("mutable fields not refreshed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("created_at changed on update: %v vs %v", updated.CreatedAt, stored.CreatedAt)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewNoticeRepository(db, "sqlite3")
	ctx := context.Background()

	notice := testNotice("AZ-RFP-2")
	if _, err := repo.Upsert(ctx, notice); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, err := repo.Get(ctx, "AZ-RFP-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if _, err := repo.Upsert(ctx, notice); err != nil {
		t.Fatalf("identical upsert: %v", err)
	}
	second, err := repo.Get(ctx, "AZ-RFP-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("identical upsert moved created_at")
	}
	if second.Notified != first.Notified {
		t.Fatal("identical upsert changed notified")
	}
	if second.Title != first.Title || second.RelevanceScore != first.RelevanceScore {
		t.Fatal("identical upsert changed content")
	}
}

func TestUpsertPreservesNotified(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewNoticeRepository(db, "sqlite3")
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, testNotice("AZ-RFP-3")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.MarkNotified(ctx, []string{"AZ-RFP-3"}); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	rescraped := testNotice("AZ-RFP-3")
	rescraped.Description = "description changed between crawls"
	if _, err := repo.Upsert(ctx, rescraped); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	stored, err := repo.Get(ctx, "AZ-RFP-3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Notified {
		t.Fatal("re-scrape reset notified flag")
	}
	if stored.Description != rescraped.Description {
		t.Fatal("re-scrape did not refresh description")
	}
}

func TestUnnotifiedFilterAndOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewNoticeRepository(db, "sqlite3")
	ctx := context.Background()

	early := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC)

	add := func(id string, score int, due *time.Time) {
		n := testNotice(id)
		n.RelevanceScore = score
		n.DueDate = due
		if _, err := repo.Upsert(ctx, n); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	add("T-1", 55, &late)
	add("T-2", 90, &late)
	add("T-3", 90, &early)
	add("T-4", 30, &late) // below threshold
	add("T-5", 95, &late)
	if err := repo.MarkNotified(ctx, []string{"T-5"}); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	got, err := repo.Unnotified(ctx, 50, time.Time{})
	if err != nil {
		t.Fatalf("unnotified: %v", err)
	}

	want := []string{"T-3", "T-2", "T-1"} // score desc, then due date asc
	if len(got) != len(want) {
		t.Fatalf("got %d notices, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRunRepository(db, "sqlite3")
	ctx := context.Background()

	start := time.Date(2026, time.August, 30, 6, 0, 0, 0, time.UTC)
	run := domain.Run{
		ID:          "run-1",
		SourceLabel: "SAM.gov,Bonfirehub",
		Status:      domain.RunRunning,
		StartTime:   start,
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	run.Status = domain.RunSucceeded
	run.EndTime = start.Add(90 * time.Second)
	run.DurationSecs = 90
	run.Success = true
	run.RFPsFound = 7
	run.ErrorMessage = "Bonfirehub: connection refused"
	if err := repo.Finish(ctx, run); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	runs, err := repo.Latest(ctx, 10)
	if err != nil {
		t.Fatalf("latest runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}

	got := runs[0]
	if got.Status != domain.RunSucceeded || !got.Success {
		t.Fatalf("run not finished: %+v", got)
	}
	if got.RFPsFound != 7 || got.DurationSecs != 90 {
		t.Fatalf("run counters wrong: %+v", got)
	}
	if got.ErrorMessage != run.ErrorMessage {
		t.Fatalf("error message not stored: %q", got.ErrorMessage)
	}
}
