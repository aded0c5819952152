package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// ---------------------------------------------------------------------------
// TestStore - Record and list runs
// ---------------------------------------------------------------------------

func TestStore_RecordRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []Entry{
		{ID: "a", Format: "a4", Tool: "native", Status: StatusComplete, Rows: 5, Documents: 5, Converted: 5, Pages: 5,
			StartedAt: base, FinishedAt: base.Add(time.Second)},
		{ID: "b", Format: "a5", Tool: "libreoffice", Status: StatusFailed, FailedStage: "merging", Error: "merge failed",
			StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second)},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s) error = %v", e.ID, err)
		}
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent()) = %d, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("order = %s,%s, want newest first", got[0].ID, got[1].ID)
	}
	if got[0].FailedStage != "merging" || got[0].Error != "merge failed" {
		t.Errorf("failed entry = %+v", got[0])
	}
	if !got[1].StartedAt.Equal(base) || got[1].Pages != 5 {
		t.Errorf("complete entry = %+v", got[1])
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Recent(1) = %d entries, %v", len(limited), err)
	}
}

func TestStore_RecordReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now()

	e := Entry{ID: "x", Format: "a4", Status: StatusPartial, StartedAt: now, FinishedAt: now}
	if err := store.Record(ctx, e); err != nil {
		t.Fatal(err)
	}
	e.Status = StatusComplete
	if err := store.Record(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != StatusComplete {
		t.Errorf("Recent() = %+v, want one complete entry", got)
	}
}

func TestOpen_ReopenAndSchemaMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	if _, err := Open(ctx, path); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("Open() = %v, want ErrSchemaMismatch", err)
	}
}

func TestClose_NilStore(t *testing.T) {
	t.Parallel()

	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil store = %v", err)
	}
}
