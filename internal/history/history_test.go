package history

import (
	"errors"
	"testing"
	"time"

	"github.com/runguard/runguard/internal/domain"
	"github.com/runguard/runguard/internal/testutil"
)

func openTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	dir, cleanupDir := testutil.TempDir(t)
	store, err := Open(dir)
	if err != nil {
		cleanupDir()
		t.Fatalf("Open failed: %v", err)
	}

	return store, func() {
		store.Close()
		cleanupDir()
	}
}

func TestOpen_EmptyDir(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty data directory")
	}
}

func TestSaveAndRecent(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	now := time.Now()
	records := []Record{
		{Token: "worker.py", CheckedAt: now.Add(-2 * time.Minute), Running: false},
		{Token: "worker.py", CheckedAt: now.Add(-time.Minute), Running: true, MatchedPID: 4242, MatchedCmdline: "python worker.py --id=5"},
		{Token: "other.py", CheckedAt: now, Running: false},
	}
	for _, rec := range records {
		if err := store.SaveCheck(rec); err != nil {
			t.Fatalf("SaveCheck failed: %v", err)
		}
	}

	got, err := store.Recent("worker.py", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for worker.py, got %d", len(got))
	}
	// Newest first
	if !got[0].Running || got[0].MatchedPID != 4242 {
		t.Errorf("unexpected newest record: %+v", got[0])
	}
	if got[0].MatchedCmdline != "python worker.py --id=5" {
		t.Errorf("unexpected cmdline: %q", got[0].MatchedCmdline)
	}

	all, err := store.RecentAll(10)
	if err != nil {
		t.Fatalf("RecentAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records in total, got %d", len(all))
	}
}

func TestSaveCheck_DefaultsCheckedAt(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	if err := store.SaveCheck(Record{Token: "worker.py"}); err != nil {
		t.Fatalf("SaveCheck failed: %v", err)
	}

	got, err := store.Recent("worker.py", 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 || got[0].CheckedAt.IsZero() {
		t.Errorf("expected a defaulted timestamp, got %+v", got)
	}
}

func TestLastDetection(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	rec, err := store.LastDetection("worker.py")
	if err != nil {
		t.Fatalf("LastDetection failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil before any detection, got %+v", rec)
	}

	now := time.Now()
	store.SaveCheck(Record{Token: "worker.py", CheckedAt: now.Add(-time.Hour), Running: true, MatchedPID: 1})
	store.SaveCheck(Record{Token: "worker.py", CheckedAt: now, Running: false})
	store.SaveCheck(Record{Token: "worker.py", CheckedAt: now.Add(-time.Minute), Running: true, MatchedPID: 2})

	rec, err = store.LastDetection("worker.py")
	if err != nil {
		t.Fatalf("LastDetection failed: %v", err)
	}
	if rec == nil || rec.MatchedPID != 2 {
		t.Errorf("expected the most recent detection (pid 2), got %+v", rec)
	}
}

func TestPrune(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	now := time.Now()
	store.SaveCheck(Record{Token: "worker.py", CheckedAt: now.Add(-48 * time.Hour)})
	store.SaveCheck(Record{Token: "worker.py", CheckedAt: now})

	n, err := store.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned record, got %d", n)
	}

	got, err := store.Recent("worker.py", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 remaining record, got %d", len(got))
	}
}

func TestPrune_InvalidAge(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	if _, err := store.Prune(0); err == nil {
		t.Fatal("expected error for non-positive prune age")
	}
}

func TestRecent_InvalidLimit(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	if _, err := store.Recent("worker.py", 0); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestClosedStore(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := store.SaveCheck(Record{Token: "worker.py"}); !errors.Is(err, domain.ErrHistoryClosed) {
		t.Errorf("expected ErrHistoryClosed from SaveCheck, got: %v", err)
	}
	if _, err := store.Recent("worker.py", 1); !errors.Is(err, domain.ErrHistoryClosed) {
		t.Errorf("expected ErrHistoryClosed from Recent, got: %v", err)
	}

	// Close is idempotent
	if err := store.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
}
