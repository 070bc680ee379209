package offline

import (
	"path/filepath"
	"testing"
	"time"

	"timeclock/internal/domain/punch"
)

func openTestStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")

	store := openTestStore(t, path)
	local := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	items := []Item{
		{LocalID: "a", EnqueuedAt: local, Event: punch.Event{UserID: "u1", Type: punch.TypeClockIn, CreatedAtLocal: &local}},
		{LocalID: "b", EnqueuedAt: local.Add(time.Minute), Event: punch.Event{UserID: "u1", Type: punch.TypeClockOut, CreatedAtLocal: &local}},
	}
	for _, item := range items {
		if err := store.Append(item); err != nil {
			t.Fatalf("append error: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	reopened := openTestStore(t, path)
	defer reopened.Close()

	got, err := reopened.List()
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items after reopen, got %d", len(got))
	}
	if got[0].LocalID != "a" || got[1].LocalID != "b" {
		t.Fatalf("order lost across reopen: %s %s", got[0].LocalID, got[1].LocalID)
	}
	if got[0].Event.Type != punch.TypeClockIn {
		t.Fatalf("event payload lost: %+v", got[0].Event)
	}
	if got[0].Event.CreatedAtLocal == nil || !got[0].Event.CreatedAtLocal.Equal(local) {
		t.Fatalf("client-local timestamp lost: %v", got[0].Event.CreatedAtLocal)
	}
}

func TestSQLiteStoreRemoveAndAttempts(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "queue.db"))
	defer store.Close()

	item := Item{LocalID: "a", EnqueuedAt: time.Now().UTC(), Event: punch.Event{UserID: "u1", Type: punch.TypeClockIn}}
	if err := store.Append(item); err != nil {
		t.Fatalf("append error: %v", err)
	}

	if err := store.IncrementAttempts("a"); err != nil {
		t.Fatalf("increment error: %v", err)
	}
	got, _ := store.List()
	if got[0].Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", got[0].Attempts)
	}

	if err := store.Remove("a"); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if err := store.Remove("a"); err != nil {
		t.Fatalf("removing absent id must be a no-op, got %v", err)
	}
	got, _ = store.List()
	if len(got) != 0 {
		t.Fatalf("expected empty store, got %d items", len(got))
	}
}

func TestSQLiteStoreRejectsDuplicateLocalID(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "queue.db"))
	defer store.Close()

	item := Item{LocalID: "a", EnqueuedAt: time.Now().UTC(), Event: punch.Event{UserID: "u1", Type: punch.TypeClockIn}}
	if err := store.Append(item); err != nil {
		t.Fatalf("append error: %v", err)
	}
	if err := store.Append(item); err == nil {
		t.Fatal("duplicate local id should be rejected")
	}
}
