package offline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"timeclock/internal/domain/punch"
	"timeclock/internal/platform/datastore"
)

type resolverFunc func(ctx context.Context, userID string) (string, error)

func (f resolverFunc) ResolveTenant(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

type probeFunc func(ctx context.Context) bool

func (f probeFunc) Online(ctx context.Context) bool { return f(ctx) }

// capturingStore records persisted punch events and can fail selected users.
type capturingStore struct {
	mu       sync.Mutex
	events   []punch.Event
	failUser string
}

func (s *capturingStore) Write(ctx context.Context, collection string, doc any) (string, error) {
	ev, ok := doc.(punch.Event)
	if !ok {
		return "", errors.New("unexpected document type")
	}
	if s.failUser != "" && ev.UserID == s.failUser {
		return "", errors.New("simulated write failure")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return "doc-1", nil
}

func (s *capturingStore) Query(ctx context.Context, collection string, filters []datastore.Filter) ([]json.RawMessage, error) {
	return nil, nil
}

func (s *capturingStore) Subscribe(collection string, filters []datastore.Filter, onChange func()) func() {
	return func() {}
}

func newTestCoordinator(queue *Queue, data datastore.Store, online bool) *Coordinator {
	c := NewCoordinator(
		queue,
		data,
		resolverFunc(func(ctx context.Context, userID string) (string, error) { return "t1", nil }),
		probeFunc(func(ctx context.Context) bool { return online }),
		nil,
	)
	c.Now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestSyncNowDrainsInOrder(t *testing.T) {
	queue := NewQueue(NewMemoryStore(), nil)
	for _, pt := range []punch.Type{punch.TypeClockIn, punch.TypeBreakStart, punch.TypeBreakEnd, punch.TypeClockOut} {
		if _, err := queue.Enqueue(testEvent("u1", pt)); err != nil {
			t.Fatalf("enqueue error: %v", err)
		}
	}

	data := &capturingStore{}
	coordinator := newTestCoordinator(queue, data, true)

	report, err := coordinator.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if report.Synced != 4 || report.Failed != 0 || report.Remaining != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	want := []punch.Type{punch.TypeClockIn, punch.TypeBreakStart, punch.TypeBreakEnd, punch.TypeClockOut}
	if len(data.events) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(data.events))
	}
	for i, ev := range data.events {
		if ev.Type != want[i] {
			t.Fatalf("write %d out of order: %s vs %s", i, ev.Type, want[i])
		}
		if ev.Origin != punch.OriginOfflineQueue {
			t.Fatalf("synced punch must be marked offline_queue, got %s", ev.Origin)
		}
		if ev.CreatedAt.IsZero() {
			t.Fatal("synced punch must carry a fresh server timestamp")
		}
		if ev.CreatedAtLocal == nil {
			t.Fatal("client-local timestamp must be preserved for audit")
		}
	}

	size, _ := queue.Size()
	if size != 0 {
		t.Fatalf("expected drained queue, got %d items", size)
	}
}

func TestSyncNowRewritesTenantAssignment(t *testing.T) {
	queue := NewQueue(NewMemoryStore(), nil)
	ev := testEvent("u1", punch.TypeClockIn)
	ev.TenantID = "stale-tenant"
	if _, err := queue.Enqueue(ev); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	data := &capturingStore{}
	coordinator := newTestCoordinator(queue, data, true)
	coordinator.Tenants = resolverFunc(func(ctx context.Context, userID string) (string, error) {
		return "corrected-tenant", nil
	})

	if _, err := coordinator.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if len(data.events) != 1 {
		t.Fatalf("expected 1 write, got %d", len(data.events))
	}
	if data.events[0].TenantID != "corrected-tenant" {
		t.Fatalf("stale tenant not rewritten: %s", data.events[0].TenantID)
	}
}

func TestSyncNowFailureKeepsItemQueued(t *testing.T) {
	queue := NewQueue(NewMemoryStore(), nil)
	if _, err := queue.Enqueue(testEvent("u-bad", punch.TypeClockIn)); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}
	if _, err := queue.Enqueue(testEvent("u-good", punch.TypeClockIn)); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	data := &capturingStore{failUser: "u-bad"}
	coordinator := newTestCoordinator(queue, data, true)

	report, err := coordinator.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if report.Synced != 1 || report.Failed != 1 || report.Remaining != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	// The failed item stays, with its attempt counted; the later item was
	// still processed this pass.
	items, _ := queue.List()
	if len(items) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(items))
	}
	if items[0].Event.UserID != "u-bad" {
		t.Fatalf("wrong item retained: %s", items[0].Event.UserID)
	}
	if items[0].Attempts != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", items[0].Attempts)
	}
	if len(data.events) != 1 || data.events[0].UserID != "u-good" {
		t.Fatalf("later item should have synced: %+v", data.events)
	}

	// Connectivity restored for the retried item.
	data.failUser = ""
	report, err = coordinator.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("retry sync error: %v", err)
	}
	if report.Synced != 1 || report.Remaining != 0 {
		t.Fatalf("unexpected retry report: %+v", report)
	}
}

func TestSyncNowOfflineIsNoOp(t *testing.T) {
	queue := NewQueue(NewMemoryStore(), nil)
	if _, err := queue.Enqueue(testEvent("u1", punch.TypeClockIn)); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	data := &capturingStore{}
	coordinator := newTestCoordinator(queue, data, false)

	report, err := coordinator.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if !report.Skipped {
		t.Fatal("offline pass should be skipped")
	}
	if len(data.events) != 0 {
		t.Fatal("offline pass must not write")
	}
	size, _ := queue.Size()
	if size != 1 {
		t.Fatalf("queue must be untouched offline, got %d items", size)
	}
}

func TestSyncNowEmptyQueueIsNoOp(t *testing.T) {
	coordinator := newTestCoordinator(NewQueue(NewMemoryStore(), nil), &capturingStore{}, true)

	report, err := coordinator.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if !report.Skipped {
		t.Fatal("empty queue pass should be skipped")
	}
}

func TestSyncNowCollapsesConcurrentTriggers(t *testing.T) {
	queue := NewQueue(NewMemoryStore(), nil)
	if _, err := queue.Enqueue(testEvent("u1", punch.TypeClockIn)); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	data := &capturingStore{}
	coordinator := newTestCoordinator(queue, data, true)

	// Simulate a pass already in flight.
	coordinator.running.Store(true)
	report, err := coordinator.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if !report.Skipped {
		t.Fatal("overlapping trigger must return a skipped report")
	}
	if len(data.events) != 0 {
		t.Fatal("overlapping trigger must not write")
	}
	coordinator.running.Store(false)

	report, err = coordinator.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if report.Synced != 1 {
		t.Fatalf("expected 1 synced after guard release, got %d", report.Synced)
	}
	if got := coordinator.LastReport(); got.Synced != 1 {
		t.Fatalf("last report not recorded: %+v", got)
	}
}
