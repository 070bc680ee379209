package punch

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeclock/internal/domain/auth"
	"timeclock/internal/platform/datastore"
)

type fakeTenants struct {
	tenantID string
	err      error
}

func (f fakeTenants) ResolveTenant(ctx context.Context, userID string) (string, error) {
	return f.tenantID, f.err
}

type fakeSites struct {
	lat, lng float64
	radius   int
}

func (f fakeSites) SiteGeofence(ctx context.Context, tenantID string) (float64, float64, int, error) {
	return f.lat, f.lng, f.radius, nil
}

type fakeProbe struct{ online bool }

func (f fakeProbe) Online(ctx context.Context) bool { return f.online }

type fakeQueue struct {
	items []Event
}

func (f *fakeQueue) Enqueue(ev Event) (string, error) {
	f.items = append(f.items, ev)
	return "local-1", nil
}

func newTestService(data datastore.Store, queue Queue, online bool) *Service {
	svc := NewService(
		fakeTenants{tenantID: "t1"},
		fakeSites{lat: 0, lng: 0, radius: 100},
		data,
		queue,
		fakeProbe{online: online},
		nil,
	)
	svc.Now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRegisterPunchOnline(t *testing.T) {
	data := datastore.NewMemory()
	queue := &fakeQueue{}
	svc := newTestService(data, queue, true)

	outcome, err := svc.RegisterPunch(context.Background(), Request{
		UserID:      "u1",
		Role:        auth.RoleEmployee,
		Type:        TypeClockIn,
		Coordinates: Coordinates{Lat: 0, Lng: 0},
	})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if outcome.Kind != OutcomeRegistered {
		t.Fatalf("expected registered outcome, got %s", outcome.Kind)
	}
	if outcome.Event.Origin != OriginOnline {
		t.Fatalf("expected online origin, got %s", outcome.Event.Origin)
	}
	if outcome.Event.TenantID != "t1" {
		t.Fatalf("expected tenant t1, got %s", outcome.Event.TenantID)
	}
	if outcome.Event.CreatedAt.IsZero() {
		t.Fatal("expected server timestamp on online punch")
	}

	docs, err := data.Query(context.Background(), Collection, nil)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 persisted punch, got %d", len(docs))
	}
	if len(queue.items) != 0 {
		t.Fatalf("expected empty queue, got %d items", len(queue.items))
	}
}

func TestRegisterPunchOfflineQueues(t *testing.T) {
	data := datastore.NewMemory()
	queue := &fakeQueue{}
	svc := newTestService(data, queue, false)

	outcome, err := svc.RegisterPunch(context.Background(), Request{
		UserID:      "u1",
		Role:        auth.RoleEmployee,
		Type:        TypeClockIn,
		Coordinates: Coordinates{Lat: 0, Lng: 0},
	})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if outcome.Kind != OutcomeQueued {
		t.Fatalf("expected queued outcome, got %s", outcome.Kind)
	}
	if outcome.LocalID == "" {
		t.Fatal("expected local id on queued outcome")
	}
	if outcome.Event.CreatedAtLocal == nil {
		t.Fatal("expected client-local timestamp on queued punch")
	}
	if !outcome.Event.CreatedAt.IsZero() {
		t.Fatal("queued punch must not carry a server timestamp yet")
	}

	docs, err := data.Query(context.Background(), Collection, nil)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("offline punch must not hit the datastore, found %d docs", len(docs))
	}
	if len(queue.items) != 1 {
		t.Fatalf("expected 1 queued item, got %d", len(queue.items))
	}
}

func TestRegisterPunchRejectsEmployeeOutsideGeofence(t *testing.T) {
	data := datastore.NewMemory()
	queue := &fakeQueue{}
	svc := newTestService(data, queue, true)

	_, err := svc.RegisterPunch(context.Background(), Request{
		UserID:      "u1",
		Role:        auth.RoleEmployee,
		Type:        TypeClockIn,
		Coordinates: Coordinates{Lat: 0.01, Lng: 0},
	})
	if !errors.Is(err, ErrOutOfGeofence) {
		t.Fatalf("expected ErrOutOfGeofence, got %v", err)
	}

	var details *OutOfGeofenceError
	if !errors.As(err, &details) {
		t.Fatalf("expected OutOfGeofenceError, got %T", err)
	}
	if details.DistanceMeters <= details.RadiusMeters {
		t.Fatalf("rejection distance %dm should exceed radius %dm", details.DistanceMeters, details.RadiusMeters)
	}

	docs, _ := data.Query(context.Background(), Collection, nil)
	if len(docs) != 0 {
		t.Fatal("rejected punch must not be persisted")
	}
	if len(queue.items) != 0 {
		t.Fatal("rejected punch must not be queued")
	}
}

func TestRegisterPunchAdminOverrideOutsideGeofence(t *testing.T) {
	data := datastore.NewMemory()
	queue := &fakeQueue{}
	svc := newTestService(data, queue, true)

	outcome, err := svc.RegisterPunch(context.Background(), Request{
		UserID:      "admin1",
		Role:        auth.RoleAdmin,
		Type:        TypeClockIn,
		Coordinates: Coordinates{Lat: 0.01, Lng: 0},
	})
	if err != nil {
		t.Fatalf("admin punch outside geofence should be allowed: %v", err)
	}
	if outcome.Event.WithinGeofence {
		t.Fatal("override punch must record withinGeofence=false")
	}
	if outcome.Event.DistanceMeters <= 100 {
		t.Fatalf("expected recorded distance > radius, got %d", outcome.Event.DistanceMeters)
	}
}

func TestRegisterPunchInvalidCoordinates(t *testing.T) {
	svc := newTestService(datastore.NewMemory(), &fakeQueue{}, true)

	_, err := svc.RegisterPunch(context.Background(), Request{
		UserID:      "u1",
		Role:        auth.RoleEmployee,
		Type:        TypeClockIn,
		Coordinates: Coordinates{Lat: 200, Lng: 0},
	})
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestRegisterPunchTenantUnresolved(t *testing.T) {
	svc := newTestService(datastore.NewMemory(), &fakeQueue{}, true)
	svc.Tenants = fakeTenants{err: errors.New("no assignment")}

	_, err := svc.RegisterPunch(context.Background(), Request{
		UserID:      "u-unknown",
		Role:        auth.RoleEmployee,
		Type:        TypeClockIn,
		Coordinates: Coordinates{Lat: 0, Lng: 0},
	})
	if !errors.Is(err, ErrTenantUnresolved) {
		t.Fatalf("expected ErrTenantUnresolved, got %v", err)
	}
}

func TestRegisterRetroactive(t *testing.T) {
	data := datastore.NewMemory()
	svc := newTestService(data, &fakeQueue{}, true)

	stamp := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	ev, err := svc.RegisterRetroactive(context.Background(), RetroactiveRequest{
		UserID:    "u1",
		Timestamp: stamp,
		Type:      TypeClockIn,
	})
	if err != nil {
		t.Fatalf("retroactive error: %v", err)
	}
	if ev.Origin != OriginJustification {
		t.Fatalf("expected justification origin, got %s", ev.Origin)
	}
	if ev.RetroactiveTimestamp == nil || !ev.RetroactiveTimestamp.Equal(stamp) {
		t.Fatalf("retroactive timestamp not preserved: %v", ev.RetroactiveTimestamp)
	}
	if !ev.EffectiveTime().Equal(stamp) {
		t.Fatalf("effective time should be the retroactive timestamp, got %v", ev.EffectiveTime())
	}
}

func TestEventEffectiveTimePrecedence(t *testing.T) {
	local := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	server := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	retro := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	queued := Event{CreatedAtLocal: &local}
	if !queued.EffectiveTime().Equal(local) {
		t.Fatal("queued event should use client-local time")
	}

	synced := Event{CreatedAtLocal: &local, CreatedAt: server}
	if !synced.EffectiveTime().Equal(server) {
		t.Fatal("server timestamp must supersede client-local time")
	}

	corrected := Event{CreatedAtLocal: &local, CreatedAt: server, RetroactiveTimestamp: &retro}
	if !corrected.EffectiveTime().Equal(retro) {
		t.Fatal("retroactive timestamp must win over server time")
	}
}
