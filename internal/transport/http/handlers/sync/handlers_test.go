package synchandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/punch"
	"timeclock/internal/offline"
	"timeclock/internal/platform/datastore"
	"timeclock/internal/transport/http/middleware"
)

type staticResolver string

func (s staticResolver) ResolveTenant(ctx context.Context, userID string) (string, error) {
	return string(s), nil
}

type staticProbe bool

func (p staticProbe) Online(ctx context.Context) bool { return bool(p) }

func newTestRouter(t *testing.T, queue *offline.Queue, online bool) (http.Handler, string) {
	t.Helper()

	coordinator := offline.NewCoordinator(queue, datastore.NewMemory(), staticResolver("t1"), staticProbe(online), nil)
	handler := NewHandler(queue, coordinator, staticProbe(online))

	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", TenantID: "t1", Role: auth.RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(secret))
	handler.RegisterRoutes(router)
	return router, token
}

func TestSyncStatus(t *testing.T) {
	queue := offline.NewQueue(offline.NewMemoryStore(), nil)
	local := time.Now().UTC()
	if _, err := queue.Enqueue(punch.Event{UserID: "u1", Type: punch.TypeClockIn, CreatedAtLocal: &local}); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	router, token := newTestRouter(t, queue, false)

	req := httptest.NewRequest(http.MethodGet, "/sync/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool           `json:"success"`
		Data    statusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	if envelope.Data.Online {
		t.Fatal("probe reports offline")
	}
	if envelope.Data.QueueSize != 1 {
		t.Fatalf("expected queue size 1, got %d", envelope.Data.QueueSize)
	}
}

func TestSyncRunDrainsQueue(t *testing.T) {
	queue := offline.NewQueue(offline.NewMemoryStore(), nil)
	local := time.Now().UTC()
	if _, err := queue.Enqueue(punch.Event{UserID: "u1", Type: punch.TypeClockIn, CreatedAtLocal: &local}); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	router, token := newTestRouter(t, queue, true)

	req := httptest.NewRequest(http.MethodPost, "/sync/run", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data offline.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if envelope.Data.Synced != 1 || envelope.Data.Remaining != 0 {
		t.Fatalf("unexpected report: %+v", envelope.Data)
	}

	size, _ := queue.Size()
	if size != 0 {
		t.Fatalf("queue should be drained, got %d items", size)
	}
}

func TestSyncRequiresAuthentication(t *testing.T) {
	queue := offline.NewQueue(offline.NewMemoryStore(), nil)
	router, _ := newTestRouter(t, queue, true)

	req := httptest.NewRequest(http.MethodGet, "/sync/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
