package synchandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/punch"
	"timeclock/internal/offline"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
)

type Handler struct {
	Queue       *offline.Queue
	Coordinator *offline.Coordinator
	Probe       punch.Probe
}

func NewHandler(queue *offline.Queue, coordinator *offline.Coordinator, probe punch.Probe) *Handler {
	return &Handler{Queue: queue, Coordinator: coordinator, Probe: probe}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sync", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/status", h.handleStatus)
		r.Post("/run", h.handleRun)
	})
}

type statusResponse struct {
	Online     bool           `json:"online"`
	QueueSize  int            `json:"queueSize"`
	LastReport offline.Report `json:"lastReport"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	size, err := h.Queue.Size()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sync_status_failed", "failed to read queue size", requestID)
		return
	}
	api.Success(w, statusResponse{
		Online:     h.Probe.Online(r.Context()),
		QueueSize:  size,
		LastReport: h.Coordinator.LastReport(),
	}, requestID)
}

// handleRun is the manual drain trigger. A pass already in flight returns a
// skipped report rather than stacking a second pass.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	report, err := h.Coordinator.SyncNow(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sync_failed", "sync pass failed", requestID)
		return
	}
	api.Success(w, report, requestID)
}
