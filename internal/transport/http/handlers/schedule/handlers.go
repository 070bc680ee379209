package schedulehandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/schedule"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Store *schedule.Store
	Audit *audit.Service
}

func NewHandler(store *schedule.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/schedule", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/", h.handlePut)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = user.UserID
	}
	if userID != user.UserID && !user.IsAdmin() {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's schedule", requestID)
		return
	}

	doc, err := h.Store.Get(r.Context(), user.TenantID, userID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_failed", "failed to load schedule", requestID)
		return
	}
	api.Success(w, doc, requestID)
}

type putRequest struct {
	// UserID targets a per-employee override; empty targets the tenant
	// default.
	UserID string            `json:"userId,omitempty"`
	Doc    schedule.Document `json:"schedule"`
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload putRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}

	if err := h.Store.Put(r.Context(), user.TenantID, payload.UserID, payload.Doc); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_schedule", err.Error(), requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), user.TenantID, user.UserID,
		"schedule.update", "schedule", payload.UserID, requestID, shared.ClientIP(r), payload.Doc); auditErr != nil {
		slog.Warn("audit schedule.update failed", "err", auditErr)
	}
	api.Success(w, payload.Doc, requestID)
}
