package punchhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/punch"
	"timeclock/internal/domain/reports"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service *punch.Service
	Reports *reports.Service
	Audit   *audit.Service

	validate *validator.Validate
}

func NewHandler(service *punch.Service, reportsSvc *reports.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Reports: reportsSvc, Audit: auditSvc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/punches", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/", h.handleRegister)
		r.Get("/daily", h.handleDaily)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/retroactive", h.handleRetroactive)
	})
}

type registerRequest struct {
	Type             string   `json:"type" validate:"required,oneof=CLOCK_IN BREAK_START BREAK_END CLOCK_OUT"`
	Lat              *float64 `json:"lat" validate:"required_without=GeolocationError"`
	Lng              *float64 `json:"lng" validate:"required_without=GeolocationError"`
	GeolocationError string   `json:"geolocationError,omitempty" validate:"omitempty,oneof=permission_denied unavailable timeout"`
	Platform         string   `json:"platform,omitempty"`
	Language         string   `json:"language,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.BadRequest(w, err.Error(), requestID)
		return
	}

	// A failed position acquisition aborts the attempt outright; the punch
	// is neither persisted nor queued.
	if err := punch.GeolocationError(payload.GeolocationError); err != nil {
		api.Fail(w, http.StatusUnprocessableEntity, "geolocation_failed", err.Error(), requestID)
		return
	}
	if payload.Lat == nil || payload.Lng == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_coordinates", "coordinates are required", requestID)
		return
	}

	outcome, err := h.Service.RegisterPunch(r.Context(), punch.Request{
		UserID:      user.UserID,
		UserName:    user.Name,
		Role:        user.Role,
		Type:        punch.Type(payload.Type),
		Coordinates: punch.Coordinates{Lat: *payload.Lat, Lng: *payload.Lng},
		DeviceInfo: punch.DeviceInfo{
			UserAgent: r.UserAgent(),
			Platform:  payload.Platform,
			Language:  payload.Language,
		},
		SourceIP: shared.ClientIP(r),
	})
	if err != nil {
		h.failRegister(w, err, requestID)
		return
	}

	if !outcome.Event.WithinGeofence {
		if auditErr := h.Audit.Record(r.Context(), outcome.Event.TenantID, user.UserID,
			"punch.geofence.override", "punch", "", requestID, shared.ClientIP(r),
			map[string]any{"distanceMeters": outcome.Event.DistanceMeters, "type": outcome.Event.Type}); auditErr != nil {
			slog.Warn("audit punch.geofence.override failed", "err", auditErr)
		}
	}

	if outcome.Kind == punch.OutcomeQueued {
		api.Accepted(w, outcome, requestID)
		return
	}
	api.Created(w, outcome, requestID)
}

func (h *Handler) failRegister(w http.ResponseWriter, err error, requestID string) {
	var outOfFence *punch.OutOfGeofenceError
	switch {
	case errors.As(err, &outOfFence):
		api.Fail(w, http.StatusForbidden, "out_of_geofence", outOfFence.Error(), requestID)
	case errors.Is(err, punch.ErrInvalidCoordinates):
		api.Fail(w, http.StatusBadRequest, "invalid_coordinates", "coordinates are malformed", requestID)
	case errors.Is(err, punch.ErrTenantUnresolved):
		api.Fail(w, http.StatusConflict, "tenant_unresolved", "no tenant assignment for user; contact an administrator", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "punch_failed", "failed to register punch", requestID)
	}
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}

	from, to = shared.DayRange(from, to, h.Reports.Location)
	summaries, err := h.Reports.Daily(r.Context(), user.TenantID, user.UserID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "daily_failed", "failed to compute daily summaries", requestID)
		return
	}
	api.Success(w, summaries, requestID)
}

type retroactiveRequest struct {
	UserID    string `json:"userId" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=CLOCK_IN BREAK_START BREAK_END CLOCK_OUT"`
	Timestamp string `json:"timestamp" validate:"required"`
}

func (h *Handler) handleRetroactive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload retroactiveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.BadRequest(w, err.Error(), requestID)
		return
	}

	at, err := shared.ParseDate(payload.Timestamp)
	if err != nil || at.IsZero() {
		api.BadRequest(w, "timestamp must be RFC3339", requestID)
		return
	}

	ev, err := h.Service.RegisterRetroactive(r.Context(), punch.RetroactiveRequest{
		UserID:    payload.UserID,
		Timestamp: at,
		Type:      punch.Type(payload.Type),
	})
	if err != nil {
		h.failRegister(w, err, requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), ev.TenantID, user.UserID,
		"punch.retroactive.create", "punch", "", requestID, shared.ClientIP(r), payload); auditErr != nil {
		slog.Warn("audit punch.retroactive.create failed", "err", auditErr)
	}
	api.Created(w, ev, requestID)
}

func parseRange(w http.ResponseWriter, r *http.Request, requestID string) (time.Time, time.Time, bool) {
	from, err := shared.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "from must be RFC3339 or YYYY-MM-DD", requestID)
		return time.Time{}, time.Time{}, false
	}
	to, err := shared.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "to must be RFC3339 or YYYY-MM-DD", requestID)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
