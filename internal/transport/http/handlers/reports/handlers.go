package reportshandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/reports"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/daily", h.handleDaily)
		r.Get("/balance", h.handleBalance)
	})
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	userID, from, to, ok := h.params(w, r, user, requestID)
	if !ok {
		return
	}

	summaries, err := h.Service.Daily(r.Context(), user.TenantID, userID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to compute daily report", requestID)
		return
	}
	api.Success(w, summaries, requestID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	userID, from, to, ok := h.params(w, r, user, requestID)
	if !ok {
		return
	}

	balance, err := h.Service.Balance(r.Context(), user.TenantID, userID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to compute balance report", requestID)
		return
	}
	api.Success(w, balance, requestID)
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request, user auth.UserContext, requestID string) (string, time.Time, time.Time, bool) {
	userID := r.URL.Query().Get("employeeId")
	if userID == "" {
		userID = user.UserID
	}
	if userID != user.UserID && !user.IsAdmin() {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's report", requestID)
		return "", time.Time{}, time.Time{}, false
	}

	from, err := shared.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "from must be RFC3339 or YYYY-MM-DD", requestID)
		return "", time.Time{}, time.Time{}, false
	}
	to, err := shared.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "to must be RFC3339 or YYYY-MM-DD", requestID)
		return "", time.Time{}, time.Time{}, false
	}
	from, to = shared.DayRange(from, to, h.Service.Location)
	return userID, from, to, true
}
