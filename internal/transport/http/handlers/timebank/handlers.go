package timebankhandler

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
	"timeclock/internal/domain/reports"
	"timeclock/internal/domain/timebank"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Store   *timebank.Store
	Reports *reports.Service
	Audit   *audit.Service

	validate *validator.Validate
}

func NewHandler(store *timebank.Store, reportsSvc *reports.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Reports: reportsSvc, Audit: auditSvc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timebank", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/entries", h.handleListEntries)
		r.Get("/balance", h.handleBalance)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/entries", h.handleCreateEntry)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/entries/{entryID}", h.handleDeleteEntry)
	})
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	userID, ok := h.targetUser(w, r, user, requestID)
	if !ok {
		return
	}
	from, to, ok := h.parseRange(w, r, requestID)
	if !ok {
		return
	}

	entries, err := h.Store.List(r.Context(), user.TenantID, userID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ledger_list_failed", "failed to list ledger entries", requestID)
		return
	}
	api.Success(w, entries, requestID)
}

type createEntryRequest struct {
	UserID      string `json:"userId" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=CREDIT DEBIT"`
	Minutes     int    `json:"minutes" validate:"gte=0"`
	Description string `json:"description" validate:"required"`
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.BadRequest(w, err.Error(), requestID)
		return
	}

	id, err := h.Store.Create(r.Context(), timebank.LedgerEntry{
		TenantID:    user.TenantID,
		UserID:      payload.UserID,
		Kind:        timebank.Kind(payload.Kind),
		Minutes:     payload.Minutes,
		Description: payload.Description,
		Origin:      timebank.OriginManual,
		CreatedBy:   user.UserID,
	})
	if err != nil {
		if errors.Is(err, timebank.ErrNegativeMinutes) || errors.Is(err, timebank.ErrMissingDescription) || errors.Is(err, timebank.ErrInvalidKind) {
			api.BadRequest(w, err.Error(), requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "ledger_create_failed", "failed to create ledger entry", requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), user.TenantID, user.UserID,
		"timebank.entry.create", "ledger_entry", id, requestID, shared.ClientIP(r), payload); auditErr != nil {
		slog.Warn("audit timebank.entry.create failed", "err", auditErr)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

// handleDeleteEntry removes a ledger entry. Balances are recomputed from
// remaining data on the next read; nothing is patched incrementally.
func (h *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	entryID := chi.URLParam(r, "entryID")

	if err := h.Store.Delete(r.Context(), user.TenantID, entryID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "ledger_delete_failed", "failed to delete ledger entry", requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), user.TenantID, user.UserID,
		"timebank.entry.delete", "ledger_entry", entryID, requestID, shared.ClientIP(r), nil); auditErr != nil {
		slog.Warn("audit timebank.entry.delete failed", "err", auditErr)
	}
	api.Success(w, map[string]string{"id": entryID}, requestID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	userID, ok := h.targetUser(w, r, user, requestID)
	if !ok {
		return
	}
	from, to, ok := h.parseRange(w, r, requestID)
	if !ok {
		return
	}
	from, to = shared.DayRange(from, to, h.Reports.Location)

	balance, err := h.Reports.Balance(r.Context(), user.TenantID, userID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balance_failed", "failed to compute balance", requestID)
		return
	}
	api.Success(w, balance, requestID)
}

// targetUser resolves the employee a query is about: admins may pass
// ?userId=, everyone else only sees themselves.
func (h *Handler) targetUser(w http.ResponseWriter, r *http.Request, user auth.UserContext, requestID string) (string, bool) {
	target := r.URL.Query().Get("userId")
	if target == "" || target == user.UserID {
		return user.UserID, true
	}
	if !user.IsAdmin() {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's time bank", requestID)
		return "", false
	}
	return target, true
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request, requestID string) (time.Time, time.Time, bool) {
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
