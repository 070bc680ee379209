package tenantadminhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/tenant"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

// Handler exposes the tenant administration surface: employees, sites and
// tenant reassignment. Everything here is admin-only.
type Handler struct {
	Store    *tenant.Store
	Audit    *audit.Service
	validate *validator.Validate
}

func NewHandler(store *tenant.Store, auditSvc *audit.Service) *Handler {
	return &Handler{
		Store:    store,
		Audit:    auditSvc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/", h.handleListEmployees)
		r.Post("/", h.handleCreateEmployee)
		r.Post("/{userID}/tenant", h.handleReassignTenant)
	})
	r.Route("/sites", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/", h.handleListSites)
		r.Post("/", h.handleCreateSite)
		r.Delete("/{siteID}", h.handleDeleteSite)
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	employees, err := h.Store.ListEmployees(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_failed", "failed to list employees", requestID)
		return
	}
	api.Success(w, employees, requestID)
}

type createEmployeeRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=employee admin"`
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.BadRequest(w, err.Error(), requestID)
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "failed to create employee", requestID)
		return
	}
	id, err := h.Store.CreateEmployee(r.Context(), user.TenantID, payload.Name, payload.Email, hash, payload.Role)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "failed to create employee", requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), user.TenantID, user.UserID,
		"employee.create", "user", id, requestID, shared.ClientIP(r),
		map[string]string{"email": payload.Email, "role": payload.Role}); auditErr != nil {
		slog.Warn("audit employee.create failed", "err", auditErr)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

type reassignRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
}

// handleReassignTenant moves an employee to another tenant. Punches still
// sitting in an offline queue resolve the new tenant when they sync.
func (h *Handler) handleReassignTenant(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	var payload reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.BadRequest(w, err.Error(), requestID)
		return
	}

	if err := h.Store.ReassignTenant(r.Context(), userID, payload.TenantID); err != nil {
		if errors.Is(err, tenant.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "reassign_failed", "failed to reassign tenant", requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), user.TenantID, user.UserID,
		"employee.tenant.reassign", "user", userID, requestID, shared.ClientIP(r),
		map[string]string{"tenantId": payload.TenantID}); auditErr != nil {
		slog.Warn("audit employee.tenant.reassign failed", "err", auditErr)
	}
	api.Success(w, map[string]string{"userId": userID, "tenantId": payload.TenantID}, requestID)
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	sites, err := h.Store.ListSites(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sites_failed", "failed to list sites", requestID)
		return
	}
	api.Success(w, sites, requestID)
}

type createSiteRequest struct {
	Name         string  `json:"name" validate:"required"`
	Lat          float64 `json:"lat" validate:"min=-90,max=90"`
	Lng          float64 `json:"lng" validate:"min=-180,max=180"`
	RadiusMeters int     `json:"radiusMeters" validate:"required,gt=0"`
	Primary      bool    `json:"primary"`
}

func (h *Handler) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload createSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.BadRequest(w, err.Error(), requestID)
		return
	}

	id, err := h.Store.CreateSite(r.Context(), tenant.Site{
		TenantID:     user.TenantID,
		Name:         payload.Name,
		Lat:          payload.Lat,
		Lng:          payload.Lng,
		RadiusMeters: payload.RadiusMeters,
		Primary:      payload.Primary,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "site_failed", "failed to create site", requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), user.TenantID, user.UserID,
		"site.create", "site", id, requestID, shared.ClientIP(r), payload); auditErr != nil {
		slog.Warn("audit site.create failed", "err", auditErr)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	siteID := chi.URLParam(r, "siteID")

	if err := h.Store.DeleteSite(r.Context(), user.TenantID, siteID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "site_failed", "failed to delete site", requestID)
		return
	}

	if auditErr := h.Audit.Record(r.Context(), user.TenantID, user.UserID,
		"site.delete", "site", siteID, requestID, shared.ClientIP(r), nil); auditErr != nil {
		slog.Warn("audit site.delete failed", "err", auditErr)
	}
	api.Success(w, map[string]string{"id": siteID}, requestID)
}
