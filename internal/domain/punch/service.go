package punch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"timeclock/internal/domain/auth"
	"timeclock/internal/platform/datastore"
	"timeclock/internal/platform/metrics"
)

var (
	// ErrTenantUnresolved blocks all writes: an unassigned punch would be
	// unattributable.
	ErrTenantUnresolved = errors.New("no tenant assignment for user")
	ErrOutOfGeofence    = errors.New("punch outside authorized geofence")
)

// OutOfGeofenceError carries the measured distance back to the caller so the
// rejection message can show how far outside the fence the attempt was.
type OutOfGeofenceError struct {
	DistanceMeters int
	RadiusMeters   int
}

func (e *OutOfGeofenceError) Error() string {
	return fmt.Sprintf("punch outside authorized geofence: %dm from site, radius %dm", e.DistanceMeters, e.RadiusMeters)
}

func (e *OutOfGeofenceError) Unwrap() error { return ErrOutOfGeofence }

// TenantResolver returns the current tenant assignment for a user. The
// assignment is re-read on every attempt and again at sync time, since an
// administrative correction may happen while a device is offline.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, userID string) (string, error)
}

// SiteResolver returns the authorized site center and radius for a tenant.
type SiteResolver interface {
	SiteGeofence(ctx context.Context, tenantID string) (lat, lng float64, radiusMeters int, err error)
}

// Probe reports whether the datastore is currently reachable.
type Probe interface {
	Online(ctx context.Context) bool
}

// Queue is the durable offline log a punch falls back to when the datastore
// is unreachable.
type Queue interface {
	Enqueue(ev Event) (string, error)
}

type OutcomeKind string

const (
	OutcomeRegistered OutcomeKind = "registered"
	OutcomeQueued     OutcomeKind = "queued"
)

type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	LocalID string      `json:"localId,omitempty"`
	Event   Event       `json:"event"`
}

type Request struct {
	UserID      string
	UserName    string
	Role        string
	Type        Type
	Coordinates Coordinates
	DeviceInfo  DeviceInfo
	SourceIP    string
}

type RetroactiveRequest struct {
	UserID    string
	UserName  string
	Timestamp time.Time
	Type      Type
}

// Service orchestrates punch registration: tenant resolution, geofence
// admission control, and routing between direct persistence and the offline
// queue.
type Service struct {
	Tenants TenantResolver
	Sites   SiteResolver
	Data    datastore.Store
	Queue   Queue
	Probe   Probe
	Metrics *metrics.Collector

	Now func() time.Time
}

func NewService(tenants TenantResolver, sites SiteResolver, data datastore.Store, queue Queue, probe Probe, collector *metrics.Collector) *Service {
	return &Service{
		Tenants: tenants,
		Sites:   sites,
		Data:    data,
		Queue:   queue,
		Probe:   probe,
		Metrics: collector,
		Now:     time.Now,
	}
}

func (s *Service) RegisterPunch(ctx context.Context, req Request) (Outcome, error) {
	tenantID, err := s.Tenants.ResolveTenant(ctx, req.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrTenantUnresolved, err)
	}

	lat, lng, radius, err := s.Sites.SiteGeofence(ctx, tenantID)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve site for tenant %s: %w", tenantID, err)
	}

	result, err := ValidateGeofence(req.Coordinates, Coordinates{Lat: lat, Lng: lng}, radius)
	if err != nil {
		return Outcome{}, err
	}

	if !result.WithinGeofence {
		if req.Role != auth.RoleAdmin {
			s.Metrics.PunchRejected()
			return Outcome{}, &OutOfGeofenceError{DistanceMeters: result.DistanceMeters, RadiusMeters: radius}
		}
		slog.Warn("admin punch outside geofence allowed",
			"userId", req.UserID, "tenantId", tenantID, "distanceMeters", result.DistanceMeters)
	}

	ev := Event{
		UserID:         req.UserID,
		UserName:       req.UserName,
		TenantID:       tenantID,
		Type:           req.Type,
		Geolocation:    req.Coordinates,
		DistanceMeters: result.DistanceMeters,
		WithinGeofence: result.WithinGeofence,
		DeviceInfo:     req.DeviceInfo,
		SourceIP:       req.SourceIP,
	}

	if !s.Probe.Online(ctx) {
		local := s.Now().UTC()
		ev.CreatedAtLocal = &local
		localID, err := s.Queue.Enqueue(ev)
		if err != nil {
			return Outcome{}, fmt.Errorf("enqueue punch: %w", err)
		}
		s.Metrics.PunchQueued()
		return Outcome{Kind: OutcomeQueued, LocalID: localID, Event: ev}, nil
	}

	ev.Origin = OriginOnline
	ev.CreatedAt = s.Now().UTC()
	if _, err := s.Data.Write(ctx, Collection, ev); err != nil {
		return Outcome{}, fmt.Errorf("persist punch: %w", err)
	}
	s.Metrics.PunchRegistered()
	return Outcome{Kind: OutcomeRegistered, Event: ev}, nil
}

// RegisterRetroactive writes a punch produced by an approved justification.
// Geofence admission does not apply: the event carries an explicit
// retroactive timestamp and is attributed to the approval flow.
func (s *Service) RegisterRetroactive(ctx context.Context, req RetroactiveRequest) (Event, error) {
	tenantID, err := s.Tenants.ResolveTenant(ctx, req.UserID)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrTenantUnresolved, err)
	}

	retro := req.Timestamp.UTC()
	ev := Event{
		UserID:               req.UserID,
		UserName:             req.UserName,
		TenantID:             tenantID,
		Type:                 req.Type,
		Origin:               OriginJustification,
		CreatedAt:            s.Now().UTC(),
		RetroactiveTimestamp: &retro,
	}
	if _, err := s.Data.Write(ctx, Collection, ev); err != nil {
		return Event{}, fmt.Errorf("persist retroactive punch: %w", err)
	}
	s.Metrics.PunchRegistered()
	return ev, nil
}
