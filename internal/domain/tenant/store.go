package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUnassigned   = errors.New("user has no tenant assignment")
	ErrNoSite       = errors.New("tenant has no primary site")
	ErrUserNotFound = errors.New("user not found")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// ResolveTenant returns the current tenant assignment for an active user.
// Implements punch.TenantResolver; called per attempt and again per queued
// item at sync time.
func (s *Store) ResolveTenant(ctx context.Context, userID string) (string, error) {
	var tenantID string
	err := s.DB.QueryRow(ctx, `
    SELECT tenant_id FROM users
    WHERE id = $1 AND status = 'active'
  `, userID).Scan(&tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUnassigned
	}
	if err != nil {
		return "", err
	}
	return tenantID, nil
}

// SiteGeofence implements punch.SiteResolver: the primary site's center and
// radius for a tenant.
func (s *Store) SiteGeofence(ctx context.Context, tenantID string) (float64, float64, int, error) {
	var (
		lat, lng float64
		radius   int
	)
	err := s.DB.QueryRow(ctx, `
    SELECT lat, lng, radius_meters FROM sites
    WHERE tenant_id = $1 AND is_primary
  `, tenantID).Scan(&lat, &lng, &radius)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, 0, ErrNoSite
	}
	if err != nil {
		return 0, 0, 0, err
	}
	return lat, lng, radius, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (Employee, string, error) {
	var (
		e    Employee
		hash string
	)
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, name, email, role, status, password_hash, created_at
    FROM users
    WHERE email = $1 AND status = 'active'
  `, email).Scan(&e.ID, &e.TenantID, &e.Name, &e.Email, &e.Role, &e.Status, &hash, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, "", ErrUserNotFound
	}
	if err != nil {
		return Employee{}, "", err
	}
	return e, hash, nil
}

func (s *Store) UserByID(ctx context.Context, userID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, name, email, role, status, created_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&e.ID, &e.TenantID, &e.Name, &e.Email, &e.Role, &e.Status, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrUserNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, tenant_id, name, email, role, status, created_at
    FROM users
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &e.Email, &e.Role, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID, name, email, passwordHash, role string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO users (tenant_id, name, email, password_hash, role)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, tenantID, name, email, passwordHash, role).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// ReassignTenant moves a user to another tenant. Queued punches pick the new
// assignment up at sync time.
func (s *Store) ReassignTenant(ctx context.Context, userID, tenantID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET tenant_id = $2 WHERE id = $1
  `, userID, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) ListSites(ctx context.Context, tenantID string) ([]Site, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, tenant_id, name, lat, lng, radius_meters, is_primary, created_at
    FROM sites
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.ID, &site.TenantID, &site.Name, &site.Lat, &site.Lng, &site.RadiusMeters, &site.Primary, &site.CreatedAt); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *Store) CreateSite(ctx context.Context, site Site) (string, error) {
	if site.RadiusMeters <= 0 {
		return "", fmt.Errorf("site radius must be positive")
	}

	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO sites (tenant_id, name, lat, lng, radius_meters, is_primary)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, site.TenantID, site.Name, site.Lat, site.Lng, site.RadiusMeters, site.Primary).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) DeleteSite(ctx context.Context, tenantID, siteID string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM sites WHERE tenant_id = $1 AND id = $2
  `, tenantID, siteID)
	return err
}
