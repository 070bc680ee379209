package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/schedule"
	"timeclock/internal/platform/config"
)

// Seed ensures a default tenant, admin user, primary site and weekly
// schedule exist so a fresh deployment can punch immediately.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}

	if cfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, pool, tenantID, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}

	if err := ensurePrimarySite(ctx, pool, tenantID, cfg); err != nil {
		return err
	}

	return ensureDefaultSchedule(ctx, pool, tenantID)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	if err := pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, email, password string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (tenant_id, name, email, password_hash, role)
    VALUES ($1, 'Administrator', $2, $3, $4)
  `, tenantID, email, hash, auth.RoleAdmin)
	return err
}

func ensurePrimarySite(ctx context.Context, pool *pgxpool.Pool, tenantID string, cfg config.Config) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM sites WHERE tenant_id = $1 AND is_primary", tenantID).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO sites (tenant_id, name, lat, lng, radius_meters, is_primary)
    VALUES ($1, $2, $3, $4, $5, true)
  `, tenantID, cfg.SeedSiteName, cfg.SeedSiteLat, cfg.SeedSiteLng, cfg.SeedSiteRadius)
	return err
}

func ensureDefaultSchedule(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM schedules WHERE tenant_id = $1 AND user_id IS NULL", tenantID).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	weekday := schedule.DayShift{
		Active:     true,
		StartTime:  "08:00",
		BreakStart: "12:00",
		BreakEnd:   "13:00",
		EndTime:    "17:00",
	}
	doc := schedule.Document{Days: map[string]schedule.DayShift{
		"sunday":    {},
		"monday":    weekday,
		"tuesday":   weekday,
		"wednesday": weekday,
		"thursday":  weekday,
		"friday":    weekday,
		"saturday":  {},
	}}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO schedules (tenant_id, user_id, doc)
    VALUES ($1, NULL, $2)
  `, tenantID, payload)
	return err
}
