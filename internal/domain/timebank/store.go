package timebank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNegativeMinutes    = errors.New("ledger minutes must be non-negative")
	ErrMissingDescription = errors.New("ledger description is required")
	ErrInvalidKind        = errors.New("ledger kind must be CREDIT or DEBIT")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (e LedgerEntry) Validate() error {
	if e.Kind != KindCredit && e.Kind != KindDebit {
		return ErrInvalidKind
	}
	if e.Minutes < 0 {
		return ErrNegativeMinutes
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrMissingDescription
	}
	return nil
}

func (s *Store) Create(ctx context.Context, entry LedgerEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}
	if entry.Origin == "" {
		entry.Origin = OriginManual
	}

	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO ledger_entries (tenant_id, user_id, kind, minutes, description, origin, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, entry.TenantID, entry.UserID, entry.Kind, entry.Minutes, entry.Description, entry.Origin, entry.CreatedBy).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) List(ctx context.Context, tenantID, userID string, from, to time.Time) ([]LedgerEntry, error) {
	query := `
    SELECT id, tenant_id, user_id, kind, minutes, description, origin, created_at, created_by
    FROM ledger_entries
    WHERE tenant_id = $1 AND user_id = $2
  `
	args := []any{tenantID, userID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Kind, &e.Minutes, &e.Description, &e.Origin, &e.CreatedAt, &e.CreatedBy); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a ledger entry. Balances are derived views, so deletion
// needs no compensation: the next read recomputes from what remains.
func (s *Store) Delete(ctx context.Context, tenantID, entryID string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM ledger_entries
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, entryID)
	return err
}
