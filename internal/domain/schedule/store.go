package schedule

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Get returns the schedule document for an employee: the per-employee
// override when one exists, otherwise the tenant default, otherwise nil.
func (s *Store) Get(ctx context.Context, tenantID, userID string) (*Document, error) {
	if userID != "" {
		doc, err := s.fetch(ctx, `
      SELECT doc FROM schedules
      WHERE tenant_id = $1 AND user_id = $2
    `, tenantID, userID)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}
	return s.fetch(ctx, `
    SELECT doc FROM schedules
    WHERE tenant_id = $1 AND user_id IS NULL
  `, tenantID)
}

// Put upserts a schedule document. An empty userID targets the tenant
// default. Documents are always written in the per-weekday form; legacy
// single-shift payloads are expanded before persisting.
func (s *Store) Put(ctx context.Context, tenantID, userID string, doc Document) error {
	if _, err := Resolve(&doc); err != nil {
		return err
	}

	payload, err := json.Marshal(doc.Normalized())
	if err != nil {
		return err
	}

	if userID == "" {
		_, err = s.DB.Exec(ctx, `
      INSERT INTO schedules (tenant_id, user_id, doc)
      VALUES ($1, NULL, $2)
      ON CONFLICT (tenant_id) WHERE user_id IS NULL
      DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
    `, tenantID, payload)
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO schedules (tenant_id, user_id, doc)
    VALUES ($1, $2, $3)
    ON CONFLICT (tenant_id, user_id) WHERE user_id IS NOT NULL
    DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
  `, tenantID, userID, payload)
	return err
}

func (s *Store) fetch(ctx context.Context, query string, args ...any) (*Document, error) {
	var payload []byte
	err := s.DB.QueryRow(ctx, query, args...).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
