package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores each document as a JSONB row in a single table keyed by
// collection. Subscriptions are in-process: every acknowledged write fans a
// signal out to subscribers of the same collection.
type Postgres struct {
	DB *pgxpool.Pool

	mu      sync.Mutex
	subs    map[int]subscription
	nextSub int
}

type subscription struct {
	collection string
	filters    []Filter
	onChange   func()
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{DB: db, subs: map[int]subscription{}}
}

func (p *Postgres) Write(ctx context.Context, collection string, doc any) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", collection, err)
	}

	var id string
	if err := p.DB.QueryRow(ctx, `
    INSERT INTO documents (collection, doc)
    VALUES ($1, $2)
    RETURNING id
  `, collection, payload).Scan(&id); err != nil {
		return "", err
	}

	p.dispatch(collection, payload)
	return id, nil
}

func (p *Postgres) Query(ctx context.Context, collection string, filters []Filter) ([]json.RawMessage, error) {
	query := "SELECT doc FROM documents WHERE collection = $1"
	args := []any{collection}
	for _, f := range filters {
		switch f.Op {
		case OpEq, OpGte, OpLte:
		default:
			return nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
		args = append(args, f.Field, fmt.Sprint(f.Value))
		query += fmt.Sprintf(" AND doc->>$%d %s $%d", len(args)-1, f.Op, len(args))
	}
	query += " ORDER BY created_at, id"

	rows, err := p.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc json.RawMessage
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Subscribe(collection string, filters []Filter, onChange func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = subscription{collection: collection, filters: filters, onChange: onChange}
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Postgres) dispatch(collection string, doc json.RawMessage) {
	p.mu.Lock()
	listeners := make([]func(), 0, len(p.subs))
	for _, sub := range p.subs {
		if sub.collection != collection {
			continue
		}
		if !matchesEq(doc, sub.filters) {
			continue
		}
		listeners = append(listeners, sub.onChange)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// matchesEq applies equality filters to a raw document. Range filters are
// treated as a match so subscribers only ever over-notify, never miss.
func matchesEq(doc json.RawMessage, filters []Filter) bool {
	if len(filters) == 0 {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return true
	}
	for _, f := range filters {
		if f.Op != OpEq {
			continue
		}
		if fmt.Sprint(fields[f.Field]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}
