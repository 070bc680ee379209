// Package datastore exposes the narrow document contract the attendance core
// depends on. The core never sees a concrete backend; production runs on
// Postgres JSONB documents, tests on the in-memory implementation.
package datastore

import (
	"context"
	"encoding/json"
)

type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

type Store interface {
	// Write persists one document and returns its generated id.
	Write(ctx context.Context, collection string, doc any) (string, error)
	// Query returns raw documents matching every filter, oldest first.
	Query(ctx context.Context, collection string, filters []Filter) ([]json.RawMessage, error)
	// Subscribe registers a fire-and-forget change signal for a collection.
	// The returned function unsubscribes.
	Subscribe(collection string, filters []Filter, onChange func()) func()
}
