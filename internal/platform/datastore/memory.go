package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is the in-process Store used by tests and by ephemeral deployments.
type Memory struct {
	mu      sync.Mutex
	docs    map[string][]json.RawMessage
	subs    map[int]subscription
	nextSub int
}

func NewMemory() *Memory {
	return &Memory{docs: map[string][]json.RawMessage{}, subs: map[int]subscription{}}
}

func (m *Memory) Write(ctx context.Context, collection string, doc any) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", collection, err)
	}

	m.mu.Lock()
	m.docs[collection] = append(m.docs[collection], payload)
	listeners := make([]func(), 0, len(m.subs))
	for _, sub := range m.subs {
		if sub.collection == collection && matchesEq(payload, sub.filters) {
			listeners = append(listeners, sub.onChange)
		}
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return uuid.NewString(), nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters []Filter) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []json.RawMessage
	for _, doc := range m.docs[collection] {
		if matchesAll(doc, filters) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *Memory) Subscribe(collection string, filters []Filter, onChange func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = subscription{collection: collection, filters: filters, onChange: onChange}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func matchesAll(doc json.RawMessage, filters []Filter) bool {
	if len(filters) == 0 {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false
	}
	for _, f := range filters {
		have := fmt.Sprint(fields[f.Field])
		want := fmt.Sprint(f.Value)
		switch f.Op {
		case OpEq:
			if have != want {
				return false
			}
		case OpGte:
			if have < want {
				return false
			}
		case OpLte:
			if have > want {
				return false
			}
		default:
			return false
		}
	}
	return true
}
