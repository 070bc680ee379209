// Package offline holds the durable punch queue and the sync coordinator
// that drains it into the datastore when connectivity returns.
package offline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"timeclock/internal/domain/punch"
)

// Item is a punch event awaiting submission, plus its queue bookkeeping.
type Item struct {
	LocalID    string      `json:"localId"`
	EnqueuedAt time.Time   `json:"enqueuedAt"`
	Attempts   int         `json:"attempts"`
	Event      punch.Event `json:"event"`
}

// QueueStore is the durable backing of the queue. Operations are whole-item
// and atomic; Remove of an absent id is a no-op.
type QueueStore interface {
	Append(item Item) error
	Remove(localID string) error
	List() ([]Item, error)
	IncrementAttempts(localID string) error
}

// Queue is a pure FIFO log of pending punch events. Items are never
// reordered; every mutation notifies subscribers.
type Queue struct {
	store    QueueStore
	notifier *Notifier
}

func NewQueue(store QueueStore, notifier *Notifier) *Queue {
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &Queue{store: store, notifier: notifier}
}

// Enqueue appends an event and returns its generated local id.
func (q *Queue) Enqueue(ev punch.Event) (string, error) {
	item := Item{
		LocalID:    uuid.NewString(),
		EnqueuedAt: time.Now().UTC(),
		Event:      ev,
	}
	if err := q.store.Append(item); err != nil {
		return "", fmt.Errorf("append queue item: %w", err)
	}
	q.notifier.Notify()
	return item.LocalID, nil
}

// Dequeue removes an item by local id. Removing an absent id is a no-op.
func (q *Queue) Dequeue(localID string) error {
	if err := q.store.Remove(localID); err != nil {
		return fmt.Errorf("remove queue item %s: %w", localID, err)
	}
	q.notifier.Notify()
	return nil
}

// List returns all pending items in insertion order.
func (q *Queue) List() ([]Item, error) {
	return q.store.List()
}

func (q *Queue) Size() (int, error) {
	items, err := q.store.List()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// MarkAttempt records one failed submission for an item.
func (q *Queue) MarkAttempt(localID string) error {
	return q.store.IncrementAttempts(localID)
}

// Subscribe registers a queue-changed observer.
func (q *Queue) Subscribe() (<-chan struct{}, func()) {
	return q.notifier.Subscribe()
}
