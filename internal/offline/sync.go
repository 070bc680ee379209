package offline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"timeclock/internal/domain/punch"
	"timeclock/internal/platform/datastore"
	"timeclock/internal/platform/metrics"
)

// Report describes one drain pass.
type Report struct {
	Started   time.Time `json:"started"`
	Skipped   bool      `json:"skipped"`
	Synced    int       `json:"synced"`
	Failed    int       `json:"failed"`
	Remaining int       `json:"remaining"`
}

// Coordinator drains the offline queue into the datastore. Passes never
// overlap; items are submitted strictly in enqueue order and dequeued only
// after the write is acknowledged. A crash between write and dequeue can
// duplicate an item on the next pass: at-least-once, accepted.
type Coordinator struct {
	Queue   *Queue
	Data    datastore.Store
	Tenants punch.TenantResolver
	Probe   punch.Probe
	Metrics *metrics.Collector

	Now func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	last    Report
}

func NewCoordinator(queue *Queue, data datastore.Store, tenants punch.TenantResolver, probe punch.Probe, collector *metrics.Collector) *Coordinator {
	return &Coordinator{
		Queue:   queue,
		Data:    data,
		Tenants: tenants,
		Probe:   probe,
		Metrics: collector,
		Now:     time.Now,
	}
}

// SyncNow runs one drain pass. Overlapping triggers collapse into the
// in-flight pass and return a skipped report. Offline or an empty queue is
// a no-op.
func (c *Coordinator) SyncNow(ctx context.Context) (Report, error) {
	if !c.running.CompareAndSwap(false, true) {
		return Report{Started: c.Now().UTC(), Skipped: true}, nil
	}
	defer c.running.Store(false)

	report := Report{Started: c.Now().UTC()}

	if !c.Probe.Online(ctx) {
		report.Skipped = true
		return report, nil
	}

	items, err := c.Queue.List()
	if err != nil {
		return report, err
	}
	if len(items) == 0 {
		report.Skipped = true
		return report, nil
	}

	for _, item := range items {
		if err := c.submit(ctx, item); err != nil {
			// The item stays queued for the next trigger; later items are
			// still attempted this pass.
			report.Failed++
			if markErr := c.Queue.MarkAttempt(item.LocalID); markErr != nil {
				slog.Warn("mark sync attempt failed", "localId", item.LocalID, "err", markErr)
			}
			slog.Warn("queued punch sync failed",
				"localId", item.LocalID, "userId", item.Event.UserID,
				"attempts", item.Attempts+1, "err", err)
			continue
		}
		if err := c.Queue.Dequeue(item.LocalID); err != nil {
			slog.Warn("dequeue after sync failed", "localId", item.LocalID, "err", err)
		}
		report.Synced++
	}

	if remaining, err := c.Queue.Size(); err == nil {
		report.Remaining = remaining
	}

	c.Metrics.SyncPass(report.Synced, report.Failed)
	c.mu.Lock()
	c.last = report
	c.mu.Unlock()

	slog.Info("sync pass finished",
		"synced", report.Synced, "failed", report.Failed, "remaining", report.Remaining)
	return report, nil
}

func (c *Coordinator) submit(ctx context.Context, item Item) error {
	// A tenant correction may have happened while the device was offline;
	// the current assignment always wins over the one captured at enqueue.
	tenantID, err := c.Tenants.ResolveTenant(ctx, item.Event.UserID)
	if err != nil {
		return err
	}

	ev := item.Event
	ev.TenantID = tenantID
	ev.Origin = punch.OriginOfflineQueue
	ev.CreatedAt = c.Now().UTC()

	_, err = c.Data.Write(ctx, punch.Collection, ev)
	return err
}

// LastReport returns the most recent completed pass.
func (c *Coordinator) LastReport() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
