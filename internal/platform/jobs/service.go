package jobs

import (
	"context"
	"log/slog"
	"time"

	"timeclock/internal/offline"
)

// Service runs the background sync loop: a queue-changed signal or the
// periodic tick both lead to one SyncNow attempt. The coordinator itself
// skips when offline or mid-pass, so firing eagerly here is harmless.
type Service struct {
	Coordinator *offline.Coordinator
	Queue       *offline.Queue
	Interval    time.Duration
}

func New(coordinator *offline.Coordinator, queue *offline.Queue, interval time.Duration) *Service {
	return &Service{Coordinator: coordinator, Queue: queue, Interval: interval}
}

func (s *Service) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Service) loop(ctx context.Context) {
	changed, unsubscribe := s.Queue.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
		case <-ticker.C:
		}

		size, err := s.Queue.Size()
		if err != nil {
			slog.Warn("queue size check failed", "err", err)
			continue
		}
		if size == 0 {
			continue
		}

		if _, err := s.Coordinator.SyncNow(ctx); err != nil {
			slog.Warn("background sync pass failed", "err", err)
		}
	}
}
