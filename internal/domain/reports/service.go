// Package reports assembles read-only attendance views: daily summaries and
// period balances, recomputed from persisted punches, schedules and ledger
// entries on every request.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"timeclock/internal/domain/punch"
	"timeclock/internal/domain/schedule"
	"timeclock/internal/domain/summary"
	"timeclock/internal/domain/timebank"
	"timeclock/internal/platform/datastore"
)

type Service struct {
	Data      datastore.Store
	Schedules *schedule.Store
	Ledger    *timebank.Store

	Location             *time.Location
	FallbackBreakMinutes int
	StandardShiftMinutes int
}

func NewService(data datastore.Store, schedules *schedule.Store, ledger *timebank.Store, loc *time.Location, fallbackBreakMinutes, standardShiftMinutes int) *Service {
	return &Service{
		Data:                 data,
		Schedules:            schedules,
		Ledger:               ledger,
		Location:             loc,
		FallbackBreakMinutes: fallbackBreakMinutes,
		StandardShiftMinutes: standardShiftMinutes,
	}
}

// Daily returns one summary per calendar day with at least one punch in the
// range. A zero from/to leaves that bound open.
func (s *Service) Daily(ctx context.Context, tenantID, userID string, from, to time.Time) ([]summary.DailySummary, error) {
	punches, err := s.punches(ctx, tenantID, userID, from, to)
	if err != nil {
		return nil, err
	}

	weekly, err := s.weekly(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	return summary.Summarize(punches, weekly, summary.Options{
		Location:             s.Location,
		FallbackBreakMinutes: s.FallbackBreakMinutes,
	}), nil
}

// Balance aggregates the period's daily deltas with the ledger.
func (s *Service) Balance(ctx context.Context, tenantID, userID string, from, to time.Time) (timebank.Balance, error) {
	summaries, err := s.Daily(ctx, tenantID, userID, from, to)
	if err != nil {
		return timebank.Balance{}, err
	}

	entries, err := s.Ledger.List(ctx, tenantID, userID, from, to)
	if err != nil {
		return timebank.Balance{}, err
	}

	weekly, err := s.weekly(ctx, tenantID, userID)
	if err != nil {
		return timebank.Balance{}, err
	}

	shift := timebank.StandardShiftMinutes(weekly, s.FallbackBreakMinutes, s.StandardShiftMinutes)
	return timebank.Aggregate(summaries, entries, shift), nil
}

func (s *Service) punches(ctx context.Context, tenantID, userID string, from, to time.Time) ([]punch.Event, error) {
	docs, err := s.Data.Query(ctx, punch.Collection, []datastore.Filter{
		datastore.Eq("tenantId", tenantID),
		datastore.Eq("userId", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("query punches: %w", err)
	}

	var events []punch.Event
	for _, doc := range docs {
		var ev punch.Event
		if err := json.Unmarshal(doc, &ev); err != nil {
			return nil, fmt.Errorf("decode punch document: %w", err)
		}
		at := ev.EffectiveTime()
		if !from.IsZero() && at.Before(from) {
			continue
		}
		if !to.IsZero() && at.After(to) {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *Service) weekly(ctx context.Context, tenantID, userID string) (*schedule.Weekly, error) {
	doc, err := s.Schedules.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	weekly, err := schedule.Resolve(doc)
	if err != nil {
		return nil, fmt.Errorf("resolve schedule: %w", err)
	}
	return weekly, nil
}
