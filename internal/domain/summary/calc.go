// Package summary turns raw punch events plus a weekly schedule into
// per-day worked/expected minute summaries. Summarize is a pure function
// over snapshots; callers decide the refresh cadence.
package summary

import (
	"sort"
	"time"

	"timeclock/internal/domain/punch"
	"timeclock/internal/domain/schedule"
)

type Status string

const (
	StatusOk              Status = "ok"
	StatusIncomplete      Status = "incomplete"
	StatusMissingClockOut Status = "missing_clock_out"
	StatusIncompleteBreak Status = "incomplete_break"
)

// DefaultFallbackBreakMinutes is subtracted from a shift whose break window
// is not configured.
const DefaultFallbackBreakMinutes = 60

type DailySummary struct {
	DateKey         string     `json:"dateKey"`
	ClockIn         *time.Time `json:"clockIn,omitempty"`
	BreakStart      *time.Time `json:"breakStart,omitempty"`
	BreakEnd        *time.Time `json:"breakEnd,omitempty"`
	ClockOut        *time.Time `json:"clockOut,omitempty"`
	WorkedMinutes   int        `json:"workedMinutes"`
	ExpectedMinutes *int       `json:"expectedMinutes"`
	DeltaMinutes    *int       `json:"deltaMinutes"`
	Status          Status     `json:"status"`
}

type Options struct {
	// Location groups punches into calendar days. Defaults to time.Local.
	Location *time.Location
	// FallbackBreakMinutes applies when a shift has no break window.
	// Defaults to DefaultFallbackBreakMinutes.
	FallbackBreakMinutes int
}

type dayPunches struct {
	weekday    time.Weekday
	clockIn    *time.Time
	breakStart *time.Time
	breakEnd   *time.Time
	clockOut   *time.Time
}

// Summarize groups punches by calendar day and computes one DailySummary per
// day, sorted by date. The earliest punch of each type wins within a day;
// later duplicates are ignored here but remain in storage. A nil weekly
// schedule yields nil expected and delta minutes.
func Summarize(punches []punch.Event, weekly *schedule.Weekly, opts Options) []DailySummary {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	fallbackBreak := opts.FallbackBreakMinutes
	if fallbackBreak == 0 {
		fallbackBreak = DefaultFallbackBreakMinutes
	}

	days := map[string]*dayPunches{}
	for _, ev := range punches {
		at := ev.EffectiveTime()
		if at.IsZero() {
			continue
		}
		local := at.In(loc)
		key := local.Format("2006-01-02")

		day, ok := days[key]
		if !ok {
			day = &dayPunches{weekday: local.Weekday()}
			days[key] = day
		}

		switch ev.Type {
		case punch.TypeClockIn:
			day.clockIn = earliest(day.clockIn, local)
		case punch.TypeBreakStart:
			day.breakStart = earliest(day.breakStart, local)
		case punch.TypeBreakEnd:
			day.breakEnd = earliest(day.breakEnd, local)
		case punch.TypeClockOut:
			day.clockOut = earliest(day.clockOut, local)
		}
	}

	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]DailySummary, 0, len(keys))
	for _, key := range keys {
		out = append(out, summarizeDay(key, days[key], weekly, fallbackBreak))
	}
	return out
}

func summarizeDay(key string, day *dayPunches, weekly *schedule.Weekly, fallbackBreak int) DailySummary {
	s := DailySummary{
		DateKey:    key,
		ClockIn:    day.clockIn,
		BreakStart: day.breakStart,
		BreakEnd:   day.breakEnd,
		ClockOut:   day.clockOut,
	}

	if day.clockIn != nil && day.clockOut != nil {
		gross := minutesBetween(*day.clockIn, *day.clockOut)
		breakMinutes := 0
		if day.breakStart != nil && day.breakEnd != nil {
			breakMinutes = minutesBetween(*day.breakStart, *day.breakEnd)
		}
		worked := gross - breakMinutes
		if worked < 0 {
			worked = 0
		}
		s.WorkedMinutes = worked
	}

	s.Status = classify(day)

	if weekly != nil {
		expected := weekly.ExpectedMinutes(day.weekday, fallbackBreak)
		s.ExpectedMinutes = &expected

		// No penalty accrues while the day is still open: delta stays zero
		// until a clock-out closes it.
		delta := 0
		if day.clockOut != nil {
			delta = s.WorkedMinutes - expected
		}
		s.DeltaMinutes = &delta
	}

	return s
}

// classify mirrors the admission rules: a closed day with a fully missing
// break is Ok, identical to one with a complete break. "No break taken" and
// "break not required" are deliberately not distinguished.
func classify(day *dayPunches) Status {
	halfBreak := (day.breakStart != nil) != (day.breakEnd != nil)

	switch {
	case day.clockIn != nil && day.clockOut != nil:
		if halfBreak {
			return StatusIncompleteBreak
		}
		return StatusOk
	case day.clockIn != nil:
		return StatusMissingClockOut
	case halfBreak:
		return StatusIncompleteBreak
	default:
		return StatusIncomplete
	}
}

func earliest(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.Before(*current) {
		return &candidate
	}
	return current
}

func minutesBetween(from, to time.Time) int {
	minutes := int(to.Sub(from).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}
