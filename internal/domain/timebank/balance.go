package timebank

import (
	"timeclock/internal/domain/schedule"
	"timeclock/internal/domain/summary"
)

// DefaultShiftMinutes is the day-equivalent denominator when no active
// weekday shift can be resolved.
const DefaultShiftMinutes = 480

type Balance struct {
	AutoDeltaMinutes     int     `json:"autoDeltaMinutes"`
	ManualDeltaMinutes   int     `json:"manualDeltaMinutes"`
	TotalMinutes         int     `json:"totalMinutes"`
	TotalDayEquivalents  float64 `json:"totalDayEquivalents"`
	StandardShiftMinutes int     `json:"standardShiftMinutes"`
}

// Aggregate combines daily deltas with signed ledger contributions. Nil
// deltas (days with no resolvable schedule) count as zero. Balances are
// always recomputed from source data, never incrementally patched.
func Aggregate(summaries []summary.DailySummary, entries []LedgerEntry, standardShiftMinutes int) Balance {
	if standardShiftMinutes <= 0 {
		standardShiftMinutes = DefaultShiftMinutes
	}

	auto := 0
	for _, s := range summaries {
		if s.DeltaMinutes != nil {
			auto += *s.DeltaMinutes
		}
	}

	manual := 0
	for _, e := range entries {
		manual += e.SignedMinutes()
	}

	total := auto + manual
	return Balance{
		AutoDeltaMinutes:     auto,
		ManualDeltaMinutes:   manual,
		TotalMinutes:         total,
		TotalDayEquivalents:  float64(total) / float64(standardShiftMinutes),
		StandardShiftMinutes: standardShiftMinutes,
	}
}

// StandardShiftMinutes derives the day-equivalent denominator from the
// employee's primary active weekday shift. Without a resolvable shift the
// configured default applies, then DefaultShiftMinutes, so the denominator
// is always positive.
func StandardShiftMinutes(weekly *schedule.Weekly, fallbackBreakMinutes, defaultShiftMinutes int) int {
	if minutes, ok := weekly.PrimaryShiftMinutes(fallbackBreakMinutes); ok {
		return minutes
	}
	if defaultShiftMinutes > 0 {
		return defaultShiftMinutes
	}
	return DefaultShiftMinutes
}
