package timebank

import (
	"testing"

	"timeclock/internal/domain/schedule"
	"timeclock/internal/domain/summary"
)

func intPtr(v int) *int { return &v }

func TestAggregateCombinesAutoAndManual(t *testing.T) {
	summaries := []summary.DailySummary{
		{DateKey: "2025-03-10", DeltaMinutes: intPtr(30)},
		{DateKey: "2025-03-11", DeltaMinutes: intPtr(-50)},
		{DateKey: "2025-03-12", DeltaMinutes: nil},
	}
	entries := []LedgerEntry{
		{Kind: KindCredit, Minutes: 60},
		{Kind: KindDebit, Minutes: 20},
	}

	balance := Aggregate(summaries, entries, 480)
	if balance.AutoDeltaMinutes != -20 {
		t.Fatalf("expected auto -20, got %d", balance.AutoDeltaMinutes)
	}
	if balance.ManualDeltaMinutes != 40 {
		t.Fatalf("expected manual +40, got %d", balance.ManualDeltaMinutes)
	}
	if balance.TotalMinutes != 20 {
		t.Fatalf("expected total 20, got %d", balance.TotalMinutes)
	}
}

func TestAggregateDayEquivalents(t *testing.T) {
	summaries := []summary.DailySummary{
		{DeltaMinutes: intPtr(240)},
	}

	balance := Aggregate(summaries, nil, 480)
	if balance.TotalDayEquivalents != 0.5 {
		t.Fatalf("expected 0.5 day equivalents, got %f", balance.TotalDayEquivalents)
	}
	if balance.StandardShiftMinutes != 480 {
		t.Fatalf("expected 480 denominator, got %d", balance.StandardShiftMinutes)
	}
}

func TestAggregateZeroDenominatorFallsBack(t *testing.T) {
	balance := Aggregate(nil, []LedgerEntry{{Kind: KindCredit, Minutes: 480}}, 0)
	if balance.StandardShiftMinutes != DefaultShiftMinutes {
		t.Fatalf("expected fallback denominator %d, got %d", DefaultShiftMinutes, balance.StandardShiftMinutes)
	}
	if balance.TotalDayEquivalents != 1.0 {
		t.Fatalf("expected 1.0 day equivalent, got %f", balance.TotalDayEquivalents)
	}
}

func TestAggregateAdditivity(t *testing.T) {
	a := []summary.DailySummary{{DeltaMinutes: intPtr(30)}}
	b := []summary.DailySummary{{DeltaMinutes: intPtr(-10)}}

	whole := Aggregate(append(append([]summary.DailySummary{}, a...), b...), nil, 480)
	split := Aggregate(a, nil, 480).TotalMinutes + Aggregate(b, nil, 480).TotalMinutes
	if whole.TotalMinutes != split {
		t.Fatalf("balance not additive over partitions: %d vs %d", whole.TotalMinutes, split)
	}
}

func TestSignedMinutes(t *testing.T) {
	if got := (LedgerEntry{Kind: KindCredit, Minutes: 90}).SignedMinutes(); got != 90 {
		t.Fatalf("credit should be positive, got %d", got)
	}
	if got := (LedgerEntry{Kind: KindDebit, Minutes: 90}).SignedMinutes(); got != -90 {
		t.Fatalf("debit should be negative, got %d", got)
	}
}

func TestStandardShiftMinutesFromSchedule(t *testing.T) {
	weekly, err := schedule.Resolve(&schedule.Document{Days: map[string]schedule.DayShift{
		"monday": {Active: true, StartTime: "09:00", BreakStart: "12:00", BreakEnd: "13:00", EndTime: "18:00"},
	}})
	if err != nil {
		t.Fatalf("resolve schedule: %v", err)
	}

	// A resolvable shift always wins over any configured default.
	if got := StandardShiftMinutes(weekly, 60, 360); got != 480 {
		t.Fatalf("expected 480 from schedule, got %d", got)
	}
	// Without a schedule the configured default is the denominator.
	if got := StandardShiftMinutes(nil, 60, 360); got != 360 {
		t.Fatalf("expected configured 360 without schedule, got %d", got)
	}
	// And without a usable configured default, the built-in one.
	if got := StandardShiftMinutes(nil, 60, 0); got != DefaultShiftMinutes {
		t.Fatalf("expected fallback %d without schedule, got %d", DefaultShiftMinutes, got)
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	valid := LedgerEntry{Kind: KindCredit, Minutes: 60, Description: "approved overtime"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	if err := (LedgerEntry{Kind: KindCredit, Minutes: -1, Description: "x"}).Validate(); err == nil {
		t.Fatal("negative minutes should be rejected")
	}
	if err := (LedgerEntry{Kind: KindCredit, Minutes: 60}).Validate(); err == nil {
		t.Fatal("missing description should be rejected")
	}
	if err := (LedgerEntry{Kind: "BONUS", Minutes: 60, Description: "x"}).Validate(); err == nil {
		t.Fatal("unknown kind should be rejected")
	}
}
