package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrEmptySchedule = errors.New("schedule document has no shifts")

// DayShift is one weekday's expected shift. Times are "HH:mm".
type DayShift struct {
	Active     bool   `json:"active"`
	StartTime  string `json:"startTime,omitempty"`
	BreakStart string `json:"breakStart,omitempty"`
	BreakEnd   string `json:"breakEnd,omitempty"`
	EndTime    string `json:"endTime,omitempty"`
}

// Document is the stored schedule shape. New documents carry the per-weekday
// Days map; legacy documents carry a single shift at the top level which
// applies Monday through Friday. Legacy documents are accepted on read
// indefinitely but never written back.
type Document struct {
	Days map[string]DayShift `json:"days,omitempty"`

	// Legacy single-shift form.
	StartTime  string `json:"startTime,omitempty"`
	BreakStart string `json:"breakStart,omitempty"`
	BreakEnd   string `json:"breakEnd,omitempty"`
	EndTime    string `json:"endTime,omitempty"`
}

type kind int

const (
	perWeekday kind = iota
	legacyUniform
)

// Weekly is the resolved schedule: a tagged variant of the per-weekday map
// and the legacy uniform shift, resolved once at the storage boundary so the
// calculator never branches on document shape.
type Weekly struct {
	kind    kind
	days    map[time.Weekday]DayShift
	uniform DayShift
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Resolve turns a stored document into its tagged form. A nil document
// resolves to nil (no schedule configured).
func Resolve(doc *Document) (*Weekly, error) {
	if doc == nil {
		return nil, nil
	}

	if len(doc.Days) > 0 {
		days := make(map[time.Weekday]DayShift, len(doc.Days))
		for name, shift := range doc.Days {
			wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", name)
			}
			if shift.Active {
				if err := validateShift(shift); err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
			}
			days[wd] = shift
		}
		return &Weekly{kind: perWeekday, days: days}, nil
	}

	if doc.StartTime != "" && doc.EndTime != "" {
		uniform := DayShift{
			Active:     true,
			StartTime:  doc.StartTime,
			BreakStart: doc.BreakStart,
			BreakEnd:   doc.BreakEnd,
			EndTime:    doc.EndTime,
		}
		if err := validateShift(uniform); err != nil {
			return nil, err
		}
		return &Weekly{kind: legacyUniform, uniform: uniform}, nil
	}

	return nil, ErrEmptySchedule
}

// Normalized returns the document in per-weekday form. A legacy single-shift
// document expands into Monday through Friday entries; documents already
// carrying a Days map are returned unchanged.
func (d Document) Normalized() Document {
	if len(d.Days) > 0 || d.StartTime == "" || d.EndTime == "" {
		return d
	}
	shift := DayShift{
		Active:     true,
		StartTime:  d.StartTime,
		BreakStart: d.BreakStart,
		BreakEnd:   d.BreakEnd,
		EndTime:    d.EndTime,
	}
	days := make(map[string]DayShift, 5)
	for _, name := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		days[name] = shift
	}
	return Document{Days: days}
}

// ForWeekday returns the configured shift for a weekday. The second return
// is false when the weekday has no entry at all; an inactive entry is
// returned with Active=false.
func (w *Weekly) ForWeekday(wd time.Weekday) (DayShift, bool) {
	if w == nil {
		return DayShift{}, false
	}
	if w.kind == legacyUniform {
		if wd == time.Saturday || wd == time.Sunday {
			return DayShift{}, false
		}
		return w.uniform, true
	}
	shift, ok := w.days[wd]
	return shift, ok
}

// ExpectedMinutes computes the expected worked minutes for a weekday.
// Inactive or absent weekdays expect zero. The break window is subtracted
// when fully configured, otherwise fallbackBreakMinutes is; both the break
// and the final result are clamped to >= 0.
func (w *Weekly) ExpectedMinutes(wd time.Weekday, fallbackBreakMinutes int) int {
	shift, ok := w.ForWeekday(wd)
	if !ok || !shift.Active {
		return 0
	}
	return shift.expectedMinutes(fallbackBreakMinutes)
}

func (s DayShift) expectedMinutes(fallbackBreakMinutes int) int {
	start, err1 := ParseClock(s.StartTime)
	end, err2 := ParseClock(s.EndTime)
	if err1 != nil || err2 != nil {
		return 0
	}

	breakMinutes := fallbackBreakMinutes
	if s.BreakStart != "" && s.BreakEnd != "" {
		bs, err1 := ParseClock(s.BreakStart)
		be, err2 := ParseClock(s.BreakEnd)
		if err1 == nil && err2 == nil {
			breakMinutes = be - bs
		}
	}
	if breakMinutes < 0 {
		breakMinutes = 0
	}

	expected := (end - start) - breakMinutes
	if expected < 0 {
		expected = 0
	}
	return expected
}

// PrimaryShiftMinutes returns the expected minutes of the first active
// weekday scanning Monday through Sunday. Used to derive the standard shift
// length for day-equivalent balances.
func (w *Weekly) PrimaryShiftMinutes(fallbackBreakMinutes int) (int, bool) {
	if w == nil {
		return 0, false
	}
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday, time.Sunday,
	}
	for _, wd := range order {
		shift, ok := w.ForWeekday(wd)
		if ok && shift.Active {
			if minutes := shift.expectedMinutes(fallbackBreakMinutes); minutes > 0 {
				return minutes, true
			}
		}
	}
	return 0, false
}

// ParseClock parses "HH:mm" into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", value)
	}
	return hours*60 + minutes, nil
}

func validateShift(s DayShift) error {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("shift end %q not after start %q", s.EndTime, s.StartTime)
	}
	if (s.BreakStart == "") != (s.BreakEnd == "") {
		return errors.New("break window requires both breakStart and breakEnd")
	}
	if s.BreakStart != "" {
		bs, err := ParseClock(s.BreakStart)
		if err != nil {
			return err
		}
		be, err := ParseClock(s.BreakEnd)
		if err != nil {
			return err
		}
		if be < bs {
			return fmt.Errorf("break end %q before break start %q", s.BreakEnd, s.BreakStart)
		}
	}
	return nil
}
