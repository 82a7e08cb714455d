package scheduling

import (
	"fmt"
	"time"
)

// The booking grid: every slot boundary aligns to a 15 minute quantum and
// falls inside the clinic's working hours. Times of day are plain minute
// counts past midnight so all slot arithmetic stays in integers.
const (
	GridQuantum = 15 // minutes

	DayStart MinuteOfDay = 7 * 60  // 07:00
	DayEnd   MinuteOfDay = 20 * 60 // 20:00
)

// MinuteOfDay is a time of day expressed as minutes past midnight.
type MinuteOfDay int

// ParseMinuteOfDay parses an "HH:MM" string.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return MinuteOfDay(t.Hour()*60 + t.Minute()), nil
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Aligned reports whether the time falls on a grid boundary.
func (m MinuteOfDay) Aligned() bool {
	return m%GridQuantum == 0
}

// TimeSlot is a half-open interval [Start, End) on a calendar day.
type TimeSlot struct {
	Date  time.Time
	Start MinuteOfDay
	End   MinuteOfDay
}

// Day normalizes a timestamp to its calendar day at UTC midnight. All slot
// dates are stored normalized so equality checks are exact.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DurationMinutes returns End - Start in minutes.
func (s TimeSlot) DurationMinutes() int {
	return int(s.End - s.Start)
}

// WithinHours reports whether the slot fits inside working hours.
func (s TimeSlot) WithinHours() bool {
	return s.Start >= DayStart && s.End <= DayEnd
}

// Overlaps reports whether two slots on the same day share any instant.
// Half-open semantics: a slot ending at 14:45 does not overlap one starting
// at 14:45, so back-to-back bookings are allowed.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	if !Day(s.Date).Equal(Day(o.Date)) {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

// Equal reports whether two slots cover exactly the same interval.
func (s TimeSlot) Equal(o TimeSlot) bool {
	return Day(s.Date).Equal(Day(o.Date)) && s.Start == o.Start && s.End == o.End
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", Day(s.Date).Format("2006-01-02"), s.Start, s.End)
}

// ValidateSlot enforces the grid rules every slot must satisfy before it is
// considered for booking: aligned endpoints, a positive duration that is a
// whole multiple of the quantum, and working-hours containment.
func ValidateSlot(s TimeSlot) error {
	if s.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidSlot)
	}
	if !s.Start.Aligned() {
		return fmt.Errorf("%w: start %s is not aligned to the %d minute grid", ErrInvalidSlot, s.Start, GridQuantum)
	}
	if !s.End.Aligned() {
		return fmt.Errorf("%w: end %s is not aligned to the %d minute grid", ErrInvalidSlot, s.End, GridQuantum)
	}
	if s.Start >= s.End {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidSlot, s.Start, s.End)
	}
	if d := s.DurationMinutes(); d < GridQuantum || d%GridQuantum != 0 {
		return fmt.Errorf("%w: duration %dm must be a positive multiple of %dm", ErrInvalidSlot, d, GridQuantum)
	}
	if !s.WithinHours() {
		return fmt.Errorf("%w: %s-%s is outside working hours %s-%s", ErrInvalidSlot, s.Start, s.End, DayStart, DayEnd)
	}
	return nil
}
