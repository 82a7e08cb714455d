package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustMinute(t *testing.T, s string) MinuteOfDay {
	t.Helper()
	m, err := ParseMinuteOfDay(s)
	require.NoError(t, err)
	return m
}

func TestParseMinuteOfDay(t *testing.T) {
	m, err := ParseMinuteOfDay("09:15")
	require.NoError(t, err)
	assert.Equal(t, MinuteOfDay(9*60+15), m)
	assert.Equal(t, "09:15", m.String())

	_, err = ParseMinuteOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseMinuteOfDay("9am")
	assert.Error(t, err)
}

func TestMinuteOfDay_Aligned(t *testing.T) {
	assert.True(t, MinuteOfDay(0).Aligned())
	assert.True(t, MinuteOfDay(9*60+45).Aligned())
	assert.False(t, MinuteOfDay(9*60+5).Aligned())
	assert.False(t, MinuteOfDay(9*60+20+1).Aligned())
}

func TestValidateSlot(t *testing.T) {
	day := date(2026, time.September, 14)

	tests := []struct {
		name  string
		start string
		end   string
		ok    bool
	}{
		{name: "single quantum", start: "09:00", end: "09:15", ok: true},
		{name: "multi quantum", start: "09:00", end: "10:30", ok: true},
		{name: "at day start", start: "07:00", end: "07:15", ok: true},
		{name: "at day end", start: "19:45", end: "20:00", ok: true},
		{name: "misaligned start", start: "09:05", end: "09:20", ok: false},
		{name: "misaligned end", start: "09:00", end: "09:20", ok: false},
		{name: "zero duration", start: "09:00", end: "09:00", ok: false},
		{name: "inverted", start: "10:00", end: "09:00", ok: false},
		{name: "before opening", start: "06:45", end: "07:00", ok: false},
		{name: "past closing", start: "19:45", end: "20:15", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := TimeSlot{
				Date:  day,
				Start: mustMinute(t, tt.start),
				End:   mustMinute(t, tt.end),
			}
			err := ValidateSlot(slot)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSlot)
			}
		})
	}
}

func TestValidateSlot_MissingDate(t *testing.T) {
	err := ValidateSlot(TimeSlot{Start: mustMinute(t, "09:00"), End: mustMinute(t, "09:15")})
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestTimeSlot_Overlaps(t *testing.T) {
	day := date(2026, time.September, 14)
	slot := func(start, end string) TimeSlot {
		return TimeSlot{Date: day, Start: mustMinute(t, start), End: mustMinute(t, end)}
	}

	tests := []struct {
		name     string
		a        TimeSlot
		b        TimeSlot
		expected bool
	}{
		{name: "identical", a: slot("12:00", "12:15"), b: slot("12:00", "12:15"), expected: true},
		{name: "partial overlap", a: slot("12:00", "12:15"), b: slot("12:10", "12:25"), expected: true},
		{name: "containment", a: slot("12:00", "13:00"), b: slot("12:15", "12:30"), expected: true},
		{name: "back to back", a: slot("12:00", "12:15"), b: slot("12:15", "12:30"), expected: false},
		{name: "disjoint", a: slot("12:00", "12:15"), b: slot("14:00", "14:15"), expected: false},
		{
			name:     "same time different day",
			a:        slot("12:00", "12:15"),
			b:        TimeSlot{Date: date(2026, time.September, 15), Start: mustMinute(t, "12:00"), End: mustMinute(t, "12:15")},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.expected, tt.b.Overlaps(tt.a))
		})
	}
}

func TestDay_Normalizes(t *testing.T) {
	late := time.Date(2026, time.September, 14, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, date(2026, time.September, 14), Day(late))

	a := TimeSlot{Date: late, Start: mustMinute(t, "09:00"), End: mustMinute(t, "09:15")}
	b := TimeSlot{Date: date(2026, time.September, 14), Start: mustMinute(t, "09:00"), End: mustMinute(t, "09:15")}
	assert.True(t, a.Equal(b))
	assert.True(t, a.Overlaps(b))
}
