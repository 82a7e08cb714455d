package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeAppt(t *testing.T, day time.Time, start, end string) Appointment {
	t.Helper()
	profID := uuid.New()
	return Appointment{
		ID:             uuid.New(),
		PatientID:      uuid.New(),
		ProfessionalID: &profID,
		Slot:           TimeSlot{Date: day, Start: mustMinute(t, start), End: mustMinute(t, end)},
		Reason:         "control",
		Status:         StatusScheduled,
	}
}

func TestFirstConflict(t *testing.T) {
	day := date(2026, time.September, 14)
	existing := []Appointment{
		activeAppt(t, day, "09:00", "09:30"),
		activeAppt(t, day, "11:00", "11:15"),
	}

	t.Run("free window", func(t *testing.T) {
		cand := TimeSlot{Date: day, Start: mustMinute(t, "10:00"), End: mustMinute(t, "10:15")}
		assert.Nil(t, firstConflict(existing, cand, uuid.Nil))
	})

	t.Run("overlap reported with blocking slot", func(t *testing.T) {
		cand := TimeSlot{Date: day, Start: mustMinute(t, "09:15"), End: mustMinute(t, "09:45")}
		hit := firstConflict(existing, cand, uuid.Nil)
		require.NotNil(t, hit)
		assert.Equal(t, existing[0].ID, hit.ID)
	})

	t.Run("back to back is free", func(t *testing.T) {
		cand := TimeSlot{Date: day, Start: mustMinute(t, "09:30"), End: mustMinute(t, "09:45")}
		assert.Nil(t, firstConflict(existing, cand, uuid.Nil))
	})

	t.Run("exclusion skips own booking", func(t *testing.T) {
		cand := TimeSlot{Date: day, Start: mustMinute(t, "09:00"), End: mustMinute(t, "09:15")}
		require.NotNil(t, firstConflict(existing, cand, uuid.Nil))
		assert.Nil(t, firstConflict(existing, cand, existing[0].ID))
	})

	t.Run("other day never conflicts", func(t *testing.T) {
		cand := TimeSlot{
			Date:  date(2026, time.September, 15),
			Start: mustMinute(t, "09:00"),
			End:   mustMinute(t, "09:30"),
		}
		assert.Nil(t, firstConflict(existing, cand, uuid.Nil))
	})
}
