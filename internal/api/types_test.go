package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

func TestSlotPayload_ToSlot(t *testing.T) {
	slot, err := SlotPayload{Date: "2026-09-14", Start: "09:00", End: "09:30"}.toSlot()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC), slot.Date)
	assert.Equal(t, "09:00", slot.Start.String())
	assert.Equal(t, "09:30", slot.End.String())

	// Wire form survives the round trip.
	assert.Equal(t, SlotPayload{Date: "2026-09-14", Start: "09:00", End: "09:30"}, toSlotPayload(slot))
}

func TestSlotPayload_ToSlot_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload SlotPayload
	}{
		{name: "bad date", payload: SlotPayload{Date: "14/09/2026", Start: "09:00", End: "09:30"}},
		{name: "missing date", payload: SlotPayload{Start: "09:00", End: "09:30"}},
		{name: "bad start", payload: SlotPayload{Date: "2026-09-14", Start: "9am", End: "09:30"}},
		{name: "bad end", payload: SlotPayload{Date: "2026-09-14", Start: "09:00", End: "25:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.payload.toSlot()
			assert.Error(t, err)
		})
	}
}

func TestToAppointmentResponse(t *testing.T) {
	start, err := scheduling.ParseMinuteOfDay("10:00")
	require.NoError(t, err)
	end, err := scheduling.ParseMinuteOfDay("10:30")
	require.NoError(t, err)

	appt := &scheduling.Appointment{
		Slot: scheduling.TimeSlot{
			Date:  time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC),
			Start: start,
			End:   end,
		},
		Reason: "control",
		Status: scheduling.StatusScheduled,
	}

	resp := toAppointmentResponse(appt)
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, SlotPayload{Date: "2026-09-14", Start: "10:00", End: "10:30"}, resp.Slot)
	assert.Nil(t, resp.ProfessionalID)
}
