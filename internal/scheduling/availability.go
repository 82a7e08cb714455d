package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// freeSlots enumerates every grid-aligned candidate of the given duration
// between DayStart and DayEnd and keeps those free of conflict against the
// supplied snapshot of active appointments, in ascending start order.
func freeSlots(date time.Time, duration int, existing []Appointment) []TimeSlot {
	day := Day(date)
	out := []TimeSlot{}
	for start := DayStart; start+MinuteOfDay(duration) <= DayEnd; start += GridQuantum {
		cand := TimeSlot{Date: day, Start: start, End: start + MinuteOfDay(duration)}
		if firstConflict(existing, cand, uuid.Nil) == nil {
			out = append(out, cand)
		}
	}
	return out
}

// AvailableSlots returns the bookable slots of the given duration for one
// professional's day. The result is a snapshot, not a reservation: a
// returned slot is guaranteed free at generation time, and booking it
// re-runs the conflict check under the agenda lock. An empty result means
// a fully booked day, not an error. durationMinutes of 0 means one quantum.
func (s *Service) AvailableSlots(ctx context.Context, professionalID uuid.UUID, date time.Time, durationMinutes int) ([]TimeSlot, error) {
	if durationMinutes == 0 {
		durationMinutes = GridQuantum
	}
	if durationMinutes < GridQuantum || durationMinutes%GridQuantum != 0 {
		return nil, fmt.Errorf("%w: duration %dm must be a positive multiple of %dm", ErrInvalidSlot, durationMinutes, GridQuantum)
	}

	if _, err := s.store.GetProfessionalByID(ctx, professionalID); err != nil {
		return nil, wrapStoreErr(err)
	}

	existing, err := s.store.FindActiveByProfessionalAndDate(ctx, professionalID, Day(date))
	if err != nil {
		return nil, fmt.Errorf("load active appointments: %w", wrapStoreErr(err))
	}

	return freeSlots(date, durationMinutes, existing), nil
}
