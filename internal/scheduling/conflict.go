package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// firstConflict returns the first appointment in existing whose slot
// overlaps candidate, skipping excludeID (uuid.Nil excludes nothing).
// This is the single authoritative overlap rule; booking, rescheduling,
// approval and availability all go through it.
func firstConflict(existing []Appointment, candidate TimeSlot, excludeID uuid.UUID) *Appointment {
	for i := range existing {
		a := &existing[i]
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if a.Slot.Overlaps(candidate) {
			return a
		}
	}
	return nil
}

// conflicts fetches the professional's active appointments for the
// candidate's day and checks the candidate against them. The candidate
// must already have passed ValidateSlot. Returns a SlotConflictError
// carrying the blocking interval, or nil when the slot is free.
func (s *Service) conflicts(ctx context.Context, professionalID uuid.UUID, candidate TimeSlot, excludeID uuid.UUID) error {
	existing, err := s.store.FindActiveByProfessionalAndDate(ctx, professionalID, Day(candidate.Date))
	if err != nil {
		return fmt.Errorf("load active appointments: %w", wrapStoreErr(err))
	}
	if hit := firstConflict(existing, candidate, excludeID); hit != nil {
		return &SlotConflictError{Conflicting: hit.Slot}
	}
	return nil
}
