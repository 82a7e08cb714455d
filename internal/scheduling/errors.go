package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrInvalidSlot       = errors.New("invalid slot")
	ErrSlotConflict      = errors.New("slot conflicts with an existing appointment")
	ErrNoChangeRequested = errors.New("new slot is identical to the current one")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnavailable       = errors.New("scheduling store unavailable")

	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrProfessionalNotFound = errors.New("professional not found")
)

// SlotConflictError carries the interval that blocked a booking so callers
// can suggest alternatives. It matches ErrSlotConflict under errors.Is.
type SlotConflictError struct {
	Conflicting TimeSlot
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with existing appointment at %s", e.Conflicting)
}

func (e *SlotConflictError) Unwrap() error {
	return ErrSlotConflict
}
