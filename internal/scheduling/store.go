package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusChange carries the optional fields a status transition records.
type StatusChange struct {
	CancellationReason *string
	RejectionReason    *string
	AlternativeOptions *string
}

// Store contains all persistence interactions needed by the service.
// Implementations guard status transitions with conditional writes
// (UPDATE ... WHERE status = ANY(from)) so racing transitions cannot
// land on top of each other.
type Store interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindActiveByProfessionalAndDate returns the appointments that count
	// against the no-overlap invariant for one professional's day.
	FindActiveByProfessionalAndDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]Appointment, error)

	// FindPendingByPatient returns a patient's unresolved requests.
	FindPendingByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)

	// FindActiveByDate returns every active appointment on a day, across
	// professionals. Used by the reminder pipeline.
	FindActiveByDate(ctx context.Context, date time.Time) ([]Appointment, error)

	ListByProfessionalAndDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListPendingRequests(ctx context.Context, limit, offset int) ([]Appointment, error)

	InsertAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)

	// UpdateStatus transitions an appointment whose current status is one
	// of from, recording any reasons carried by change. Returns
	// ErrInvalidTransition when the guard does not match.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, change StatusChange) (*Appointment, error)

	// RescheduleSlot moves an active appointment to a new slot, marking it
	// rescheduled. Same conditional-write guard as UpdateStatus.
	RescheduleSlot(ctx context.Context, id uuid.UUID, from []Status, slot TimeSlot) (*Appointment, error)

	// ApproveRequest resolves a pending request to a scheduled appointment
	// with the given professional, slot and notes.
	ApproveRequest(ctx context.Context, id uuid.UUID, professionalID uuid.UUID, slot TimeSlot, notes *string) (*Appointment, error)

	InsertEvent(ctx context.Context, ev ScheduleEvent) error
}
