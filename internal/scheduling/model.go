package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusScheduled   Status = "scheduled"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
	StatusRescheduled Status = "rescheduled"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// IsActive reports whether the appointment currently holds its slot.
// A rescheduled appointment behaves exactly like a scheduled one for
// further transitions; the distinct label is kept for reporting only.
func (s Status) IsActive() bool {
	return s == StatusScheduled || s == StatusRescheduled
}

// activeStatuses are the statuses that count against the no-overlap
// invariant. Completed appointments keep holding their historical slot;
// pending requests are exempt so a patient may propose alternatives.
var activeStatuses = []Status{StatusScheduled, StatusRescheduled, StatusCompleted}

// DefaultCancellationReason is recorded when a cancellation gives none.
const DefaultCancellationReason = "No especificado"

// SupersededReason is recorded on pending requests retired because another
// request from the same patient was approved for an overlapping window.
const SupersededReason = "Superseded by approved appointment"

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Professional struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is the single record type for both confirmed bookings and
// patient-submitted requests. A request is a pending appointment whose
// ProfessionalID stays nil until staff approve it.
type Appointment struct {
	ID                 uuid.UUID
	PatientID          uuid.UUID
	ProfessionalID     *uuid.UUID
	Slot               TimeSlot
	Reason             string
	Notes              *string
	Status             Status
	CancellationReason *string
	RejectionReason    *string
	AlternativeOptions *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ScheduleEvent is an append-only audit record of a lifecycle transition.
type ScheduleEvent struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
	EventRequestSubmitted       = "REQUEST_SUBMITTED"
	EventRequestApproved        = "REQUEST_APPROVED"
	EventRequestRejected        = "REQUEST_REJECTED"
	EventRequestSuperseded      = "REQUEST_SUPERSEDED"
	EventNotificationDispatched = "NOTIFICATION_DISPATCHED"
)

// NotificationKind identifies the message a patient should receive about
// an appointment. Delivery itself happens outside this core.
type NotificationKind string

const (
	NotifyCancelled   NotificationKind = "cancelled"
	NotifyRescheduled NotificationKind = "rescheduled"
	NotifyApproved    NotificationKind = "approved"
	NotifyRejected    NotificationKind = "rejected"
	NotifyReminder    NotificationKind = "reminder"
)

// Notifier delivers patient-facing messages. Implementations must be
// best-effort: a failed notification never fails a booking.
type Notifier interface {
	Notify(ctx context.Context, appointmentID uuid.UUID, kind NotificationKind) error
}
