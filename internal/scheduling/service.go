package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

// Service is the scheduling engine: it owns slot validation, the overlap
// rule, the appointment state machine and request triage. All writes go
// through the Store; slot-mutating writes additionally run inside the
// per-(professional, day) agenda lock so concurrent bookings cannot both
// pass the conflict check.
type Service struct {
	store    Store
	locker   redisclient.Locker
	notifier Notifier
	log      zerolog.Logger
}

func NewService(store Store, locker redisclient.Locker, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		notifier: notifier,
		log:      log,
	}
}

// wrapStoreErr keeps sentinel errors intact and marks infrastructure
// failures (deadline, cancellation) as ErrUnavailable so callers know a
// retry is safe.
func wrapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

type CreateParams struct {
	PatientID      uuid.UUID
	ProfessionalID uuid.UUID
	Slot           TimeSlot
	Reason         string
	Notes          *string
}

// CreateAppointment books a slot directly (walk-in or phone booking).
// The conflict check and the insert run inside the agenda lock.
func (s *Service) CreateAppointment(ctx context.Context, p CreateParams) (*Appointment, error) {
	if strings.TrimSpace(p.Reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if err := ValidateSlot(p.Slot); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPatientByID(ctx, p.PatientID); err != nil {
		return nil, wrapStoreErr(err)
	}
	if _, err := s.store.GetProfessionalByID(ctx, p.ProfessionalID); err != nil {
		return nil, wrapStoreErr(err)
	}

	day := Day(p.Slot.Date)
	var created *Appointment

	err := s.locker.WithAgendaLock(ctx, p.ProfessionalID, day, func(lockCtx context.Context) error {
		if err := s.conflicts(lockCtx, p.ProfessionalID, p.Slot, uuid.Nil); err != nil {
			return err
		}

		professionalID := p.ProfessionalID
		appt := &Appointment{
			ID:             uuid.New(),
			PatientID:      p.PatientID,
			ProfessionalID: &professionalID,
			Slot:           TimeSlot{Date: day, Start: p.Slot.Start, End: p.Slot.End},
			Reason:         strings.TrimSpace(p.Reason),
			Notes:          p.Notes,
			Status:         StatusScheduled,
		}

		stored, err := s.store.InsertAppointment(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", wrapStoreErr(err))
		}
		created = stored

		s.logEvent(lockCtx, stored.ID, EventAppointmentBooked, map[string]any{
			"professional_id": professionalID.String(),
			"patient_id":      p.PatientID.String(),
			"slot":            stored.Slot.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// RescheduleAppointment moves an active appointment to a new slot. The
// current booking is ignored during the conflict check so an appointment
// can shrink, grow or shift within its own window.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newSlot TimeSlot) (*Appointment, error) {
	if err := ValidateSlot(newSlot); err != nil {
		return nil, err
	}

	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !appt.Status.IsActive() {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, appt.Status)
	}
	if appt.Slot.Equal(newSlot) {
		return nil, ErrNoChangeRequested
	}

	professionalID := *appt.ProfessionalID
	day := Day(newSlot.Date)
	var updated *Appointment

	err = s.locker.WithAgendaLock(ctx, professionalID, day, func(lockCtx context.Context) error {
		if err := s.conflicts(lockCtx, professionalID, newSlot, appt.ID); err != nil {
			return err
		}

		u, err := s.store.RescheduleSlot(lockCtx, appt.ID, []Status{StatusScheduled, StatusRescheduled},
			TimeSlot{Date: day, Start: newSlot.Start, End: newSlot.End})
		if err != nil {
			return wrapStoreErr(err)
		}
		updated = u

		s.logEvent(lockCtx, u.ID, EventAppointmentRescheduled, map[string]any{
			"from": appt.Slot.String(),
			"to":   u.Slot.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.ID, NotifyRescheduled)
	return updated, nil
}

// CompleteAppointment marks an active appointment as attended. The caller
// pairs this with recording the visit's income entry; that collaborator
// reads the event log.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !appt.Status.IsActive() {
		return nil, fmt.Errorf("%w: cannot complete a %s appointment", ErrInvalidTransition, appt.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, id, []Status{StatusScheduled, StatusRescheduled}, StatusCompleted, StatusChange{})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{
		"slot": updated.Slot.String(),
	})
	return updated, nil
}

// CancelAppointment cancels an active appointment or a pending request.
// An empty reason is recorded as DefaultCancellationReason.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !appt.Status.IsActive() && appt.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot cancel a %s appointment", ErrInvalidTransition, appt.Status)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancellationReason
	}

	updated, err := s.store.UpdateStatus(ctx, id,
		[]Status{StatusScheduled, StatusRescheduled, StatusPending}, StatusCancelled,
		StatusChange{CancellationReason: &reason})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"reason": reason,
	})
	s.notify(ctx, updated.ID, NotifyCancelled)
	return updated, nil
}

// MarkNoShow flags an active appointment whose patient did not turn up.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !appt.Status.IsActive() {
		return nil, fmt.Errorf("%w: cannot mark a %s appointment as no-show", ErrInvalidTransition, appt.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, id, []Status{StatusScheduled, StatusRescheduled}, StatusNoShow, StatusChange{})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentNoShow, map[string]any{
		"slot": updated.Slot.String(),
	})
	return updated, nil
}

// GetAppointment retrieves a single appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return appt, nil
}

// DayAgenda lists every appointment of one professional's day, all
// statuses included. Backs the staff calendar view.
func (s *Service) DayAgenda(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]Appointment, error) {
	if _, err := s.store.GetProfessionalByID(ctx, professionalID); err != nil {
		return nil, wrapStoreErr(err)
	}
	appts, err := s.store.ListByProfessionalAndDate(ctx, professionalID, Day(date))
	if err != nil {
		return nil, fmt.Errorf("list day agenda: %w", wrapStoreErr(err))
	}
	return appts, nil
}

// ListPatientAppointments pages through one patient's history.
func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	appts, err := s.store.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", wrapStoreErr(err))
	}
	return appts, nil
}

// ListPendingRequests pages through unresolved requests for the staff
// triage screen, oldest first.
func (s *Service) ListPendingRequests(ctx context.Context, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	appts, err := s.store.ListPendingRequests(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", wrapStoreErr(err))
	}
	return appts, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID
	ev := ScheduleEvent{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
	}

	if err := s.store.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event_type", eventType).
			Stringer("appointment_id", appointmentID).
			Msg("insert schedule event")
	}
}

// notify hands a message to the notification queue. Dispatch is
// best-effort: failures are logged and swallowed so a slow or broken
// channel cannot fail a booking.
func (s *Service) notify(ctx context.Context, appointmentID uuid.UUID, kind NotificationKind) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, appointmentID, kind); err != nil {
		s.log.Warn().Err(err).
			Stringer("appointment_id", appointmentID).
			Str("kind", string(kind)).
			Msg("notification dispatch failed")
	}
}
