package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type RequestParams struct {
	PatientID uuid.UUID
	Slot      TimeSlot
	Reason    string
	Notes     *string
}

// SubmitRequest records a patient-proposed appointment as a pending
// record with no professional assigned. Only grid rules apply here: the
// proposed window is not conflict-checked, and several alternative
// requests from the same patient may target the same window.
func (s *Service) SubmitRequest(ctx context.Context, p RequestParams) (*Appointment, error) {
	if strings.TrimSpace(p.Reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if err := ValidateSlot(p.Slot); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPatientByID(ctx, p.PatientID); err != nil {
		return nil, wrapStoreErr(err)
	}

	req := &Appointment{
		ID:        uuid.New(),
		PatientID: p.PatientID,
		Slot:      TimeSlot{Date: Day(p.Slot.Date), Start: p.Slot.Start, End: p.Slot.End},
		Reason:    strings.TrimSpace(p.Reason),
		Notes:     p.Notes,
		Status:    StatusPending,
	}

	stored, err := s.store.InsertAppointment(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", wrapStoreErr(err))
	}

	s.logEvent(ctx, stored.ID, EventRequestSubmitted, map[string]any{
		"patient_id": p.PatientID.String(),
		"slot":       stored.Slot.String(),
	})
	return stored, nil
}

// ApproveRequest resolves a pending request into a scheduled appointment
// with the chosen professional and slot, re-validating exactly as a direct
// booking does. On conflict the request stays pending so staff can pick a
// different slot. Every other pending request from the same patient whose
// proposed window overlaps the confirmed slot is retired; the count of
// retired requests is returned for display.
func (s *Service) ApproveRequest(ctx context.Context, requestID, professionalID uuid.UUID, finalSlot TimeSlot, notes *string) (*Appointment, int, error) {
	if err := ValidateSlot(finalSlot); err != nil {
		return nil, 0, err
	}

	req, err := s.store.GetAppointmentByID(ctx, requestID)
	if err != nil {
		return nil, 0, wrapStoreErr(err)
	}
	if req.Status != StatusPending {
		return nil, 0, fmt.Errorf("%w: cannot approve a %s request", ErrInvalidTransition, req.Status)
	}
	if _, err := s.store.GetProfessionalByID(ctx, professionalID); err != nil {
		return nil, 0, wrapStoreErr(err)
	}

	day := Day(finalSlot.Date)
	var approved *Appointment

	err = s.locker.WithAgendaLock(ctx, professionalID, day, func(lockCtx context.Context) error {
		if err := s.conflicts(lockCtx, professionalID, finalSlot, uuid.Nil); err != nil {
			return err
		}

		a, err := s.store.ApproveRequest(lockCtx, requestID, professionalID,
			TimeSlot{Date: day, Start: finalSlot.Start, End: finalSlot.End}, notes)
		if err != nil {
			return wrapStoreErr(err)
		}
		approved = a

		s.logEvent(lockCtx, a.ID, EventRequestApproved, map[string]any{
			"professional_id": professionalID.String(),
			"slot":            a.Slot.String(),
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	superseded := s.supersedeAlternatives(ctx, approved)

	s.notify(ctx, approved.ID, NotifyApproved)
	return approved, superseded, nil
}

// supersedeAlternatives retires the patient's other pending requests that
// overlap the newly confirmed slot. Pending rows never count against the
// overlap invariant, so this runs outside the agenda lock; a request that
// slips through is still resolvable by staff.
func (s *Service) supersedeAlternatives(ctx context.Context, approved *Appointment) int {
	pending, err := s.store.FindPendingByPatient(ctx, approved.PatientID)
	if err != nil {
		s.log.Error().Err(err).
			Stringer("patient_id", approved.PatientID).
			Msg("load pending requests for supersede")
		return 0
	}

	reason := SupersededReason
	count := 0
	for i := range pending {
		alt := &pending[i]
		if alt.ID == approved.ID || !alt.Slot.Overlaps(approved.Slot) {
			continue
		}

		if _, err := s.store.UpdateStatus(ctx, alt.ID, []Status{StatusPending}, StatusCancelled,
			StatusChange{CancellationReason: &reason}); err != nil {
			s.log.Warn().Err(err).
				Stringer("request_id", alt.ID).
				Msg("supersede pending request")
			continue
		}

		s.logEvent(ctx, alt.ID, EventRequestSuperseded, map[string]any{
			"approved_id": approved.ID.String(),
		})
		count++
	}
	return count
}

// RejectRequest declines a pending request, recording the mandatory
// rejection reason and an optional free-text alternative suggestion.
func (s *Service) RejectRequest(ctx context.Context, requestID uuid.UUID, rejectionReason string, alternativeOptions *string) (*Appointment, error) {
	rejectionReason = strings.TrimSpace(rejectionReason)
	if rejectionReason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	req, err := s.store.GetAppointmentByID(ctx, requestID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot reject a %s request", ErrInvalidTransition, req.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, requestID, []Status{StatusPending}, StatusCancelled,
		StatusChange{RejectionReason: &rejectionReason, AlternativeOptions: alternativeOptions})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.logEvent(ctx, updated.ID, EventRequestRejected, map[string]any{
		"reason": rejectionReason,
	})
	s.notify(ctx, updated.ID, NotifyRejected)
	return updated, nil
}
