package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

// SlotPayload is the wire form of a slot: a calendar date plus HH:MM
// times of day.
type SlotPayload struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (p SlotPayload) toSlot() (scheduling.TimeSlot, error) {
	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return scheduling.TimeSlot{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	start, err := scheduling.ParseMinuteOfDay(p.Start)
	if err != nil {
		return scheduling.TimeSlot{}, fmt.Errorf("start must be HH:MM: %w", err)
	}
	end, err := scheduling.ParseMinuteOfDay(p.End)
	if err != nil {
		return scheduling.TimeSlot{}, fmt.Errorf("end must be HH:MM: %w", err)
	}
	return scheduling.TimeSlot{Date: scheduling.Day(date), Start: start, End: end}, nil
}

func toSlotPayload(s scheduling.TimeSlot) SlotPayload {
	return SlotPayload{
		Date:  scheduling.Day(s.Date).Format("2006-01-02"),
		Start: s.Start.String(),
		End:   s.End.String(),
	}
}

type CreateAppointmentRequest struct {
	PatientID      string      `json:"patient_id"`
	ProfessionalID string      `json:"professional_id"`
	Slot           SlotPayload `json:"slot"`
	Reason         string      `json:"reason"`
	Notes          *string     `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	Slot SlotPayload `json:"slot"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type SubmitRequestRequest struct {
	PatientID string      `json:"patient_id"`
	Slot      SlotPayload `json:"slot"`
	Reason    string      `json:"reason"`
	Notes     *string     `json:"notes,omitempty"`
}

type ApproveRequestRequest struct {
	ProfessionalID string      `json:"professional_id"`
	Slot           SlotPayload `json:"slot"`
	Notes          *string     `json:"notes,omitempty"`
}

type RejectRequestRequest struct {
	Reason             string  `json:"reason"`
	AlternativeOptions *string `json:"alternative_options,omitempty"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID   `json:"id"`
	PatientID          uuid.UUID   `json:"patient_id"`
	ProfessionalID     *uuid.UUID  `json:"professional_id,omitempty"`
	Slot               SlotPayload `json:"slot"`
	Reason             string      `json:"reason"`
	Notes              *string     `json:"notes,omitempty"`
	Status             string      `json:"status"`
	CancellationReason *string     `json:"cancellation_reason,omitempty"`
	RejectionReason    *string     `json:"rejection_reason,omitempty"`
	AlternativeOptions *string     `json:"alternative_options,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		ProfessionalID:     a.ProfessionalID,
		Slot:               toSlotPayload(a.Slot),
		Reason:             a.Reason,
		Notes:              a.Notes,
		Status:             string(a.Status),
		CancellationReason: a.CancellationReason,
		RejectionReason:    a.RejectionReason,
		AlternativeOptions: a.AlternativeOptions,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func toAppointmentResponses(appts []scheduling.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, len(appts))
	for i := range appts {
		out[i] = toAppointmentResponse(&appts[i])
	}
	return out
}

type AvailabilityResponse struct {
	ProfessionalID  uuid.UUID     `json:"professional_id"`
	Date            string        `json:"date"`
	DurationMinutes int           `json:"duration_minutes"`
	Slots           []SlotPayload `json:"slots"`
}

type ApproveResponse struct {
	Appointment     AppointmentResponse `json:"appointment"`
	SupersededCount int                 `json:"superseded_count"`
}

type ErrorResponse struct {
	Error           string       `json:"error"`
	Details         string       `json:"details,omitempty"`
	ConflictingSlot *SlotPayload `json:"conflicting_slot,omitempty"`
}
