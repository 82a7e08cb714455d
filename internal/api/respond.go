package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"

	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleServiceError maps the scheduling error taxonomy onto HTTP. A slot
// conflict additionally carries the blocking interval so the client can
// offer alternatives from the availability endpoint.
func handleServiceError(w http.ResponseWriter, err error) {
	var conflict *scheduling.SlotConflictError

	switch {
	case errors.As(err, &conflict):
		slot := toSlotPayload(conflict.Conflicting)
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:           "slot_conflict",
			Details:         err.Error(),
			ConflictingSlot: &slot,
		})
	case errors.Is(err, scheduling.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
	case errors.Is(err, scheduling.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, scheduling.ErrNoChangeRequested):
		writeError(w, http.StatusBadRequest, "no_change_requested", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "agenda_busy", "the professional's agenda is being booked, please retry shortly")
	case errors.Is(err, scheduling.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
