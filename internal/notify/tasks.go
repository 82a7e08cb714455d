package notify

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

const TypeDispatch = "notification:dispatch"

// Payload is the queued message: which appointment and what happened.
// The worker resolves contact details at delivery time so the queue never
// carries stale patient data.
type Payload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Kind          string    `json:"kind"`
}

// NewDispatchTask builds the asynq task for one notification.
func NewDispatchTask(appointmentID uuid.UUID, kind scheduling.NotificationKind) (*asynq.Task, error) {
	b, err := json.Marshal(Payload{
		AppointmentID: appointmentID,
		Kind:          string(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal notification payload: %w", err)
	}
	return asynq.NewTask(TypeDispatch, b), nil
}
