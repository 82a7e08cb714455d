package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

// Enqueuer implements scheduling.Notifier by pushing dispatch tasks onto
// the asynq queue. Enqueueing is the only thing the booking path waits
// for; delivery happens in the notify worker.
type Enqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewEnqueuer(opt asynq.RedisClientOpt, log zerolog.Logger) *Enqueuer {
	return &Enqueuer{
		client: asynq.NewClient(opt),
		log:    log,
	}
}

func (e *Enqueuer) Notify(ctx context.Context, appointmentID uuid.UUID, kind scheduling.NotificationKind) error {
	task, err := NewDispatchTask(appointmentID, kind)
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	e.log.Debug().
		Str("task_id", info.ID).
		Stringer("appointment_id", appointmentID).
		Str("kind", string(kind)).
		Msg("notification queued")
	return nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
