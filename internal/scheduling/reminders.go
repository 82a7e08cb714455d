package scheduling

import (
	"context"
	"fmt"
	"time"
)

// EnqueueReminders queues a reminder notification for every active
// appointment on the given day. Called periodically by the reminder
// worker with the next clinic day; individual dispatch failures are
// logged and skipped so one bad row cannot stall the run.
func (s *Service) EnqueueReminders(ctx context.Context, date time.Time) (int, error) {
	appts, err := s.store.FindActiveByDate(ctx, Day(date))
	if err != nil {
		return 0, fmt.Errorf("find appointments for reminders: %w", wrapStoreErr(err))
	}

	sent := 0
	for i := range appts {
		if s.notifier == nil {
			break
		}
		if err := s.notifier.Notify(ctx, appts[i].ID, NotifyReminder); err != nil {
			s.log.Warn().Err(err).
				Stringer("appointment_id", appts[i].ID).
				Msg("enqueue reminder")
			continue
		}
		sent++
	}
	return sent, nil
}
