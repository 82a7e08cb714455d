package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) submit(t *testing.T, start, end string) *Appointment {
	t.Helper()
	req, err := e.svc.SubmitRequest(context.Background(), RequestParams{
		PatientID: e.patientID,
		Slot:      e.slot(t, start, end),
		Reason:    "dolor de muela",
	})
	require.NoError(t, err)
	return req
}

func TestSubmitRequest(t *testing.T) {
	env := newTestEnv(t)

	req := env.submit(t, "10:00", "10:30")

	assert.Equal(t, StatusPending, req.Status)
	assert.Nil(t, req.ProfessionalID)

	require.NotEmpty(t, env.store.events)
	assert.Equal(t, EventRequestSubmitted, env.store.events[len(env.store.events)-1].EventType)
}

func TestSubmitRequest_NotConflictChecked(t *testing.T) {
	env := newTestEnv(t)
	env.book(t, "10:00", "10:30")

	// A proposed window may collide with an existing booking; triage
	// resolves it later.
	env.submit(t, "10:00", "10:30")

	// The patient may also propose the same window twice.
	env.submit(t, "10:00", "10:30")
}

func TestSubmitRequest_Validation(t *testing.T) {
	env := newTestEnv(t)

	t.Run("blank reason", func(t *testing.T) {
		_, err := env.svc.SubmitRequest(context.Background(), RequestParams{
			PatientID: env.patientID,
			Slot:      env.slot(t, "10:00", "10:30"),
			Reason:    "",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("misaligned slot", func(t *testing.T) {
		_, err := env.svc.SubmitRequest(context.Background(), RequestParams{
			PatientID: env.patientID,
			Slot: TimeSlot{
				Date:  env.slot(t, "10:00", "10:30").Date,
				Start: MinuteOfDay(10*60 + 5),
				End:   MinuteOfDay(10*60 + 35),
			},
			Reason: "dolor",
		})
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})

	t.Run("unknown patient", func(t *testing.T) {
		_, err := env.svc.SubmitRequest(context.Background(), RequestParams{
			PatientID: uuid.New(),
			Slot:      env.slot(t, "10:00", "10:30"),
			Reason:    "dolor",
		})
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})
}

func TestApproveRequest(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, "10:00", "10:30")

	notes := "traer radiografía"
	approved, superseded, err := env.svc.ApproveRequest(context.Background(),
		req.ID, env.professionalID, env.slot(t, "10:00", "10:30"), &notes)
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, approved.Status)
	require.NotNil(t, approved.ProfessionalID)
	assert.Equal(t, env.professionalID, *approved.ProfessionalID)
	require.NotNil(t, approved.Notes)
	assert.Equal(t, "traer radiografía", *approved.Notes)
	assert.Equal(t, 0, superseded)
	assert.Equal(t, NotifyApproved, env.notifier.last())

	// The approved booking now holds the slot.
	_, err = env.svc.CreateAppointment(context.Background(), CreateParams{
		PatientID:      env.patientID,
		ProfessionalID: env.professionalID,
		Slot:           env.slot(t, "10:15", "10:45"),
		Reason:         "control",
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestApproveRequest_DifferentSlotThanProposed(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, "10:00", "10:30")

	// Staff may confirm a different window than the patient proposed.
	approved, _, err := env.svc.ApproveRequest(context.Background(),
		req.ID, env.professionalID, env.slot(t, "16:00", "16:30"), nil)
	require.NoError(t, err)
	assert.True(t, approved.Slot.Equal(env.slot(t, "16:00", "16:30")))
}

func TestApproveRequest_ConflictLeavesRequestPending(t *testing.T) {
	env := newTestEnv(t)
	env.book(t, "10:00", "10:30")
	req := env.submit(t, "10:00", "10:30")

	_, _, err := env.svc.ApproveRequest(context.Background(),
		req.ID, env.professionalID, env.slot(t, "10:00", "10:30"), nil)
	require.ErrorIs(t, err, ErrSlotConflict)

	reloaded, err := env.svc.GetAppointment(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reloaded.Status)

	// Retrying with a free window succeeds.
	approved, _, err := env.svc.ApproveRequest(context.Background(),
		req.ID, env.professionalID, env.slot(t, "11:00", "11:30"), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, approved.Status)
}

func TestApproveRequest_SupersedesOverlappingAlternatives(t *testing.T) {
	env := newTestEnv(t)

	// Three alternatives from the same patient: two overlap each other,
	// one is for a disjoint window.
	morning := env.submit(t, "10:00", "10:30")
	morningAlt := env.submit(t, "10:15", "10:45")
	afternoon := env.submit(t, "14:00", "14:30")

	approved, superseded, err := env.svc.ApproveRequest(context.Background(),
		morning.ID, env.professionalID, env.slot(t, "10:00", "10:30"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, superseded)

	retired, err := env.svc.GetAppointment(context.Background(), morningAlt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, retired.Status)
	require.NotNil(t, retired.CancellationReason)
	assert.Equal(t, SupersededReason, *retired.CancellationReason)

	// The disjoint alternative survives triage.
	open, err := env.svc.GetAppointment(context.Background(), afternoon.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, open.Status)

	// And the approved one itself is untouched.
	self, err := env.svc.GetAppointment(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, self.Status)
}

func TestApproveRequest_SupersedeScopedToPatient(t *testing.T) {
	env := newTestEnv(t)
	otherPatient := env.store.addPatient()

	req := env.submit(t, "10:00", "10:30")
	otherReq, err := env.svc.SubmitRequest(context.Background(), RequestParams{
		PatientID: otherPatient,
		Slot:      env.slot(t, "10:00", "10:30"),
		Reason:    "revisión",
	})
	require.NoError(t, err)

	_, superseded, err := env.svc.ApproveRequest(context.Background(),
		req.ID, env.professionalID, env.slot(t, "10:00", "10:30"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, superseded)

	reloaded, err := env.svc.GetAppointment(context.Background(), otherReq.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reloaded.Status)
}

func TestApproveRequest_InvalidStates(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown request", func(t *testing.T) {
		_, _, err := env.svc.ApproveRequest(context.Background(),
			uuid.New(), env.professionalID, env.slot(t, "10:00", "10:30"), nil)
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})

	t.Run("unknown professional", func(t *testing.T) {
		req := env.submit(t, "10:00", "10:30")
		_, _, err := env.svc.ApproveRequest(context.Background(),
			req.ID, uuid.New(), env.slot(t, "10:00", "10:30"), nil)
		assert.ErrorIs(t, err, ErrProfessionalNotFound)
	})

	t.Run("already resolved", func(t *testing.T) {
		req := env.submit(t, "11:00", "11:30")
		_, _, err := env.svc.ApproveRequest(context.Background(),
			req.ID, env.professionalID, env.slot(t, "11:00", "11:30"), nil)
		require.NoError(t, err)

		_, _, err = env.svc.ApproveRequest(context.Background(),
			req.ID, env.professionalID, env.slot(t, "12:00", "12:30"), nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("booking is not a request", func(t *testing.T) {
		appt := env.book(t, "13:00", "13:30")
		_, _, err := env.svc.ApproveRequest(context.Background(),
			appt.ID, env.professionalID, env.slot(t, "13:00", "13:30"), nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestRejectRequest(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, "10:00", "10:30")

	alternatives := "martes 10:00 o miércoles 16:00"
	rejected, err := env.svc.RejectRequest(context.Background(), req.ID,
		"agenda completa esa semana", &alternatives)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "agenda completa esa semana", *rejected.RejectionReason)
	require.NotNil(t, rejected.AlternativeOptions)
	assert.Equal(t, alternatives, *rejected.AlternativeOptions)
	assert.Equal(t, NotifyRejected, env.notifier.last())
}

func TestRejectRequest_Validation(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, "10:00", "10:30")

	t.Run("blank reason", func(t *testing.T) {
		_, err := env.svc.RejectRequest(context.Background(), req.ID, "   ", nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("already resolved", func(t *testing.T) {
		_, err := env.svc.RejectRequest(context.Background(), req.ID, "sin disponibilidad", nil)
		require.NoError(t, err)

		_, err = env.svc.RejectRequest(context.Background(), req.ID, "sin disponibilidad", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}
