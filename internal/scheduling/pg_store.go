package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on Postgres. Status transitions use
// conditional updates (WHERE status = ANY(from)) so a raced transition
// comes back as zero rows instead of clobbering a newer state.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const appointmentColumns = `
	id, patient_id, professional_id, date, start_minute, end_minute,
	reason, notes, status, cancellation_reason, rejection_reason,
	alternative_options, created_at, updated_at`

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var startMinute, endMinute int

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProfessionalID,
		&a.Slot.Date,
		&startMinute,
		&endMinute,
		&a.Reason,
		&a.Notes,
		&a.Status,
		&a.CancellationReason,
		&a.RejectionReason,
		&a.AlternativeOptions,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Slot.Date = Day(a.Slot.Date)
	a.Slot.Start = MinuteOfDay(startMinute)
	a.Slot.End = MinuteOfDay(endMinute)
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Interface methods

func (r *PgStore) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgStore) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}

func (r *PgStore) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgStore) FindActiveByProfessionalAndDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
		  AND date = $2
		  AND status = ANY($3)
		ORDER BY start_minute
	`, professionalID, date, statusStrings(activeStatuses))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) FindPendingByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND status = 'pending'
		ORDER BY created_at
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) FindActiveByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1
		  AND status = ANY($2)
		ORDER BY professional_id, start_minute
	`, date, statusStrings([]Status{StatusScheduled, StatusRescheduled}))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) ListByProfessionalAndDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
		  AND date = $2
		ORDER BY start_minute
	`, professionalID, date)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date DESC, start_minute DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) ListPendingRequests(ctx context.Context, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgStore) InsertAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := appt.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, professional_id, date, start_minute, end_minute,
			reason, notes, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.PatientID, appt.ProfessionalID, Day(appt.Slot.Date),
		int(appt.Slot.Start), int(appt.Slot.End), appt.Reason, appt.Notes, appt.Status)

	return scanAppointment(row)
}

func (r *PgStore) UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, change StatusChange) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    cancellation_reason = COALESCE($4, cancellation_reason),
		    rejection_reason = COALESCE($5, rejection_reason),
		    alternative_options = COALESCE($6, alternative_options),
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING `+appointmentColumns+`
	`, id, to, statusStrings(from), change.CancellationReason, change.RejectionReason, change.AlternativeOptions)

	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		// The row exists but its status moved under us.
		return nil, ErrInvalidTransition
	}
	return appt, err
}

func (r *PgStore) RescheduleSlot(ctx context.Context, id uuid.UUID, from []Status, slot TimeSlot) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'rescheduled',
		    date = $3,
		    start_minute = $4,
		    end_minute = $5,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($2)
		RETURNING `+appointmentColumns+`
	`, id, statusStrings(from), Day(slot.Date), int(slot.Start), int(slot.End))

	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrInvalidTransition
	}
	return appt, err
}

func (r *PgStore) ApproveRequest(ctx context.Context, id uuid.UUID, professionalID uuid.UUID, slot TimeSlot, notes *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'scheduled',
		    professional_id = $2,
		    date = $3,
		    start_minute = $4,
		    end_minute = $5,
		    notes = COALESCE($6, notes),
		    updated_at = now()
		WHERE id = $1
		  AND status = 'pending'
		RETURNING `+appointmentColumns+`
	`, id, professionalID, Day(slot.Date), int(slot.Start), int(slot.End), notes)

	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrInvalidTransition
	}
	return appt, err
}

func (r *PgStore) InsertEvent(ctx context.Context, ev ScheduleEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO schedule_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
