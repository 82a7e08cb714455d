package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service *scheduling.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment lifecycle
	r.Post("/appointments", createAppointmentHandler(cfg.Service))
	r.Get("/appointments", listPatientAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/no-show", markNoShowHandler(cfg.Service))

	// Professional calendars
	r.Get("/professionals/{id}/availability", availabilityHandler(cfg.Service))
	r.Get("/professionals/{id}/agenda", dayAgendaHandler(cfg.Service))

	// Patient request triage
	r.Post("/requests", submitRequestHandler(cfg.Service))
	r.Get("/requests", listPendingRequestsHandler(cfg.Service))
	r.Post("/requests/{id}/approve", approveRequestHandler(cfg.Service))
	r.Post("/requests/{id}/reject", rejectRequestHandler(cfg.Service))

	return r
}
