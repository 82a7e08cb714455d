package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-scheduling/internal/config"
	"github.com/clinicdesk/clinic-scheduling/internal/db"
	"github.com/clinicdesk/clinic-scheduling/internal/notify"
	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

// The notify worker drains the notification queue: it resolves each
// queued appointment and patient and hands the message to the delivery
// gateway. Keeping delivery out of the API process means a slow channel
// can never stall a booking.
func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "notify-worker").Logger()
	log.Info().Msg("notify-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	store := scheduling.NewPgStore(pgPool)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.NotifyQueueDB,
		},
		asynq.Config{
			Concurrency: cfg.NotifyConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := notify.NewMux(store, log)

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("notify worker error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down notify-worker")
	srv.Shutdown()
}
