package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-scheduling/internal/config"
	"github.com/clinicdesk/clinic-scheduling/internal/db"
	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

// The simulator hammers the booking API with deliberately overlapping
// slots for a small set of professionals, then verifies the no-overlap
// invariant directly against the store: among active appointments for
// one professional and day, no two intervals may intersect.

type simConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	Professionals int
	Days          int
	PostgresDSN   string
}

type counters struct {
	total    int64
	created  int64
	conflict int64
	busy     int64
	errors   int64
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "simulate").Logger()
	log.Info().Msg("simulator starting")

	baseCfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load base config")
	}

	cfg := simConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		Professionals: getInt("SIM_PROFESSIONALS", 3),
		Days:          getInt("SIM_DAYS", 2),
		PostgresDSN:   baseCfg.PostgresDSN,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	patients, err := loadIDs(ctx, pgPool, `SELECT id FROM patients LIMIT 500`)
	if err != nil || len(patients) == 0 {
		log.Fatal().Err(err).Msg("no patients loaded, run cmd/seed first")
	}
	professionals, err := loadIDs(ctx, pgPool,
		`SELECT id FROM professionals LIMIT `+strconv.Itoa(cfg.Professionals))
	if err != nil || len(professionals) == 0 {
		log.Fatal().Err(err).Msg("no professionals loaded, run cmd/seed first")
	}

	log.Info().
		Int("patients", len(patients)).
		Int("professionals", len(professionals)).
		Int("workers", cfg.Workers).
		Dur("duration", cfg.Duration).
		Msg("loaded data pool")

	var c counters
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for runCtx.Err() == nil {
				book(runCtx, client, cfg, rng, patients, professionals, &c)
			}
		}(i)
	}
	wg.Wait()

	report(log, &c)

	overlaps, err := countOverlaps(ctx, pgPool)
	if err != nil {
		log.Fatal().Err(err).Msg("invariant query failed")
	}
	if overlaps > 0 {
		log.Error().Int64("overlapping_pairs", overlaps).Msg("INVARIANT VIOLATED: double bookings found")
		os.Exit(1)
	}
	log.Info().Msg("invariant holds: no overlapping active appointments")
}

func book(ctx context.Context, client *http.Client, cfg simConfig, rng *rand.Rand, patients, professionals []uuid.UUID, c *counters) {
	// Deliberately collide: few professionals, few days, random
	// quantum-aligned starts with 1-3 quantum durations.
	day := time.Now().AddDate(0, 0, 1+rng.Intn(cfg.Days)).Format("2006-01-02")
	start := int(scheduling.DayStart) + rng.Intn(int(scheduling.DayEnd-scheduling.DayStart)/scheduling.GridQuantum)*scheduling.GridQuantum
	duration := (1 + rng.Intn(3)) * scheduling.GridQuantum
	if start+duration > int(scheduling.DayEnd) {
		duration = scheduling.GridQuantum
	}

	body, _ := json.Marshal(map[string]any{
		"patient_id":      patients[rng.Intn(len(patients))].String(),
		"professional_id": professionals[rng.Intn(len(professionals))].String(),
		"slot": map[string]string{
			"date":  day,
			"start": scheduling.MinuteOfDay(start).String(),
			"end":   scheduling.MinuteOfDay(start + duration).String(),
		},
		"reason": "consulta de control",
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	atomic.AddInt64(&c.total, 1)
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&c.created, 1)
	case http.StatusConflict:
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "agenda_busy" {
			atomic.AddInt64(&c.busy, 1)
		} else {
			atomic.AddInt64(&c.conflict, 1)
		}
	default:
		atomic.AddInt64(&c.errors, 1)
	}
}

func countOverlaps(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var n int64
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.professional_id = b.professional_id
		 AND a.date = b.date
		 AND a.id < b.id
		 AND a.start_minute < b.end_minute
		 AND b.start_minute < a.end_minute
		WHERE a.status IN ('scheduled', 'rescheduled', 'completed')
		  AND b.status IN ('scheduled', 'rescheduled', 'completed')
	`).Scan(&n)
	return n, err
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func report(log zerolog.Logger, c *counters) {
	total := atomic.LoadInt64(&c.total)
	if total == 0 {
		log.Warn().Msg("no requests issued")
		return
	}
	created := atomic.LoadInt64(&c.created)
	conflict := atomic.LoadInt64(&c.conflict)
	busy := atomic.LoadInt64(&c.busy)
	errs := atomic.LoadInt64(&c.errors)

	log.Info().
		Int64("total", total).
		Str("created", pct(created, total)).
		Str("slot_conflict", pct(conflict, total)).
		Str("agenda_busy", pct(busy, total)).
		Str("errors", pct(errs, total)).
		Msg("simulation report")
}

func pct(n, total int64) string {
	return fmt.Sprintf("%d (%.1f%%)", n, float64(n)/float64(total)*100)
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
