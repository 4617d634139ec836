// Package analytics records match activity for reporting. It subscribes to
// domain events and writes rows out of band; a failed insert is logged and
// never surfaces to the request that produced the event.
package analytics

import (
	"context"
	"fmt"

	"marketplace_backend/internal/events"
	"marketplace_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder persists match analytics rows.
type Recorder struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewRecorder creates a recorder and subscribes it to match events.
func NewRecorder(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Recorder {
	r := &Recorder{pool: pool, log: log}

	bus.Subscribe(events.MatchCompleted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.MatchCompleted)
		if !ok {
			return nil
		}
		if err := r.recordMatch(ctx, e); err != nil {
			log.Error("match analytics insert failed", "error", err, "userId", e.UserID)
		}
		return nil
	}))

	return r
}

func (r *Recorder) recordMatch(ctx context.Context, e events.MatchCompleted) error {
	query := `
		INSERT INTO match_analytics
			(user_id, category_id, latitude, longitude, radius_km, urgency, budget_min, budget_max, match_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		e.UserID, e.CategoryID, e.Latitude, e.Longitude, e.RadiusKm,
		e.Urgency, e.BudgetMin, e.BudgetMax, e.MatchCount, e.OccurredAt(),
	)
	if err != nil {
		return fmt.Errorf("insert match analytics: %w", err)
	}
	return nil
}
