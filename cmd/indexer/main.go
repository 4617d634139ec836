package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace_backend/platform/events"
	"marketplace_backend/internal/scheduler"
	searchrepo "marketplace_backend/internal/search/repository"
	searchservice "marketplace_backend/internal/search/service"
	"marketplace_backend/platform/ai/embeddings"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/db"
	"marketplace_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting indexer worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The worker exists to build embeddings; refuse to start without the model.
	if !cfg.IsEmbeddingEnabled() {
		log.Error("GEMINI_API_KEY not configured")
		panic("indexer requires GEMINI_API_KEY")
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	embedder, err := embeddings.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize embedding client", "error", err)
		panic("failed to initialize embedding client: " + err.Error())
	}
	log.Info("embedding client initialized", "model", embedder.Model())

	eventBus := events.NewInMemoryBus(log)

	indexer := searchservice.NewIndexer(embedder, searchrepo.New(pool), eventBus, log,
		searchservice.WithBulkBatching(cfg.GetBulkIndexBatchSize(), cfg.GetBulkIndexBatchPause()))

	worker, err := scheduler.NewWorker(cfg, indexer, log)
	if err != nil {
		log.Error("failed to initialize indexer worker", "error", err)
		panic("failed to initialize indexer worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
