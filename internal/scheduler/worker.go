package scheduler

import (
	"context"
	"fmt"

	"marketplace_backend/internal/search/transport"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Indexer is the slice of the search indexing pipeline the worker drives.
type Indexer interface {
	BulkIndex(ctx context.Context) (*transport.BulkIndexReport, error)
	IndexListing(ctx context.Context, listingID uuid.UUID, contentOverride string) error
}

// Worker consumes indexing tasks from the queue.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	indexer Indexer
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, indexer Indexer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		indexer: indexer,
		log:     log,
	}

	mux.HandleFunc(TaskSearchReindex, w.handleSearchReindex)
	mux.HandleFunc(TaskIndexListing, w.handleIndexListing)

	return w, nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSearchReindex(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseSearchReindexPayload(task); err != nil {
		return err
	}

	report, err := w.indexer.BulkIndex(ctx)
	if err != nil {
		return err
	}

	// Partial failure is not a task failure. Failed listings are reported and
	// picked up by the next run; retrying the whole task would re-embed
	// everything that already succeeded.
	if report.Failed > 0 {
		w.log.Warn("reindex finished with failures", "indexed", report.Indexed, "failed", report.Failed)
	}
	return nil
}

func (w *Worker) handleIndexListing(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIndexListingPayload(task)
	if err != nil {
		return err
	}

	listingID, err := uuid.Parse(payload.ListingID)
	if err != nil {
		return fmt.Errorf("parse listing id: %w", err)
	}

	return w.indexer.IndexListing(ctx, listingID, payload.Content)
}
