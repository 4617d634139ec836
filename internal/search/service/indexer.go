// Package service implements the indexing pipeline and the search engine.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"marketplace_backend/internal/events"
	"marketplace_backend/internal/search/repository"
	"marketplace_backend/internal/search/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	// embedBatchSize is how many texts go to the model concurrently.
	// Batches run sequentially to stay under the provider's rate limits.
	embedBatchSize = 10

	defaultBulkBatchSize  = 5
	defaultBulkBatchPause = time.Second
)

// Embedder generates embedding vectors for text. Satisfied by the
// platform embeddings client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer builds listing embeddings and writes them to the vector store.
type Indexer struct {
	embedder Embedder
	repo     repository.Repository
	bus      events.Bus
	log      *logger.Logger

	bulkBatchSize  int
	bulkBatchPause time.Duration

	// sleep is swapped in tests to avoid real pauses.
	sleep func(ctx context.Context, d time.Duration) error
}

// IndexerOption tunes indexer behavior.
type IndexerOption func(*Indexer)

// WithBulkBatching overrides the bulk batch size and inter-batch pause.
func WithBulkBatching(size int, pause time.Duration) IndexerOption {
	return func(i *Indexer) {
		if size > 0 {
			i.bulkBatchSize = size
		}
		if pause >= 0 {
			i.bulkBatchPause = pause
		}
	}
}

// NewIndexer creates an indexer.
func NewIndexer(embedder Embedder, repo repository.Repository, bus events.Bus, log *logger.Logger, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		embedder:       embedder,
		repo:           repo,
		bus:            bus,
		log:            log,
		bulkBatchSize:  defaultBulkBatchSize,
		bulkBatchPause: defaultBulkBatchPause,
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// EmbedText generates one embedding.
func (i *Indexer) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if i.embedder == nil {
		return nil, apperr.Unavailable("embedding model is not configured")
	}
	return i.embedder.Embed(ctx, text)
}

// EmbedBatch embeds texts in groups of embedBatchSize. Texts within a group
// run concurrently; groups run one after another. Results come back in input
// order. Any failure fails the whole call, since a partial vector set is
// useless to callers that need positional alignment.
func (i *Indexer) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i.embedder == nil {
		return nil, apperr.Unavailable("embedding model is not configured")
	}
	results := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g, gctx := errgroup.WithContext(ctx)
		for pos := start; pos < end; pos++ {
			g.Go(func() error {
				vector, err := i.embedder.Embed(gctx, texts[pos])
				if err != nil {
					return fmt.Errorf("embed text %d: %w", pos, err)
				}
				results[pos] = vector
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// IndexListing embeds one listing and writes its vector. A non-empty
// contentOverride replaces the composite text built from the stored fields.
func (i *Indexer) IndexListing(ctx context.Context, listingID uuid.UUID, contentOverride string) error {
	listing, err := i.repo.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if err := i.index(ctx, listing, contentOverride); err != nil {
		return err
	}

	if i.bus != nil {
		i.bus.Publish(ctx, events.ListingIndexed{
			BaseEvent: events.NewBaseEvent(),
			ListingID: listingID,
		})
	}
	return nil
}

// BulkIndex embeds every indexable listing in small batches with a pause
// between batches. Listings within a batch run concurrently, so the batch
// size caps in-flight model calls. One bad listing never aborts the run; its
// error lands in the report and the rest of the batch continues.
func (i *Indexer) BulkIndex(ctx context.Context) (*transport.BulkIndexReport, error) {
	listings, err := i.repo.ListIndexable(ctx)
	if err != nil {
		return nil, err
	}

	report := &transport.BulkIndexReport{Total: len(listings)}

	for start := 0; start < len(listings); start += i.bulkBatchSize {
		end := start + i.bulkBatchSize
		if end > len(listings) {
			end = len(listings)
		}

		var mu sync.Mutex
		g := new(errgroup.Group)
		for _, listing := range listings[start:end] {
			g.Go(func() error {
				err := i.indexOne(ctx, listing)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Failed++
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", listing.ID, err))
					i.log.IndexingError(listing.ID.String(), err)
					return nil
				}
				report.Indexed++
				return nil
			})
		}
		// Item failures are recorded above, never returned.
		_ = g.Wait()

		if end < len(listings) {
			if err := i.sleep(ctx, i.bulkBatchPause); err != nil {
				return report, err
			}
		}
	}

	if i.bus != nil {
		i.bus.Publish(ctx, events.BulkIndexCompleted{
			BaseEvent: events.NewBaseEvent(),
			Indexed:   report.Indexed,
			Failed:    report.Failed,
		})
	}

	i.log.Info("bulk index finished", "total", report.Total, "indexed", report.Indexed, "failed", report.Failed)
	return report, nil
}

func (i *Indexer) indexOne(ctx context.Context, listing repository.Listing) error {
	return i.index(ctx, listing, "")
}

func (i *Indexer) index(ctx context.Context, listing repository.Listing, contentOverride string) error {
	if i.embedder == nil {
		return apperr.Unavailable("embedding model is not configured")
	}
	content := contentOverride
	if content == "" {
		content = BuildContent(listing)
	}
	vector, err := i.embedder.Embed(ctx, content)
	if err != nil {
		return err
	}
	return i.repo.UpsertEmbedding(ctx, listing.ID, vector, content, buildMetadata(listing))
}

// BuildContent assembles the text that represents a listing in the vector
// space: title, description, provider business name and bio, category name
// and description, joined with single spaces. Empty fields are skipped and
// HTML from rich-text descriptions is stripped first.
func BuildContent(listing repository.Listing) string {
	parts := make([]string, 0, 6)
	for _, field := range []string{
		listing.Title,
		listing.Description,
		listing.ProviderBusiness,
		listing.ProviderBio,
		listing.CategoryName,
		listing.CategoryDescription,
	} {
		if cleaned := strings.TrimSpace(sanitize.Text(field)); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " ")
}

func buildMetadata(listing repository.Listing) map[string]any {
	meta := map[string]any{
		"provider_id": listing.ProviderID.String(),
		"category":    listing.CategoryName,
		"price":       listing.Price,
	}
	if listing.Location != "" {
		meta["location"] = listing.Location
	}
	if len(listing.Tags) > 0 {
		meta["tags"] = listing.Tags
	}
	return meta
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
