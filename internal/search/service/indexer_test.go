package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"marketplace_backend/internal/search/repository"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.fail != nil {
		for needle, err := range f.fail {
			if strings.Contains(text, needle) {
				return nil, err
			}
		}
	}
	// Encode the input length so tests can verify positional alignment.
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSearchRepo struct {
	mu           sync.Mutex
	listings     []repository.Listing
	listErr      error
	getErr       error
	upsertErr    map[uuid.UUID]error
	upserted     []uuid.UUID
	lastMetadata map[string]any
	matchRows    []repository.MatchRow
	matchErr     error
	lastMatch    repository.MatchQuery
	keywords     [][]string
	keywordErr   error
}

func (f *fakeSearchRepo) GetListing(_ context.Context, id uuid.UUID) (repository.Listing, error) {
	if f.getErr != nil {
		return repository.Listing{}, f.getErr
	}
	for _, l := range f.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return repository.Listing{}, errors.New("not found")
}

func (f *fakeSearchRepo) ListIndexable(_ context.Context) ([]repository.Listing, error) {
	return f.listings, f.listErr
}

func (f *fakeSearchRepo) UpsertEmbedding(_ context.Context, listingID uuid.UUID, _ []float32, _ string, metadata map[string]any) error {
	if err := f.upsertErr[listingID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, listingID)
	f.lastMetadata = metadata
	return nil
}

func (f *fakeSearchRepo) MatchListings(_ context.Context, q repository.MatchQuery) ([]repository.MatchRow, error) {
	f.lastMatch = q
	return f.matchRows, f.matchErr
}

func (f *fakeSearchRepo) KeywordSearch(_ context.Context, keywords []string, _ int, _ *uuid.UUID) ([]repository.MatchRow, error) {
	f.keywords = append(f.keywords, keywords)
	return f.matchRows, f.keywordErr
}

func testListing(title string) repository.Listing {
	return repository.Listing{
		ID:                  uuid.New(),
		ProviderID:          uuid.New(),
		Title:               title,
		Description:         "Reliable and fast",
		ProviderBusiness:    "Hudson Home Services",
		ProviderBio:         "Licensed plumber since 2010",
		CategoryName:        "Plumbing",
		CategoryDescription: "Pipes, drains and water heaters",
		Location:            "Brooklyn",
		Price:               95,
		CreatedAt:           time.Now(),
	}
}

func newTestIndexer(embedder Embedder, repo repository.Repository) *Indexer {
	idx := NewIndexer(embedder, repo, nil, logger.New("test"), WithBulkBatching(5, 0))
	idx.sleep = func(context.Context, time.Duration) error { return nil }
	return idx
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	embedder := &fakeEmbedder{}
	idx := newTestIndexer(embedder, &fakeSearchRepo{})

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}

	results, err := idx.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 25 {
		t.Fatalf("expected 25 results, got %d", len(results))
	}
	for i, vec := range results {
		if len(vec) != 1 || vec[0] != float32(i+1) {
			t.Fatalf("result %d out of position: got %v", i, vec)
		}
	}
	if embedder.callCount() != 25 {
		t.Fatalf("expected 25 model calls, got %d", embedder.callCount())
	}
}

func TestEmbedBatchFailsWhole(t *testing.T) {
	embedder := &fakeEmbedder{fail: map[string]error{"boom": errors.New("rate limited")}}
	idx := newTestIndexer(embedder, &fakeSearchRepo{})

	_, err := idx.EmbedBatch(context.Background(), []string{"fine", "boom", "also fine"})
	if err == nil {
		t.Fatal("expected the batch to fail when one text fails")
	}
}

func TestBuildContentJoinsFieldsWithSpaces(t *testing.T) {
	listing := testListing("Emergency pipe repair")
	listing.Description = "<p>Burst pipes fixed <b>fast</b></p>"

	content := BuildContent(listing)

	want := "Emergency pipe repair Burst pipes fixed fast Hudson Home Services " +
		"Licensed plumber since 2010 Plumbing Pipes, drains and water heaters"
	if content != want {
		t.Fatalf("unexpected content:\n got %q\nwant %q", content, want)
	}
}

func TestBuildContentSkipsEmptyFields(t *testing.T) {
	listing := testListing("Emergency pipe repair")
	listing.Description = ""
	listing.ProviderBusiness = ""
	listing.CategoryDescription = "   "

	content := BuildContent(listing)

	want := "Emergency pipe repair Licensed plumber since 2010 Plumbing"
	if content != want {
		t.Fatalf("unexpected content:\n got %q\nwant %q", content, want)
	}
}

func TestBulkIndexIsolatesFailures(t *testing.T) {
	good1 := testListing("Drain cleaning")
	bad := testListing("Water heater install")
	good2 := testListing("Leak detection")

	repo := &fakeSearchRepo{
		listings:  []repository.Listing{good1, bad, good2},
		upsertErr: map[uuid.UUID]error{bad.ID: errors.New("write failed")},
	}
	idx := newTestIndexer(&fakeEmbedder{}, repo)

	report, err := idx.BulkIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 3 || report.Indexed != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], bad.ID.String()) {
		t.Fatalf("expected the failed listing in the error list, got %v", report.Errors)
	}
	if len(repo.upserted) != 2 {
		t.Fatalf("expected 2 successful upserts, got %d", len(repo.upserted))
	}
}

func TestBulkIndexPausesBetweenBatches(t *testing.T) {
	var listings []repository.Listing
	for i := 0; i < 12; i++ {
		listings = append(listings, testListing(fmt.Sprintf("Listing %d", i)))
	}

	idx := NewIndexer(&fakeEmbedder{}, &fakeSearchRepo{listings: listings}, nil, logger.New("test"), WithBulkBatching(5, time.Second))
	var pauses int
	idx.sleep = func(context.Context, time.Duration) error {
		pauses++
		return nil
	}

	report, err := idx.BulkIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Indexed != 12 {
		t.Fatalf("expected 12 indexed, got %d", report.Indexed)
	}
	// 12 listings in batches of 5 pauses twice, not after the last batch.
	if pauses != 2 {
		t.Fatalf("expected 2 pauses, got %d", pauses)
	}
}

// barrierEmbedder only returns once the expected number of calls is in
// flight at the same time, so sequential indexing would deadlock the test.
type barrierEmbedder struct {
	ready *sync.WaitGroup
}

func (b *barrierEmbedder) Embed(context.Context, string) ([]float32, error) {
	b.ready.Done()
	b.ready.Wait()
	return []float32{1}, nil
}

func TestBulkIndexRunsBatchItemsConcurrently(t *testing.T) {
	var listings []repository.Listing
	for i := 0; i < 5; i++ {
		listings = append(listings, testListing(fmt.Sprintf("Listing %d", i)))
	}

	var ready sync.WaitGroup
	ready.Add(5)
	idx := newTestIndexer(&barrierEmbedder{ready: &ready}, &fakeSearchRepo{listings: listings})

	report, err := idx.BulkIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Indexed != 5 {
		t.Fatalf("expected all 5 indexed, got %+v", report)
	}
}

func TestIndexListingEmbedsCompositeContent(t *testing.T) {
	listing := testListing("Gutter cleaning")
	embedder := &fakeEmbedder{}
	repo := &fakeSearchRepo{listings: []repository.Listing{listing}}
	idx := newTestIndexer(embedder, repo)

	if err := idx.IndexListing(context.Background(), listing.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.upserted) != 1 || repo.upserted[0] != listing.ID {
		t.Fatalf("expected the listing upserted, got %v", repo.upserted)
	}
	if embedder.callCount() != 1 || !strings.HasPrefix(embedder.calls[0], "Gutter cleaning Reliable and fast") {
		t.Fatalf("expected composite content embedded, got %v", embedder.calls)
	}
	if repo.lastMetadata["category"] != "Plumbing" || repo.lastMetadata["provider_id"] != listing.ProviderID.String() {
		t.Fatalf("unexpected metadata: %v", repo.lastMetadata)
	}
}

func TestIndexListingContentOverride(t *testing.T) {
	listing := testListing("Gutter cleaning")
	embedder := &fakeEmbedder{}
	repo := &fakeSearchRepo{listings: []repository.Listing{listing}}
	idx := newTestIndexer(embedder, repo)

	if err := idx.IndexListing(context.Background(), listing.ID, "hand written text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedder.callCount() != 1 || embedder.calls[0] != "hand written text" {
		t.Fatalf("expected the override embedded verbatim, got %v", embedder.calls)
	}
}
