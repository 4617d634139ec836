package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketplace_backend/internal/search/repository"
	"marketplace_backend/internal/search/service"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, 3), nil
}

type stubRepo struct {
	listing  repository.Listing
	upserted int
}

func (s *stubRepo) GetListing(_ context.Context, id uuid.UUID) (repository.Listing, error) {
	return s.listing, nil
}

func (s *stubRepo) ListIndexable(context.Context) ([]repository.Listing, error) {
	return nil, nil
}

func (s *stubRepo) UpsertEmbedding(context.Context, uuid.UUID, []float32, string, map[string]any) error {
	s.upserted++
	return nil
}

func (s *stubRepo) MatchListings(context.Context, repository.MatchQuery) ([]repository.MatchRow, error) {
	return nil, nil
}

func (s *stubRepo) KeywordSearch(context.Context, []string, int, *uuid.UUID) ([]repository.MatchRow, error) {
	return nil, nil
}

type fakeEnqueuer struct {
	reindexCalls int
	listingID    string
	content      string
}

func (f *fakeEnqueuer) EnqueueReindex(context.Context) (string, error) {
	f.reindexCalls++
	return "task-reindex", nil
}

func (f *fakeEnqueuer) EnqueueIndexListing(_ context.Context, listingID, content string) (string, error) {
	f.listingID = listingID
	f.content = content
	return "task-listing", nil
}

func newTestRouter(t *testing.T, repo repository.Repository, enqueuer Enqueuer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("test")
	indexer := service.NewIndexer(stubEmbedder{}, repo, nil, log)
	engine := service.NewEngine(stubEmbedder{}, repo, log)
	h := New(engine, indexer, enqueuer, validator.New())

	r := gin.New()
	h.RegisterSearchRoutes(r.Group("/search"))
	h.RegisterAdminRoutes(r.Group("/admin/search"))
	return r
}

func testListingRow() repository.Listing {
	return repository.Listing{
		ID:           uuid.New(),
		ProviderID:   uuid.New(),
		Title:        "Drain cleaning",
		CategoryName: "Plumbing",
		CreatedAt:    time.Now(),
	}
}

func TestIndexListingQueuedWhenEnqueuerConfigured(t *testing.T) {
	repo := &stubRepo{listing: testListingRow()}
	enqueuer := &fakeEnqueuer{}
	router := newTestRouter(t, repo, enqueuer)

	id := repo.listing.ID.String()
	req := httptest.NewRequest(http.MethodPut, "/admin/search/listings/"+id,
		strings.NewReader(`{"content":"hand written text"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if enqueuer.listingID != id || enqueuer.content != "hand written text" {
		t.Fatalf("expected the task enqueued with id and content, got %+v", enqueuer)
	}
	if repo.upserted != 0 {
		t.Fatalf("expected no inline indexing with a queue configured, got %d upserts", repo.upserted)
	}
}

func TestIndexListingInlineWithoutEnqueuer(t *testing.T) {
	repo := &stubRepo{listing: testListingRow()}
	router := newTestRouter(t, repo, nil)

	req := httptest.NewRequest(http.MethodPut, "/admin/search/listings/"+repo.listing.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.upserted != 1 {
		t.Fatalf("expected 1 inline upsert, got %d", repo.upserted)
	}
}

func TestIndexListingRejectsBadID(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	req := httptest.NewRequest(http.MethodPut, "/admin/search/listings/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestReindexQueuedWhenEnqueuerConfigured(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := newTestRouter(t, &stubRepo{}, enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/admin/search/reindex", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if enqueuer.reindexCalls != 1 {
		t.Fatalf("expected 1 reindex enqueue, got %d", enqueuer.reindexCalls)
	}
}

func TestReindexInlineWithoutEnqueuer(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/search/reindex", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
