package service

import (
	"context"
	"testing"
	"time"

	"marketplace_backend/internal/providers/repository"
	"marketplace_backend/internal/providers/transport"
	"marketplace_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	provider   repository.Provider
	getErr     error
	listed     []repository.Provider
	total      int
	lastFilter repository.ListFilter
}

func (f *fakeRepo) GetByID(_ context.Context, _ uuid.UUID) (repository.Provider, error) {
	return f.provider, f.getErr
}

func (f *fakeRepo) List(_ context.Context, filter repository.ListFilter) ([]repository.Provider, int, error) {
	f.lastFilter = filter
	return f.listed, f.total, nil
}

func strPtr(s string) *string { return &s }

func TestGetByIDNormalizesPhone(t *testing.T) {
	repo := &fakeRepo{provider: repository.Provider{
		ID:           uuid.New(),
		Name:         "Sam",
		BusinessName: "Sam's Repairs",
		Phone:        strPtr("(212) 555-0175"),
		CreatedAt:    time.Now(),
	}}
	svc := New(repo)

	got, err := svc.GetByID(context.Background(), repo.provider.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Phone == nil || *got.Phone != "+12125550175" {
		t.Fatalf("expected E.164 phone, got %v", got.Phone)
	}
}

func TestListAppliesDefaultLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	_, err := svc.List(context.Background(), transport.ListProvidersRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastFilter.Limit != 20 {
		t.Fatalf("expected default limit 20, got %d", repo.lastFilter.Limit)
	}
}

func TestListRejectsBadCategoryID(t *testing.T) {
	svc := New(&fakeRepo{})

	_, err := svc.List(context.Background(), transport.ListProvidersRequest{CategoryID: "nope"})
	if err == nil {
		t.Fatal("expected an error for a malformed category id")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
