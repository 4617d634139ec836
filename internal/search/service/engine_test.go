package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"marketplace_backend/internal/search/repository"
	"marketplace_backend/internal/search/transport"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

func newTestEngine(embedder Embedder, repo repository.Repository, opts ...EngineOption) *Engine {
	return NewEngine(embedder, repo, logger.New("test"), opts...)
}

func TestSearchAppliesDefaults(t *testing.T) {
	repo := &fakeSearchRepo{}
	engine := newTestEngine(&fakeEmbedder{}, repo)

	_, err := engine.Search(context.Background(), transport.SearchRequest{Query: "fix leaking sink"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastMatch.Limit != 10 {
		t.Fatalf("expected default limit 10, got %d", repo.lastMatch.Limit)
	}
	if repo.lastMatch.Threshold != 0.7 {
		t.Fatalf("expected default threshold 0.7, got %.2f", repo.lastMatch.Threshold)
	}
}

func TestSearchPassesExplicitParameters(t *testing.T) {
	repo := &fakeSearchRepo{}
	engine := newTestEngine(&fakeEmbedder{}, repo)

	categoryID := uuid.New()
	_, err := engine.Search(context.Background(), transport.SearchRequest{
		Query:      "deep clean apartment",
		Limit:      25,
		Threshold:  0.55,
		CategoryID: categoryID.String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastMatch.Limit != 25 || repo.lastMatch.Threshold != 0.55 {
		t.Fatalf("expected explicit limit and threshold, got %+v", repo.lastMatch)
	}
	if repo.lastMatch.CategoryID == nil || *repo.lastMatch.CategoryID != categoryID {
		t.Fatal("expected category filter passed through")
	}
}

func TestSearchFallsBackToKeywords(t *testing.T) {
	embedder := &fakeEmbedder{fail: map[string]error{"": errors.New("model down")}}
	repo := &fakeSearchRepo{}
	engine := newTestEngine(embedder, repo)

	resp, err := engine.Search(context.Background(), transport.SearchRequest{Query: "emergency plumber for burst pipe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Fallback {
		t.Fatal("expected fallback flag set")
	}
	if len(repo.keywords) != 1 {
		t.Fatalf("expected one keyword search, got %d", len(repo.keywords))
	}
	want := []string{"emergency", "plumber", "burst", "pipe"}
	if !reflect.DeepEqual(repo.keywords[0], want) {
		t.Fatalf("expected keywords %v, got %v", want, repo.keywords[0])
	}
}

func TestSearchWithoutEmbedderUsesKeywords(t *testing.T) {
	repo := &fakeSearchRepo{}
	engine := newTestEngine(nil, repo)

	resp, err := engine.Search(context.Background(), transport.SearchRequest{Query: "mount television"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Fallback {
		t.Fatal("expected fallback when no embedder is configured")
	}
}

func TestSearchRejectsBadCategoryID(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{}, &fakeSearchRepo{})

	_, err := engine.Search(context.Background(), transport.SearchRequest{Query: "anything", CategoryID: "not-a-uuid"})
	if err == nil {
		t.Fatal("expected an error for a malformed category id")
	}
}

func TestSearchEmptyQueryReturnsNothing(t *testing.T) {
	repo := &fakeSearchRepo{}
	engine := newTestEngine(&fakeEmbedder{}, repo)

	resp, err := engine.Search(context.Background(), transport.SearchRequest{Query: "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 0 || len(resp.Items) != 0 {
		t.Fatalf("expected empty response, got %+v", resp)
	}
}

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		query string
		want  []string
	}{
		{"I need someone to fix my sink", []string{"fix", "sink"}},
		{"THE Plumber, near me!", []string{"plumber"}},
		{"a an to", nil},
		{"water-heater repair 24h", []string{"water", "heater", "repair", "24h"}},
	}

	for _, tc := range cases {
		got := ExtractKeywords(tc.query)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("query %q: expected %v, got %v", tc.query, tc.want, got)
		}
	}
}
