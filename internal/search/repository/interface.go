package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Listing is the indexable unit: a provider's service offer, joined with the
// provider and category text that feeds the embedding content.
type Listing struct {
	ID                  uuid.UUID
	ProviderID          uuid.UUID
	Title               string
	Description         string
	ProviderBusiness    string
	ProviderBio         string
	CategoryName        string
	CategoryDescription string
	Location            string
	Price               float64
	Tags                []string
	CreatedAt           time.Time
}

// MatchQuery carries the parameters for a vector similarity search.
type MatchQuery struct {
	Embedding  []float32
	Threshold  float64
	Limit      int
	CategoryID *uuid.UUID
}

// MatchRow is one similarity hit from the vector index.
type MatchRow struct {
	Listing
	Similarity float64
}

// Repository defines search data access.
type Repository interface {
	// GetListing fetches one active listing for indexing.
	GetListing(ctx context.Context, id uuid.UUID) (Listing, error)

	// ListIndexable returns active listings not yet indexed, oldest first.
	ListIndexable(ctx context.Context) ([]Listing, error)

	// UpsertEmbedding writes the listing's vector, replacing any previous one,
	// and stamps the listing as indexed.
	UpsertEmbedding(ctx context.Context, listingID uuid.UUID, embedding []float32, content string, metadata map[string]any) error

	// MatchListings runs a similarity search against the vector index.
	MatchListings(ctx context.Context, q MatchQuery) ([]MatchRow, error)

	// KeywordSearch is the fallback path when no embedding is available.
	// Keywords are ORed against title and description.
	KeywordSearch(ctx context.Context, keywords []string, limit int, categoryID *uuid.UUID) ([]MatchRow, error)
}
