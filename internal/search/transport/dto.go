// Package transport defines the wire types for semantic search and indexing.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// SearchRequest is the query string form of GET /api/v1/search.
type SearchRequest struct {
	Query      string  `form:"q" validate:"required,min=2,max=200"`
	Limit      int     `form:"limit" validate:"omitempty,min=1,max=50"`
	Threshold  float64 `form:"threshold" validate:"omitempty,gt=0,max=1"`
	CategoryID string  `form:"categoryId" validate:"omitempty,uuid"`
}

// SearchResultItem is one listing hit.
type SearchResultItem struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ProviderID  uuid.UUID `json:"providerId"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	Similarity  float64   `json:"similarity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SearchResponse is the body of a search call. Fallback is true when the
// results came from keyword matching instead of the vector index.
type SearchResponse struct {
	Items    []SearchResultItem `json:"items"`
	Total    int                `json:"total"`
	Fallback bool               `json:"fallback,omitempty"`
}

// EnqueuedResponse acknowledges an indexing request accepted onto the queue.
type EnqueuedResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// IndexListingRequest optionally overrides the text that gets embedded for a
// listing. An empty body means the composite text is built from stored fields.
type IndexListingRequest struct {
	Content string `json:"content" validate:"omitempty,max=8000"`
}

// IndexListingResponse reports a single listing index operation.
type IndexListingResponse struct {
	ListingID uuid.UUID `json:"listingId"`
	Indexed   bool      `json:"indexed"`
}

// BulkIndexReport summarizes a bulk indexing run.
type BulkIndexReport struct {
	Total   int      `json:"total"`
	Indexed int      `json:"indexed"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
