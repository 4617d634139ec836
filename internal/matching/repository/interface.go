package repository

import (
	"context"

	"github.com/google/uuid"
)

// CandidateQuery carries the parameters for the radius search.
type CandidateQuery struct {
	CategoryID uuid.UUID
	Lat        float64
	Lng        float64
	RadiusKm   float64
}

// Candidate is one provider row from the radius search, with the first
// listed service price for the requested category.
type Candidate struct {
	ProviderID          uuid.UUID
	DistanceKm          float64
	RatingAverage       float64
	RatingCount         int
	ResponseTimeMinutes int
	Price               *float64
}

// ProviderService is a service row used for match enrichment.
type ProviderService struct {
	ID           uuid.UUID
	Title        string
	Price        float64
	CategoryName string
}

// ProviderDetail is the enrichment payload for a matched provider.
type ProviderDetail struct {
	ID                  uuid.UUID
	Name                string
	BusinessName        string
	Bio                 *string
	Phone               *string
	RatingAverage       float64
	RatingCount         int
	ResponseTimeMinutes int
	Services            []ProviderService
}

// Repository defines matching data access.
type Repository interface {
	// CategoryExists reports whether an active category with the given id exists.
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)

	// FindCandidates returns active providers within the radius that offer at
	// least one active service in the category, nearest first.
	FindCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)

	// GetProviderDetails fetches enrichment data for the given provider ids.
	// Missing ids are skipped, not errored.
	GetProviderDetails(ctx context.Context, ids []uuid.UUID) ([]ProviderDetail, error)
}
