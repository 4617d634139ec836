// Package transport defines the wire types for the provider directory.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ListProvidersRequest is the query string form of GET /api/v1/providers.
type ListProvidersRequest struct {
	CategoryID string `form:"categoryId" validate:"omitempty,uuid"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int    `form:"offset" validate:"omitempty,min=0"`
}

// ProviderService is one service offered by a provider.
type ProviderService struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Price    float64   `json:"price"`
	Category string    `json:"category"`
}

// Provider is the public provider profile.
type Provider struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	BusinessName        string            `json:"business_name"`
	Bio                 *string           `json:"bio,omitempty"`
	Phone               *string           `json:"phone,omitempty"`
	RatingAverage       float64           `json:"rating_average"`
	RatingCount         int               `json:"rating_count"`
	ResponseTimeMinutes int               `json:"response_time_minutes"`
	Services            []ProviderService `json:"services"`
	CreatedAt           time.Time         `json:"created_at"`
}

// ListProvidersResponse is the body of a provider listing call.
type ListProvidersResponse struct {
	Providers []Provider `json:"providers"`
	Total     int        `json:"total"`
}
