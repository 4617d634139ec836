// Package transport defines the wire types for the matching endpoint.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// Location is the search origin and radius for a match request.
type Location struct {
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lng      float64 `json:"lng" validate:"min=-180,max=180"`
	RadiusKm float64 `json:"radius" validate:"required,min=1,max=50"`
}

// BudgetRange is an optional price band. Either bound may be omitted.
type BudgetRange struct {
	Min *float64 `json:"min,omitempty" validate:"omitempty,min=0"`
	Max *float64 `json:"max,omitempty" validate:"omitempty,gt=0"`
}

// TimeWindow is an optional preferred service window.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end" validate:"gtfield=Start"`
}

// MatchRequest is the body of POST /api/v1/matching.
type MatchRequest struct {
	CategoryID    uuid.UUID    `json:"categoryId" validate:"required"`
	Location      Location     `json:"location" validate:"required"`
	Budget        *BudgetRange `json:"budget,omitempty"`
	Urgency       string       `json:"urgency,omitempty" validate:"omitempty,oneof=immediate today this_week flexible"`
	Requirements  []string     `json:"requirements,omitempty" validate:"omitempty,max=20,dive,max=200"`
	PreferredTime *TimeWindow  `json:"preferredTime,omitempty"`
}

// BudgetMax returns the upper budget bound, or nil when no budget was given.
func (r MatchRequest) BudgetMax() *float64 {
	if r.Budget == nil {
		return nil
	}
	return r.Budget.Max
}

// BudgetMin returns the lower budget bound, or nil when no budget was given.
func (r MatchRequest) BudgetMin() *float64 {
	if r.Budget == nil {
		return nil
	}
	return r.Budget.Min
}

// ScoreFactors is the per-factor breakdown returned with each match.
type ScoreFactors struct {
	Distance     float64 `json:"distance"`
	Rating       float64 `json:"rating"`
	Availability float64 `json:"availability"`
	Price        float64 `json:"price"`
	Experience   float64 `json:"experience"`
}

// MatchedService is a service offered by a matched provider.
type MatchedService struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Price    float64   `json:"price"`
	Category string    `json:"category"`
}

// MatchedProvider is the enriched provider payload inside a match.
type MatchedProvider struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	BusinessName        string           `json:"business_name"`
	Bio                 *string          `json:"bio,omitempty"`
	Phone               *string          `json:"phone,omitempty"`
	RatingAverage       float64          `json:"rating_average"`
	RatingCount         int              `json:"rating_count"`
	ResponseTimeMinutes int              `json:"response_time_minutes"`
	DistanceKm          float64          `json:"distance_km"`
	Services            []MatchedService `json:"services"`
}

// Match is a single ranked result.
type Match struct {
	Provider         MatchedProvider `json:"provider"`
	Score            float64         `json:"score"`
	Factors          ScoreFactors    `json:"factors"`
	EstimatedArrival time.Time       `json:"estimated_arrival"`
	Confidence       string          `json:"confidence"`
}

// SearchCriteria echoes the effective request parameters back to the caller.
type SearchCriteria struct {
	CategoryID uuid.UUID `json:"categoryId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RadiusKm   float64   `json:"radius"`
	Urgency    string    `json:"urgency"`
	BudgetMin  *float64  `json:"budgetMin,omitempty"`
	BudgetMax  *float64  `json:"budgetMax,omitempty"`
}

// MatchResponse is the body of a successful match call. Message is set only
// when no providers were found, with a hint to widen the radius.
type MatchResponse struct {
	Matches        []Match        `json:"matches"`
	TotalFound     int            `json:"total_found"`
	SearchCriteria SearchCriteria `json:"search_criteria"`
	Timestamp      time.Time      `json:"timestamp"`
	Message        string         `json:"message,omitempty"`
}
