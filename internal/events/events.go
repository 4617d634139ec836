// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"marketplace_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Matching Domain Events
// =============================================================================

// MatchCompleted is published after a match request is scored and ranked.
// The analytics module records it; failures there never reach the caller.
type MatchCompleted struct {
	BaseEvent
	UserID     uuid.UUID `json:"userId"`
	CategoryID uuid.UUID `json:"categoryId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RadiusKm   float64   `json:"radiusKm"`
	Urgency    string    `json:"urgency"`
	BudgetMin  *float64  `json:"budgetMin,omitempty"`
	BudgetMax  *float64  `json:"budgetMax,omitempty"`
	MatchCount int       `json:"matchCount"`
}

func (e MatchCompleted) EventName() string { return "matching.match.completed" }

// =============================================================================
// Search Domain Events
// =============================================================================

// ListingIndexed is published when a listing embedding is written to the index.
type ListingIndexed struct {
	BaseEvent
	ListingID uuid.UUID `json:"listingId"`
}

func (e ListingIndexed) EventName() string { return "search.listing.indexed" }

// BulkIndexCompleted is published when a bulk re-index run finishes.
type BulkIndexCompleted struct {
	BaseEvent
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

func (e BulkIndexCompleted) EventName() string { return "search.bulk_index.completed" }
