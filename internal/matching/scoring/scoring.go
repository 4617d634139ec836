// Package scoring implements the provider ranking model. It is pure
// computation over candidate rows so it can be exercised without a database.
package scoring

import (
	"math"
	"sort"
	"time"

	"marketplace_backend/internal/matching/transport"

	"github.com/google/uuid"
)

const (
	// scoreVersion tracks the ranking model for analytics and debugging.
	// Bump this when changing factor weights or formulas.
	ScoreVersion = "2026-v1"

	// Maximum contribution of each factor. The five maxima sum to 100.
	maxDistancePoints     = 25.0
	maxRatingPoints       = 25.0
	maxAvailabilityPoints = 20.0
	maxPricePoints        = 15.0
	maxExperiencePoints   = 15.0

	// Availability tiers keyed on typical response time.
	fastResponseMinutes        = 60
	moderateResponseMinutes    = 180
	fastAvailabilityPoints     = 20.0
	moderateAvailabilityPoints = 15.0
	slowAvailabilityPoints     = 10.0

	// Awarded when the request carries no budget. Providers are neither
	// rewarded nor punished on price when the customer did not state one.
	noBudgetPricePoints = 10.0

	// Experience saturates at this many ratings.
	experienceSaturationCount = 100.0

	ratingScaleMax = 5.0

	// Travel speed heuristic for arrival estimates.
	travelMinutesPerKm = 3.0

	// Confidence tier floors on the total score.
	highConfidenceFloor   = 80.0
	mediumConfidenceFloor = 60.0

	// MaxResults caps how many ranked matches a single request returns.
	MaxResults = 10
)

// Confidence labels for a total score.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Urgency levels accepted by the ranking model.
const (
	UrgencyImmediate = "immediate"
	UrgencyToday     = "today"
	UrgencyThisWeek  = "this_week"
	UrgencyFlexible  = "flexible"
)

// urgencyFactors compress or stretch the arrival estimate. Immediate jobs
// assume the provider drops other work; flexible week-out jobs pad it.
var urgencyFactors = map[string]float64{
	UrgencyImmediate: 0.5,
	UrgencyToday:     0.7,
	UrgencyThisWeek:  1.2,
	UrgencyFlexible:  1.0,
}

// Candidate is a provider row eligible for ranking, as returned by the
// radius query. Price is the provider's first listed service price for the
// requested category; nil when the provider has no priced service.
type Candidate struct {
	ProviderID          uuid.UUID
	DistanceKm          float64
	RatingAverage       float64
	RatingCount         int
	ResponseTimeMinutes int
	Price               *float64
}

// Input carries the request parameters the model needs.
type Input struct {
	RadiusKm  float64
	BudgetMax *float64
	Urgency   string
	Now       time.Time
}

// Match is a scored candidate.
type Match struct {
	ProviderID       uuid.UUID
	Score            float64
	Factors          transport.ScoreFactors
	EstimatedArrival time.Time
	Confidence       string
}

// NormalizeUrgency maps an empty or unknown urgency to the flexible default.
func NormalizeUrgency(urgency string) string {
	if _, ok := urgencyFactors[urgency]; ok {
		return urgency
	}
	return UrgencyFlexible
}

// Score computes the total score and factor breakdown for one candidate.
func Score(c Candidate, in Input) Match {
	factors := transport.ScoreFactors{
		Distance:     round1(scoreDistance(c.DistanceKm, in.RadiusKm)),
		Rating:       round1(scoreRating(c.RatingAverage)),
		Availability: round1(scoreAvailability(c.ResponseTimeMinutes)),
		Price:        round1(scorePrice(c.Price, in.BudgetMax)),
		Experience:   round1(scoreExperience(c.RatingCount)),
	}

	total := round1(factors.Distance + factors.Rating + factors.Availability + factors.Price + factors.Experience)

	return Match{
		ProviderID:       c.ProviderID,
		Score:            total,
		Factors:          factors,
		EstimatedArrival: estimateArrival(c, in),
		Confidence:       ConfidenceFor(total),
	}
}

// Rank scores every candidate, orders them best first, and truncates to
// MaxResults. The sort is stable so equal scores keep the query order.
func Rank(candidates []Candidate, in Input) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Score(c, in))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	return matches
}

// ConfidenceFor buckets a total score into a confidence label.
func ConfidenceFor(total float64) string {
	switch {
	case total > highConfidenceFloor:
		return ConfidenceHigh
	case total > mediumConfidenceFloor:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// scoreDistance awards the full 25 at the origin and decays linearly to 0 at
// the radius edge. Candidates beyond the radius never reach this code, but
// the clamp keeps a stale row from producing a negative factor.
func scoreDistance(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 {
		return 0
	}
	return clampFloat(maxDistancePoints-(distanceKm/radiusKm)*maxDistancePoints, 0, maxDistancePoints)
}

// scoreRating maps the 0-5 average onto 0-25 proportionally.
func scoreRating(average float64) float64 {
	return clampFloat(average/ratingScaleMax*maxRatingPoints, 0, maxRatingPoints)
}

// scoreAvailability tiers on typical response time: under an hour, under
// three hours, slower.
func scoreAvailability(responseMinutes int) float64 {
	switch {
	case responseMinutes < fastResponseMinutes:
		return fastAvailabilityPoints
	case responseMinutes < moderateResponseMinutes:
		return moderateAvailabilityPoints
	default:
		return slowAvailabilityPoints
	}
}

// scorePrice rewards prices well under the stated budget ceiling. A provider
// over budget scores 0 but is not excluded from the results.
func scorePrice(price *float64, budgetMax *float64) float64 {
	if budgetMax == nil || *budgetMax <= 0 {
		return noBudgetPricePoints
	}
	if price == nil {
		return noBudgetPricePoints
	}
	if *price > *budgetMax {
		return 0
	}
	return clampFloat(maxPricePoints-(*price / *budgetMax)*maxPricePoints, 0, maxPricePoints)
}

// scoreExperience awards 0.15 per rating, saturating at 100 ratings.
func scoreExperience(ratingCount int) float64 {
	return clampFloat(float64(ratingCount)/experienceSaturationCount*maxExperiencePoints, 0, maxExperiencePoints)
}

// estimateArrival adds the provider's response time plus a 3 min/km travel
// heuristic, then scales by the urgency factor.
func estimateArrival(c Candidate, in Input) time.Time {
	factor := urgencyFactors[NormalizeUrgency(in.Urgency)]
	minutes := (float64(c.ResponseTimeMinutes) + c.DistanceKm*travelMinutesPerKm) * factor
	return in.Now.Add(time.Duration(minutes * float64(time.Minute)))
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
