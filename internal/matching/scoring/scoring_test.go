package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func floatPtr(v float64) *float64 { return &v }

func baseInput() Input {
	return Input{
		RadiusKm: 10,
		Urgency:  UrgencyFlexible,
		Now:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestScoreDistanceDecaysLinearly(t *testing.T) {
	cases := []struct {
		distanceKm float64
		want       float64
	}{
		{0, 25},
		{1, 22.5},
		{5, 12.5},
		{10, 0},
	}

	for _, tc := range cases {
		c := Candidate{ProviderID: uuid.New(), DistanceKm: tc.distanceKm, ResponseTimeMinutes: 300}
		got := Score(c, baseInput()).Factors.Distance
		if got != tc.want {
			t.Errorf("distance %.1f km: expected %.1f points, got %.1f", tc.distanceKm, tc.want, got)
		}
	}
}

func TestScoreRatingProportional(t *testing.T) {
	c := Candidate{ProviderID: uuid.New(), RatingAverage: 4.0, ResponseTimeMinutes: 300}
	got := Score(c, baseInput()).Factors.Rating
	if got != 20 {
		t.Fatalf("expected 20 rating points for a 4.0 average, got %.1f", got)
	}

	c.RatingAverage = 5.0
	if got := Score(c, baseInput()).Factors.Rating; got != 25 {
		t.Fatalf("expected 25 rating points for a 5.0 average, got %.1f", got)
	}
}

func TestScoreAvailabilityTiers(t *testing.T) {
	cases := []struct {
		responseMinutes int
		want            float64
	}{
		{30, 20},
		{59, 20},
		{60, 15},
		{179, 15},
		{180, 10},
		{600, 10},
	}

	for _, tc := range cases {
		c := Candidate{ProviderID: uuid.New(), ResponseTimeMinutes: tc.responseMinutes}
		got := Score(c, baseInput()).Factors.Availability
		if got != tc.want {
			t.Errorf("response %d min: expected %.0f points, got %.1f", tc.responseMinutes, tc.want, got)
		}
	}
}

func TestScorePrice(t *testing.T) {
	in := baseInput()
	in.BudgetMax = floatPtr(100)

	c := Candidate{ProviderID: uuid.New(), ResponseTimeMinutes: 300, Price: floatPtr(50)}
	if got := Score(c, in).Factors.Price; got != 7.5 {
		t.Fatalf("expected 7.5 price points at half budget, got %.1f", got)
	}

	c.Price = floatPtr(150)
	if got := Score(c, in).Factors.Price; got != 0 {
		t.Fatalf("expected 0 price points over budget, got %.1f", got)
	}

	c.Price = floatPtr(0)
	if got := Score(c, in).Factors.Price; got != 15 {
		t.Fatalf("expected full price points at zero price, got %.1f", got)
	}
}

func TestScorePriceWithoutBudget(t *testing.T) {
	c := Candidate{ProviderID: uuid.New(), ResponseTimeMinutes: 300, Price: floatPtr(500)}
	if got := Score(c, baseInput()).Factors.Price; got != 10 {
		t.Fatalf("expected flat 10 price points without a budget, got %.1f", got)
	}
}

func TestScoreExperienceSaturates(t *testing.T) {
	c := Candidate{ProviderID: uuid.New(), RatingCount: 50, ResponseTimeMinutes: 300}
	if got := Score(c, baseInput()).Factors.Experience; got != 7.5 {
		t.Fatalf("expected 7.5 experience points at 50 ratings, got %.1f", got)
	}

	c.RatingCount = 250
	if got := Score(c, baseInput()).Factors.Experience; got != 15 {
		t.Fatalf("expected experience to cap at 15, got %.1f", got)
	}
}

func TestConfidenceBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{81, ConfidenceHigh},
		{80, ConfidenceMedium},
		{61, ConfidenceMedium},
		{60, ConfidenceLow},
		{0, ConfidenceLow},
	}

	for _, tc := range cases {
		if got := ConfidenceFor(tc.total); got != tc.want {
			t.Errorf("total %.0f: expected %s confidence, got %s", tc.total, tc.want, got)
		}
	}
}

func TestEstimatedArrivalScalesWithUrgency(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c := Candidate{ProviderID: uuid.New(), DistanceKm: 10, ResponseTimeMinutes: 30}

	cases := []struct {
		urgency     string
		wantMinutes float64
	}{
		{UrgencyImmediate, 30},
		{UrgencyToday, 42},
		{UrgencyThisWeek, 72},
		{UrgencyFlexible, 60},
	}

	for _, tc := range cases {
		in := Input{RadiusKm: 20, Urgency: tc.urgency, Now: now}
		got := Score(c, in).EstimatedArrival
		want := now.Add(time.Duration(tc.wantMinutes * float64(time.Minute)))
		if !got.Equal(want) {
			t.Errorf("urgency %s: expected arrival %s, got %s", tc.urgency, want, got)
		}
	}
}

func TestNormalizeUrgency(t *testing.T) {
	if got := NormalizeUrgency(""); got != UrgencyFlexible {
		t.Fatalf("expected empty urgency to default to flexible, got %s", got)
	}
	if got := NormalizeUrgency("tomorrow"); got != UrgencyFlexible {
		t.Fatalf("expected unknown urgency to default to flexible, got %s", got)
	}
	if got := NormalizeUrgency(UrgencyToday); got != UrgencyToday {
		t.Fatalf("expected known urgency to pass through, got %s", got)
	}
}

func TestRankOrdersAndTruncates(t *testing.T) {
	in := baseInput()

	var candidates []Candidate
	for i := 0; i < 15; i++ {
		candidates = append(candidates, Candidate{
			ProviderID:          uuid.New(),
			DistanceKm:          float64(i) * 0.5,
			RatingAverage:       5 - float64(i)*0.2,
			RatingCount:         100,
			ResponseTimeMinutes: 30,
		})
	}

	ranked := Rank(candidates, in)
	if len(ranked) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("results out of order at index %d: %.1f > %.1f", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestRankIsStableForEqualScores(t *testing.T) {
	in := baseInput()

	first := uuid.New()
	second := uuid.New()
	same := Candidate{DistanceKm: 2, RatingAverage: 4, RatingCount: 40, ResponseTimeMinutes: 45}

	a := same
	a.ProviderID = first
	b := same
	b.ProviderID = second

	ranked := Rank([]Candidate{a, b}, in)
	if ranked[0].ProviderID != first || ranked[1].ProviderID != second {
		t.Fatal("expected equal-score candidates to keep input order")
	}
}

func TestScoreTotalIsSumOfFactors(t *testing.T) {
	in := baseInput()
	in.BudgetMax = floatPtr(200)

	c := Candidate{
		ProviderID:          uuid.New(),
		DistanceKm:          3.3,
		RatingAverage:       4.7,
		RatingCount:         82,
		ResponseTimeMinutes: 95,
		Price:               floatPtr(120),
	}

	m := Score(c, in)
	sum := m.Factors.Distance + m.Factors.Rating + m.Factors.Availability + m.Factors.Price + m.Factors.Experience
	if math.Abs(m.Score-sum) > 0.05 {
		t.Fatalf("total %.2f does not match factor sum %.2f", m.Score, sum)
	}
	if m.Score < 0 || m.Score > 100 {
		t.Fatalf("total %.2f outside 0-100", m.Score)
	}
}
