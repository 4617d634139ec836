// Package service orchestrates provider matching: candidate lookup, scoring,
// enrichment, and analytics publication.
package service

import (
	"context"
	"time"

	"marketplace_backend/internal/events"
	"marketplace_backend/internal/matching/repository"
	"marketplace_backend/internal/matching/scoring"
	"marketplace_backend/internal/matching/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/phone"

	"github.com/google/uuid"
)

const noProvidersMessage = "No providers are currently available in your area. Try widening the search radius."

// Service runs match requests.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates a matching service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

// Match validates the request, scores eligible providers, and returns the
// ranked matches enriched with provider details. Candidates whose provider
// row disappeared between ranking and enrichment are dropped with a warning,
// never errored.
func (s *Service) Match(ctx context.Context, userID uuid.UUID, req transport.MatchRequest) (*transport.MatchResponse, error) {
	start := s.now()
	urgency := scoring.NormalizeUrgency(req.Urgency)

	exists, err := s.repo.CategoryExists(ctx, req.CategoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to verify category", err).WithOp("matching.Match")
	}
	if !exists {
		return nil, apperr.Validation("unknown service category")
	}

	candidates, err := s.repo.FindCandidates(ctx, repository.CandidateQuery{
		CategoryID: req.CategoryID,
		Lat:        req.Location.Lat,
		Lng:        req.Location.Lng,
		RadiusKm:   req.Location.RadiusKm,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to find providers", err).WithOp("matching.Match")
	}

	criteria := transport.SearchCriteria{
		CategoryID: req.CategoryID,
		Lat:        req.Location.Lat,
		Lng:        req.Location.Lng,
		RadiusKm:   req.Location.RadiusKm,
		Urgency:    urgency,
		BudgetMin:  req.BudgetMin(),
		BudgetMax:  req.BudgetMax(),
	}

	resp := &transport.MatchResponse{
		Matches:        []transport.Match{},
		SearchCriteria: criteria,
		Timestamp:      start,
	}

	if len(candidates) == 0 {
		resp.Message = noProvidersMessage
		s.publishCompleted(ctx, userID, req, urgency, 0)
		return resp, nil
	}

	ranked := scoring.Rank(toScoringCandidates(candidates), scoring.Input{
		RadiusKm:  req.Location.RadiusKm,
		BudgetMax: req.BudgetMax(),
		Urgency:   urgency,
		Now:       start,
	})

	matches, err := s.enrich(ctx, ranked, candidates)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load provider details", err).WithOp("matching.Match")
	}

	resp.Matches = matches
	resp.TotalFound = len(matches)

	s.publishCompleted(ctx, userID, req, urgency, len(matches))
	s.log.MatchCompleted(req.CategoryID.String(), len(candidates), len(matches), float64(s.now().Sub(start).Milliseconds()))

	return resp, nil
}

// enrich fetches provider details for the ranked ids and rebuilds the list
// in score order, so enrichment can never reshuffle the ranking.
func (s *Service) enrich(ctx context.Context, ranked []scoring.Match, candidates []repository.Candidate) ([]transport.Match, error) {
	ids := make([]uuid.UUID, 0, len(ranked))
	for _, m := range ranked {
		ids = append(ids, m.ProviderID)
	}

	details, err := s.repo.GetProviderDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]repository.ProviderDetail, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	distances := make(map[uuid.UUID]float64, len(candidates))
	for _, c := range candidates {
		distances[c.ProviderID] = c.DistanceKm
	}

	matches := make([]transport.Match, 0, len(ranked))
	for _, m := range ranked {
		detail, ok := byID[m.ProviderID]
		if !ok {
			s.log.Warn("matched provider missing enrichment data", "providerId", m.ProviderID)
			continue
		}
		matches = append(matches, transport.Match{
			Provider:         toMatchedProvider(detail, distances[m.ProviderID]),
			Score:            m.Score,
			Factors:          m.Factors,
			EstimatedArrival: m.EstimatedArrival,
			Confidence:       m.Confidence,
		})
	}
	return matches, nil
}

func (s *Service) publishCompleted(ctx context.Context, userID uuid.UUID, req transport.MatchRequest, urgency string, matchCount int) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.MatchCompleted{
		BaseEvent:  events.NewBaseEvent(),
		UserID:     userID,
		CategoryID: req.CategoryID,
		Latitude:   req.Location.Lat,
		Longitude:  req.Location.Lng,
		RadiusKm:   req.Location.RadiusKm,
		Urgency:    urgency,
		BudgetMin:  req.BudgetMin(),
		BudgetMax:  req.BudgetMax(),
		MatchCount: matchCount,
	})
}

func toScoringCandidates(rows []repository.Candidate) []scoring.Candidate {
	out := make([]scoring.Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, scoring.Candidate{
			ProviderID:          r.ProviderID,
			DistanceKm:          r.DistanceKm,
			RatingAverage:       r.RatingAverage,
			RatingCount:         r.RatingCount,
			ResponseTimeMinutes: r.ResponseTimeMinutes,
			Price:               r.Price,
		})
	}
	return out
}

func toMatchedProvider(d repository.ProviderDetail, distanceKm float64) transport.MatchedProvider {
	services := make([]transport.MatchedService, 0, len(d.Services))
	for _, svc := range d.Services {
		services = append(services, transport.MatchedService{
			ID:       svc.ID,
			Title:    svc.Title,
			Price:    svc.Price,
			Category: svc.CategoryName,
		})
	}

	normalizedPhone := d.Phone
	if d.Phone != nil {
		e164 := phone.NormalizeE164(*d.Phone)
		normalizedPhone = &e164
	}

	return transport.MatchedProvider{
		ID:                  d.ID,
		Name:                d.Name,
		BusinessName:        d.BusinessName,
		Bio:                 d.Bio,
		Phone:               normalizedPhone,
		RatingAverage:       d.RatingAverage,
		RatingCount:         d.RatingCount,
		ResponseTimeMinutes: d.ResponseTimeMinutes,
		DistanceKm:          distanceKm,
		Services:            services,
	}
}
