// Package service implements the provider directory read model.
package service

import (
	"context"

	"github.com/google/uuid"

	"marketplace_backend/internal/providers/repository"
	"marketplace_backend/internal/providers/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/phone"
)

const defaultListLimit = 20

// Service serves provider profiles.
type Service struct {
	repo repository.Repository
}

// New creates a providers service.
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// GetByID returns one provider profile.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.Provider, error) {
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toTransport(provider)
	return &out, nil
}

// List returns active providers with optional category filtering.
func (s *Service) List(ctx context.Context, req transport.ListProvidersRequest) (*transport.ListProvidersResponse, error) {
	filter := repository.ListFilter{
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, apperr.Validation("invalid category id")
		}
		filter.CategoryID = &id
	}

	providers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list providers", err).WithOp("providers.List")
	}

	items := make([]transport.Provider, len(providers))
	for i, p := range providers {
		items[i] = toTransport(p)
	}
	return &transport.ListProvidersResponse{Providers: items, Total: total}, nil
}

func toTransport(p repository.Provider) transport.Provider {
	services := make([]transport.ProviderService, len(p.Services))
	for i, s := range p.Services {
		services[i] = transport.ProviderService{
			ID:       s.ID,
			Title:    s.Title,
			Price:    s.Price,
			Category: s.CategoryName,
		}
	}

	normalizedPhone := p.Phone
	if p.Phone != nil {
		e164 := phone.NormalizeE164(*p.Phone)
		normalizedPhone = &e164
	}

	return transport.Provider{
		ID:                  p.ID,
		Name:                p.Name,
		BusinessName:        p.BusinessName,
		Bio:                 p.Bio,
		Phone:               normalizedPhone,
		RatingAverage:       p.RatingAverage,
		RatingCount:         p.RatingCount,
		ResponseTimeMinutes: p.ResponseTimeMinutes,
		Services:            services,
		CreatedAt:           p.CreatedAt,
	}
}
