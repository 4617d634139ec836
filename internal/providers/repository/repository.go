// Package repository provides PostgreSQL data access for provider profiles.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace_backend/platform/apperr"
)

const providerNotFoundMessage = "provider not found"

// Service is one service row attached to a provider.
type Service struct {
	ID           uuid.UUID
	Title        string
	Price        float64
	CategoryName string
}

// Provider is a provider profile with its active services.
type Provider struct {
	ID                  uuid.UUID
	Name                string
	BusinessName        string
	Bio                 *string
	Phone               *string
	RatingAverage       float64
	RatingCount         int
	ResponseTimeMinutes int
	Services            []Service
	CreatedAt           time.Time
}

// ListFilter narrows the provider listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	Limit      int
	Offset     int
}

// Repository defines provider data access.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Provider, error)
	List(ctx context.Context, filter ListFilter) ([]Provider, int, error)
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new providers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves one active provider with its active services.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Provider, error) {
	query := `
		SELECT id, display_name, business_name, bio, phone,
		       rating_average, rating_count, response_time_minutes, created_at
		FROM providers
		WHERE id = $1 AND is_active`

	var p Provider
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.BusinessName, &p.Bio, &p.Phone,
		&p.RatingAverage, &p.RatingCount, &p.ResponseTimeMinutes, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provider{}, apperr.NotFound(providerNotFoundMessage)
		}
		return Provider{}, fmt.Errorf("get provider by id: %w", err)
	}

	services, err := r.servicesFor(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return Provider{}, err
	}
	p.Services = services[p.ID]

	return p, nil
}

// List retrieves active providers, optionally filtered to those offering a
// service in the given category, best rated first.
func (r *Repo) List(ctx context.Context, filter ListFilter) ([]Provider, int, error) {
	query := `
		SELECT id, display_name, business_name, bio, phone,
		       rating_average, rating_count, response_time_minutes, created_at,
		       COUNT(*) OVER() AS total
		FROM providers p
		WHERE p.is_active
		  AND ($1::uuid IS NULL OR EXISTS (
			SELECT 1 FROM provider_services ps
			WHERE ps.provider_id = p.id AND ps.category_id = $1 AND ps.is_active
		  ))
		ORDER BY p.rating_average DESC, p.rating_count DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, filter.CategoryID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var (
		providers []Provider
		total     int64
	)
	for rows.Next() {
		var p Provider
		if err := rows.Scan(
			&p.ID, &p.Name, &p.BusinessName, &p.Bio, &p.Phone,
			&p.RatingAverage, &p.RatingCount, &p.ResponseTimeMinutes, &p.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate providers: %w", err)
	}

	if len(providers) > 0 {
		ids := make([]uuid.UUID, len(providers))
		for i, p := range providers {
			ids[i] = p.ID
		}
		services, err := r.servicesFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range providers {
			providers[i].Services = services[providers[i].ID]
		}
	}

	return providers, int(total), nil
}

func (r *Repo) servicesFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Service, error) {
	query := `
		SELECT ps.provider_id, ps.id, ps.title, ps.price, c.name
		FROM provider_services ps
		JOIN categories c ON c.id = ps.category_id
		WHERE ps.provider_id = ANY($1) AND ps.is_active
		ORDER BY ps.created_at`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list provider services: %w", err)
	}
	defer rows.Close()

	services := make(map[uuid.UUID][]Service)
	for rows.Next() {
		var (
			providerID uuid.UUID
			s          Service
		)
		if err := rows.Scan(&providerID, &s.ID, &s.Title, &s.Price, &s.CategoryName); err != nil {
			return nil, fmt.Errorf("scan provider service: %w", err)
		}
		services[providerID] = append(services[providerID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider services: %w", err)
	}
	return services, nil
}
