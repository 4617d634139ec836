// Package repository provides PostgreSQL data access for provider matching.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new matching repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CategoryExists reports whether an active category with the given id exists.
func (r *Repo) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND is_active)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check category exists: %w", err)
	}
	return exists, nil
}

// FindCandidates delegates the geo filter to the find_providers_within_radius
// SQL function so the haversine math runs next to the data. Rows come back
// nearest first.
func (r *Repo) FindCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	query := `
		SELECT provider_id, distance_km, rating_average, rating_count, response_time_minutes, first_service_price
		FROM find_providers_within_radius($1, $2, $3, $4)`

	rows, err := r.pool.Query(ctx, query, q.CategoryID, q.Lat, q.Lng, q.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(
			&c.ProviderID, &c.DistanceKm, &c.RatingAverage, &c.RatingCount,
			&c.ResponseTimeMinutes, &c.Price,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return candidates, nil
}

// GetProviderDetails fetches enrichment data for the given provider ids.
// The join flattens services into one row per service; rows are regrouped
// per provider here.
func (r *Repo) GetProviderDetails(ctx context.Context, ids []uuid.UUID) ([]ProviderDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT p.id, p.display_name, p.business_name, p.bio, p.phone,
		       p.rating_average, p.rating_count, p.response_time_minutes,
		       ps.id, ps.title, ps.price, c.name
		FROM providers p
		JOIN provider_services ps ON ps.provider_id = p.id AND ps.is_active
		JOIN categories c ON c.id = ps.category_id
		WHERE p.id = ANY($1)
		ORDER BY p.id, ps.created_at`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get provider details: %w", err)
	}
	defer rows.Close()

	var details []ProviderDetail
	index := make(map[uuid.UUID]int)

	for rows.Next() {
		var (
			d   ProviderDetail
			svc ProviderService
		)
		if err := rows.Scan(
			&d.ID, &d.Name, &d.BusinessName, &d.Bio, &d.Phone,
			&d.RatingAverage, &d.RatingCount, &d.ResponseTimeMinutes,
			&svc.ID, &svc.Title, &svc.Price, &svc.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("scan provider detail: %w", err)
		}

		pos, seen := index[d.ID]
		if !seen {
			index[d.ID] = len(details)
			d.Services = []ProviderService{svc}
			details = append(details, d)
			continue
		}
		details[pos].Services = append(details[pos].Services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider details: %w", err)
	}

	return details, nil
}
