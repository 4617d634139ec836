// Package repository provides PostgreSQL data access for semantic search.
// Vectors are stored in a pgvector column and similarity queries run through
// the match_listings SQL function so ordering happens next to the index.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"marketplace_backend/platform/apperr"
)

const listingNotFoundMessage = "listing not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new search repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const listingSelect = `
	SELECT l.id, l.provider_id, l.title, l.description,
	       p.business_name, coalesce(p.bio, ''), c.name, coalesce(c.description, ''),
	       l.location, l.price, l.tags, l.created_at
	FROM listings l
	JOIN providers p ON p.id = l.provider_id
	JOIN categories c ON c.id = l.category_id`

func scanListing(row pgx.Row, l *Listing) error {
	return row.Scan(
		&l.ID, &l.ProviderID, &l.Title, &l.Description,
		&l.ProviderBusiness, &l.ProviderBio, &l.CategoryName, &l.CategoryDescription,
		&l.Location, &l.Price, &l.Tags, &l.CreatedAt,
	)
}

// GetListing fetches one active listing for indexing.
func (r *Repo) GetListing(ctx context.Context, id uuid.UUID) (Listing, error) {
	query := listingSelect + ` WHERE l.id = $1 AND l.is_active`

	var l Listing
	if err := scanListing(r.pool.QueryRow(ctx, query, id), &l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, apperr.NotFound(listingNotFoundMessage)
		}
		return Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// ListIndexable returns active listings that have not been indexed yet.
func (r *Repo) ListIndexable(ctx context.Context) ([]Listing, error) {
	query := listingSelect + ` WHERE l.is_active AND l.indexed_at IS NULL ORDER BY l.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list indexable listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

// UpsertEmbedding writes the listing's vector inside a transaction so the
// embedding row and the indexed stamp never diverge.
func (r *Repo) UpsertEmbedding(ctx context.Context, listingID uuid.UUID, embedding []float32, content string, metadata map[string]any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert embedding: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO listing_embeddings (listing_id, embedding, content, metadata, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (listing_id)
		DO UPDATE SET embedding = EXCLUDED.embedding, content = EXCLUDED.content,
		              metadata = EXCLUDED.metadata, updated_at = now()`

	if _, err := tx.Exec(ctx, upsert, listingID, pgvector.NewVector(embedding), content, metadata); err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}

	stamp := `UPDATE listings SET indexed_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, stamp, listingID); err != nil {
		return fmt.Errorf("stamp listing indexed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert embedding: %w", err)
	}
	return nil
}

// MatchListings runs a similarity search through the match_listings function.
func (r *Repo) MatchListings(ctx context.Context, q MatchQuery) ([]MatchRow, error) {
	query := `
		SELECT id, provider_id, title, description, category_name, location, price, tags, created_at, similarity
		FROM match_listings($1, $2, $3, $4)`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(q.Embedding), q.Threshold, q.Limit, q.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("match listings: %w", err)
	}
	defer rows.Close()

	return scanMatchRows(rows)
}

// KeywordSearch ORs the keywords against title and description, newest first.
// Similarity is reported as 0 since no vector comparison happened.
func (r *Repo) KeywordSearch(ctx context.Context, keywords []string, limit int, categoryID *uuid.UUID) ([]MatchRow, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	patterns := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, "%"+strings.ToLower(kw)+"%")
	}

	query := `
		SELECT l.id, l.provider_id, l.title, l.description, c.name, l.location, l.price, l.tags, l.created_at, 0::float8
		FROM listings l
		JOIN categories c ON c.id = l.category_id
		WHERE l.is_active
		  AND ($3::uuid IS NULL OR l.category_id = $3)
		  AND EXISTS (
			SELECT 1 FROM unnest($1::text[]) AS kw
			WHERE lower(l.title) LIKE kw OR lower(l.description) LIKE kw
		  )
		ORDER BY l.created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, patterns, limit, categoryID)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	return scanMatchRows(rows)
}

func scanMatchRows(rows pgx.Rows) ([]MatchRow, error) {
	var results []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(
			&m.ID, &m.ProviderID, &m.Title, &m.Description, &m.CategoryName,
			&m.Location, &m.Price, &m.Tags, &m.CreatedAt, &m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return results, nil
}
