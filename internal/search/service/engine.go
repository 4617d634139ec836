package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"marketplace_backend/internal/search/repository"
	"marketplace_backend/internal/search/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"
)

const (
	defaultSearchLimit     = 10
	defaultSearchThreshold = 0.7
)

// stopwords are dropped from fallback keyword queries. They carry no search
// signal and would match almost every listing.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "near": {}, "who": {},
	"can": {}, "need": {}, "want": {}, "looking": {}, "someone": {},
	"service": {}, "help": {}, "find": {}, "get": {}, "has": {}, "have": {},
	"that": {}, "this": {}, "from": {}, "are": {}, "was": {}, "you": {},
	"your": {}, "our": {}, "any": {}, "all": {}, "not": {}, "but": {},
}

// Engine answers search queries against the vector index, falling back to
// keyword matching when the embedding model is unavailable.
type Engine struct {
	embedder  Embedder
	repo      repository.Repository
	log       *logger.Logger
	threshold float64
}

// EngineOption tunes engine behavior.
type EngineOption func(*Engine)

// WithThreshold overrides the default similarity threshold.
func WithThreshold(threshold float64) EngineOption {
	return func(e *Engine) {
		if threshold > 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// NewEngine creates a search engine. A nil embedder disables the vector path
// and every query takes the keyword fallback.
func NewEngine(embedder Embedder, repo repository.Repository, log *logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder:  embedder,
		repo:      repo,
		log:       log,
		threshold: defaultSearchThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search embeds the query and ranks listings by cosine similarity. When the
// model call fails the query degrades to keyword matching rather than
// returning an error; a worse answer beats no answer for a search box.
func (e *Engine) Search(ctx context.Context, req transport.SearchRequest) (*transport.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return &transport.SearchResponse{Items: []transport.SearchResultItem{}}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = e.threshold
	}

	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		return nil, err
	}

	if e.embedder != nil {
		vector, err := e.embedder.Embed(ctx, query)
		if err == nil {
			rows, err := e.repo.MatchListings(ctx, repository.MatchQuery{
				Embedding:  vector,
				Threshold:  threshold,
				Limit:      limit,
				CategoryID: categoryID,
			})
			if err != nil {
				return nil, apperr.Wrap(apperr.KindInternal, "search failed", err).WithOp("search.Search")
			}
			return buildResponse(rows, false), nil
		}
		e.log.Error("query embedding failed, using keyword fallback", "error", err)
	}

	keywords := ExtractKeywords(query)
	rows, err := e.repo.KeywordSearch(ctx, keywords, limit, categoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "search failed", err).WithOp("search.Search")
	}
	return buildResponse(rows, true), nil
}

// ExtractKeywords lowercases the query and keeps terms longer than two
// characters that are not stopwords.
func ExtractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var keywords []string
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		keywords = append(keywords, f)
	}
	return keywords
}

func parseCategoryID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("invalid category id")
	}
	return &id, nil
}

func buildResponse(rows []repository.MatchRow, fallback bool) *transport.SearchResponse {
	items := make([]transport.SearchResultItem, len(rows))
	for idx, r := range rows {
		items[idx] = transport.SearchResultItem{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.CategoryName,
			ProviderID:  r.ProviderID,
			Price:       r.Price,
			Location:    r.Location,
			Similarity:  r.Similarity,
			CreatedAt:   r.CreatedAt,
		}
	}
	return &transport.SearchResponse{Items: items, Total: len(items), Fallback: fallback}
}
