// Package search provides the semantic search bounded context module.
package search

import (
	"marketplace_backend/internal/events"
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/internal/search/handler"
	"marketplace_backend/internal/search/repository"
	"marketplace_backend/internal/search/service"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the search bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	engine  *service.Engine
	indexer *service.Indexer
}

// NewModule creates and initializes the search module. The embedder may be
// nil when no embedding API key is configured; search then serves keyword
// results only and single-listing indexing fails with a clear error.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.SearchConfig, log *logger.Logger, embedder service.Embedder, enqueuer handler.Enqueuer) *Module {
	repo := repository.New(pool)

	indexer := service.NewIndexer(embedder, repo, eventBus, log,
		service.WithBulkBatching(cfg.GetBulkIndexBatchSize(), cfg.GetBulkIndexBatchPause()))
	engine := service.NewEngine(embedder, repo, log,
		service.WithThreshold(cfg.GetSearchThreshold()))

	return &Module{
		handler: handler.New(engine, indexer, enqueuer, val),
		engine:  engine,
		indexer: indexer,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "search"
}

// Indexer returns the indexing pipeline for background workers.
func (m *Module) Indexer() *service.Indexer {
	return m.indexer
}

// RegisterRoutes mounts search routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Queries need a signed-in user; index administration is admin only.
	m.handler.RegisterSearchRoutes(ctx.Protected.Group("/search"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/search"))
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
