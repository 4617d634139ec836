// Package handler exposes the search and indexing HTTP endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketplace_backend/internal/search/service"
	"marketplace_backend/internal/search/transport"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidListingID = "invalid listing ID"
)

// Enqueuer schedules background indexing work. Implemented by the scheduler
// module's task client.
type Enqueuer interface {
	EnqueueReindex(ctx context.Context) (string, error)
	EnqueueIndexListing(ctx context.Context, listingID, content string) (string, error)
}

// Handler handles HTTP requests for search and index administration.
type Handler struct {
	engine   *service.Engine
	indexer  *service.Indexer
	enqueuer Enqueuer
	val      *validator.Validator
}

// New creates a new search handler. The enqueuer may be nil when background
// scheduling is not configured; reindex requests then run inline.
func New(engine *service.Engine, indexer *service.Indexer, enqueuer Enqueuer, val *validator.Validator) *Handler {
	return &Handler{engine: engine, indexer: indexer, enqueuer: enqueuer, val: val}
}

// RegisterSearchRoutes mounts the search query route.
func (h *Handler) RegisterSearchRoutes(group *gin.RouterGroup) {
	group.GET("", h.Search)
}

// RegisterAdminRoutes mounts the index administration routes.
func (h *Handler) RegisterAdminRoutes(group *gin.RouterGroup) {
	group.POST("/reindex", h.Reindex)
	group.PUT("/listings/:id", h.IndexListing)
}

// Search runs a semantic search over listings.
// GET /api/v1/search
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.engine.Search(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Reindex schedules a full re-index of all active listings.
// POST /api/v1/admin/search/reindex
func (h *Handler) Reindex(c *gin.Context) {
	if h.enqueuer != nil {
		taskID, err := h.enqueuer.EnqueueReindex(c.Request.Context())
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.Accepted(c, transport.EnqueuedResponse{TaskID: taskID, Status: "queued"})
		return
	}

	report, err := h.indexer.BulkIndex(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

// IndexListing (re)indexes a single listing, through the queue when one is
// configured and inline otherwise. The body may carry a content override;
// with no body the composite text is built from the stored fields.
// PUT /api/v1/admin/search/listings/:id
func (h *Handler) IndexListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidListingID, nil)
		return
	}

	var req transport.IndexListingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}

	if h.enqueuer != nil {
		taskID, err := h.enqueuer.EnqueueIndexListing(c.Request.Context(), id.String(), req.Content)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.Accepted(c, transport.EnqueuedResponse{TaskID: taskID, Status: "queued"})
		return
	}

	if err := h.indexer.IndexListing(c.Request.Context(), id, req.Content); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.IndexListingResponse{ListingID: id, Indexed: true})
}
