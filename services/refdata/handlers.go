// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package refdata

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/graph"
	"github.com/AleutianAI/AleutianRefData/services/refdata/provider"
	"github.com/AleutianAI/AleutianRefData/services/refdata/tree"
)

// Handlers contains the HTTP handlers for the reference-data service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleBuildGraph handles POST /v1/refdata/graph/build.
//
// Description:
//
//	Materializes the relationship graph around the requested root
//	entity, up to maxDepth hops. Repeated requests within the TTL are
//	served from cache.
//
// Request Body:
//
//	BuildGraphRequest
//
// Response:
//
//	200 OK: graph.Result
//	400 Bad Request: Validation or depth error
//	404 Not Found: Root entity unknown
//	500 Internal Server Error: Materialization error
func (h *Handlers) HandleBuildGraph(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleBuildGraph")

	var req BuildGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Building graph",
		"entity_type", req.EntityType, "id_type", req.IDType, "max_depth", req.MaxDepth)

	res, err := h.svc.BuildGraph(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, logger, err, "BUILD_FAILED")
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleExpandNode handles POST /v1/refdata/graph/expand.
//
// Description:
//
//	Expands one node of an already rendered graph by a single hop,
//	returning only nodes the caller has not seen yet.
//
// Request Body:
//
//	ExpandNodeRequest
//
// Response:
//
//	200 OK: graph.Result
//	400 Bad Request: Validation error
//	404 Not Found: Node entity unknown
func (h *Handlers) HandleExpandNode(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleExpandNode")

	var req ExpandNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	res, err := h.svc.ExpandNode(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, logger, err, "EXPAND_FAILED")
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleTreeList handles POST /v1/refdata/tree/list.
//
// Description:
//
//	Returns one sorted, filtered page of the related set behind an
//	aggregation placeholder node.
//
// Request Body:
//
//	TreeListRequest
//
// Response:
//
//	200 OK: tree.Page
//	400 Bad Request: Validation, paging, sort, or filter error
//	404 Not Found: Source entity or relationship unknown
func (h *Handlers) HandleTreeList(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleTreeList")

	var req TreeListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	page, err := h.svc.BuildTreeList(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, logger, err, "TREE_LIST_FAILED")
		return
	}
	c.JSON(http.StatusOK, page)
}

// HandleResolveType handles POST /v1/refdata/resolve.
//
// Response:
//
//	200 OK: ResolveTypeResponse; resolved is false when no provider
//	recognizes the identifier
//	400 Bad Request: Validation error
func (h *Handlers) HandleResolveType(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleResolveType")

	var req ResolveTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	specific, err := h.svc.ResolveType(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUnresolvedType) {
			logger.Info("Type not resolved",
				"generic_type", req.GenericType, "id_type", req.IDType)
			c.JSON(http.StatusOK, ResolveTypeResponse{
				GenericType: req.GenericType,
				Resolved:    false,
			})
			return
		}
		h.writeError(c, logger, err, "RESOLVE_FAILED")
		return
	}
	c.JSON(http.StatusOK, ResolveTypeResponse{
		GenericType:  req.GenericType,
		SpecificType: specific,
		Resolved:     true,
	})
}

// HandleMetadata handles GET /v1/refdata/metadata.
func (h *Handlers) HandleMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Metadata(c.Request.Context()))
}

// HandleNodePayload handles POST /v1/refdata/node/payload.
//
// Response:
//
//	200 OK: NodePayloadResponse
//	404 Not Found: Entity unknown
func (h *Handlers) HandleNodePayload(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleNodePayload")

	var req NodePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.svc.NodePayload(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, logger, err, "PAYLOAD_FAILED")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCacheStats handles GET /v1/refdata/cache/stats.
func (h *Handlers) HandleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CacheStats())
}

// HandleInvalidateCache handles POST /v1/refdata/cache/invalidate.
func (h *Handlers) HandleInvalidateCache(c *gin.Context) {
	var req InvalidateCacheRequest
	// Body optional; an empty pattern clears everything.
	_ = c.ShouldBindJSON(&req)
	dropped := h.svc.InvalidateCache(req.Pattern)
	c.JSON(http.StatusOK, InvalidateCacheResponse{Dropped: dropped})
}

// HandleHealth handles GET /v1/refdata/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": ServiceVersion})
}

// HandleReady handles GET /v1/refdata/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	if !h.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// writeError maps domain errors to HTTP status codes.
func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, err error, fallbackCode string) {
	statusCode := http.StatusInternalServerError
	errCode := fallbackCode

	switch {
	case errors.Is(err, graph.ErrRootNotFound),
		errors.Is(err, provider.ErrNotFound),
		errors.Is(err, tree.ErrSourceNotFound):
		statusCode = http.StatusNotFound
		errCode = "NOT_FOUND"
	case errors.Is(err, ErrUnresolvedType):
		statusCode = http.StatusNotFound
		errCode = "TYPE_NOT_RESOLVED"
	case errors.Is(err, catalog.ErrUnknownEntityType),
		errors.Is(err, catalog.ErrUnknownRelationship),
		errors.Is(err, provider.ErrNoProvider):
		statusCode = http.StatusNotFound
		errCode = "UNKNOWN_TYPE"
	case errors.Is(err, graph.ErrDepthOutOfRange),
		errors.Is(err, tree.ErrBadPage),
		errors.Is(err, tree.ErrBadSortKey),
		errors.Is(err, tree.ErrBadFilterKey),
		errors.Is(err, tree.ErrNotPaginatable):
		statusCode = http.StatusBadRequest
		errCode = "INVALID_REQUEST"
	}

	if statusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Warn("Request rejected", "error", err, "code", errCode)
	}
	c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
}
