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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all reference-data routes with the router.
//
// Description:
//
//	Registers all /v1/refdata/* endpoints with the given Gin router
//	group. The router group should already have any required middleware
//	applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/refdata/graph/build - Materialize a relationship graph
//	POST /v1/refdata/graph/expand - Expand one node by a single hop
//	POST /v1/refdata/tree/list - Paginate an aggregation's related set
//	POST /v1/refdata/resolve - Resolve a generic type to a concrete one
//	POST /v1/refdata/node/payload - Fetch the raw record behind a node
//	GET  /v1/refdata/metadata - Catalog metadata for the query UI
//	GET  /v1/refdata/cache/stats - Cache counters
//	POST /v1/refdata/cache/invalidate - Drop cached results
//	GET  /v1/refdata/health - Health check
//	GET  /v1/refdata/ready - Readiness check
//
// Example:
//
//	service := refdata.NewService(cat, registry, resultCache, logger)
//	handlers := refdata.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	refdata.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rd := rg.Group("/refdata")
	{
		// Graph materialization
		rd.POST("/graph/build", handlers.HandleBuildGraph)
		rd.POST("/graph/expand", handlers.HandleExpandNode)

		// Tree pagination
		rd.POST("/tree/list", handlers.HandleTreeList)

		// Type resolution and raw payloads
		rd.POST("/resolve", handlers.HandleResolveType)
		rd.POST("/node/payload", handlers.HandleNodePayload)

		// Catalog metadata
		rd.GET("/metadata", handlers.HandleMetadata)

		// Cache administration
		rd.GET("/cache/stats", handlers.HandleCacheStats)
		rd.POST("/cache/invalidate", handlers.HandleInvalidateCache)

		// Health checks
		rd.GET("/health", handlers.HandleHealth)
		rd.GET("/ready", handlers.HandleReady)
	}
}
