// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command refdata starts the Aleutian reference-data API server.
//
// The server materializes entity relationship graphs over financial
// reference data, with:
//   - Config-driven relationship catalog and view templates (hot reload)
//   - Aggregation placeholders for expensive relationships
//   - Paginated, sortable, filterable tree lists behind placeholders
//   - REST and GraphQL query surfaces with result caching
//
// Usage:
//
//	go run ./cmd/refdata
//	go run ./cmd/refdata -port 9090
//	go run ./cmd/refdata -catalog-config ./catalog.yaml -data-dir ./data
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/refdata/health
//
//	# Query metadata for the UI
//	curl http://localhost:8080/v1/refdata/metadata | jq
//
//	# Build a graph around a stock
//	curl -X POST http://localhost:8080/v1/refdata/graph/build \
//	  -H "Content-Type: application/json" \
//	  -d '{"entityType": "Stock", "idType": "instrumentId", "idValue": {"instrumentId": "STK-100"}, "maxDepth": 2}'
//
//	# Page through a stock's option chain
//	curl -X POST http://localhost:8080/v1/refdata/tree/list \
//	  -H "Content-Type: application/json" \
//	  -d '{"sourceEntityId": "STK-100", "relationshipName": "IS_UNDERLYING_FOR", "page": 1, "pageSize": 25}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianRefData/pkg/logging"
	"github.com/AleutianAI/AleutianRefData/services/refdata"
	"github.com/AleutianAI/AleutianRefData/services/refdata/cache"
	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/gql"
	"github.com/AleutianAI/AleutianRefData/services/refdata/provider"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	catalogConfig := flag.String("catalog-config", "", "Relationship catalog YAML (default: embedded)")
	dataDir := flag.String("data-dir", "", "Reference dataset directory (default: embedded samples)")
	logDir := flag.String("log-dir", "", "Directory for JSON log files (default: stderr only)")
	rps := flag.Float64("rate-limit", 50, "Requests per second allowed before 429s")
	flag.Parse()

	level := logging.LevelInfo
	if *debug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  *logDir,
		Service: "refdata",
	})
	defer logger.Close()
	logger.SetAsDefault()

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load reference datasets
	datasets, err := provider.LoadDatasets(*dataDir)
	if err != nil {
		slog.Error("Failed to load datasets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire providers
	registry := provider.NewRegistry()
	for _, p := range []provider.Provider{
		provider.NewInstrumentProvider(datasets.Instruments),
		provider.NewListingProvider(datasets.Listings),
		provider.NewExchangeProvider(datasets.Exchanges),
		provider.NewPartyProvider(datasets.Parties),
	} {
		if err := registry.Register(p); err != nil {
			slog.Error("Failed to register provider",
				slog.String("provider", p.Name()), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Load the relationship catalog
	cat, err := catalog.Load(*catalogConfig)
	if err != nil {
		slog.Error("Failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resultCache := cache.New()
	svc := refdata.NewService(cat, registry, resultCache, slog.Default())
	handlers := refdata.NewHandlers(svc)

	// Hot reload: a rewritten catalog file swaps the config in and
	// clears the cache so stale views cannot be served.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *catalogConfig != "" {
		go func() {
			if err := cat.Watch(ctx, *catalogConfig, func() {
				dropped := resultCache.Clear()
				slog.Info("Catalog reloaded", slog.Int("cache_dropped", dropped))
			}); err != nil {
				slog.Warn("Catalog watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("refdata"))
	router.Use(refdata.RequestIDMiddleware())
	router.Use(refdata.RateLimitMiddleware(*rps, int(*rps)*2))
	if *debug {
		router.Use(gin.Logger())
	}

	// Register routes under /v1/refdata
	v1 := router.Group("/v1")
	refdata.RegisterRoutes(v1, handlers)
	gql.RegisterRoutes(v1, gql.NewHandler(svc))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down reference-data server")
		cancel()
		logger.Close()
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting reference-data server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printBanner(port int) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                 ALEUTIAN REFERENCE DATA SERVER                    ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Relationship graphs over financial reference data.               ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/refdata/health                │  ║
║  │                                                             │  ║
║  │ # Query metadata                                            │  ║
║  │ curl http://localhost:%d/v1/refdata/metadata | jq         │  ║
║  │                                                             │  ║
║  │ # Build a graph                                             │  ║
║  │ curl -X POST http://localhost:%d/v1/refdata/graph/build \ │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"entityType":"Stock","idType":"instrumentId",        │  ║
║  │        "idValue":{"instrumentId":"STK-100"},"maxDepth":2}'  │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Graph: /graph/build, /graph/expand                          ║
║  ├── Tree: /tree/list                                            ║
║  ├── Lookup: /resolve, /node/payload, /metadata                  ║
║  ├── Cache: /cache/stats, /cache/invalidate                      ║
║  ├── GraphQL: /graphql                                           ║
║  └── Ops: /health, /ready, /metrics                              ║
║                                                                   ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, port, port, port)
}
