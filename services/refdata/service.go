// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package refdata is the reference-data relationship graph service.
//
// It materializes entity relationship graphs, paginates the large
// related sets hidden behind aggregation placeholders, and serves the
// catalog metadata that drives the query UI. Results are cached by
// request fingerprint.
//
// # Ownership Model
//
// The Service owns nothing it is handed: catalog, provider registry and
// cache are constructed by the caller and may be shared (the catalog
// watcher clears the cache on reload). The Service itself is immutable
// after construction and safe for concurrent use.
package refdata

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianRefData/services/refdata/cache"
	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/graph"
	"github.com/AleutianAI/AleutianRefData/services/refdata/provider"
	"github.com/AleutianAI/AleutianRefData/services/refdata/tree"
)

// ErrUnresolvedType is returned when no provider recognizes the
// identifier under the given generic type.
var ErrUnresolvedType = errors.New("could not resolve concrete entity type")

// Service is the façade over the graph builder, tree engine, catalog and
// cache. All dependencies are injected.
type Service struct {
	catalog  *catalog.Catalog
	registry *provider.Registry
	cache    *cache.Cache
	builder  *graph.Builder
	engine   *tree.Engine
	log      *slog.Logger
	tracer   trace.Tracer
}

// NewService wires the service from its parts.
func NewService(cat *catalog.Catalog, reg *provider.Registry, c *cache.Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		catalog:  cat,
		registry: reg,
		cache:    c,
		builder:  graph.NewBuilder(cat, reg, log),
		engine:   tree.NewEngine(cat, reg, log),
		log:      log,
		tracer:   otel.Tracer("refdata"),
	}
}

// BuildGraph materializes the graph for the request, serving repeats
// from cache. Empty graphs are returned but never cached.
func (s *Service) BuildGraph(ctx context.Context, req BuildGraphRequest) (*graph.Result, error) {
	ctx, span := s.tracer.Start(ctx, "refdata.BuildGraph",
		trace.WithAttributes(
			attribute.String("entity.type", req.EntityType),
			attribute.Int("graph.max_depth", req.MaxDepth),
		))
	defer span.End()

	entityType, err := s.concreteType(req.EntityType, req.IDType, req.IDValue)
	if err != nil {
		return nil, err
	}
	req.EntityType = entityType

	key := cache.Fingerprint("buildGraph", req)
	v, err := s.cache.GetOrCompute(ctx, key, cache.GraphTTL, func(ctx context.Context) (any, bool, error) {
		timer := graphBuildTimer()
		defer timer.ObserveDuration()
		res, err := s.builder.Build(ctx, graph.BuildRequest{
			EntityType:    req.EntityType,
			IDType:        req.IDType,
			IDValue:       req.IDValue,
			MaxDepth:      req.MaxDepth,
			Source:        req.Source,
			EffectiveTime: req.EffectiveTime,
		})
		if err != nil {
			return nil, false, err
		}
		return res, !res.Empty(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*graph.Result), nil
}

// ExpandNode materializes the immediate neighborhood of one node.
func (s *Service) ExpandNode(ctx context.Context, req ExpandNodeRequest) (*graph.Result, error) {
	ctx, span := s.tracer.Start(ctx, "refdata.ExpandNode",
		trace.WithAttributes(attribute.String("entity.type", req.EntityType)))
	defer span.End()

	entityType, err := s.concreteType(req.EntityType, req.IDType, req.IDValue)
	if err != nil {
		return nil, err
	}
	req.EntityType = entityType

	// Visited order must not change the fingerprint.
	sorted := append([]string(nil), req.VisitedIDs...)
	sort.Strings(sorted)
	req.VisitedIDs = sorted

	key := cache.Fingerprint("expandNode", req)
	v, err := s.cache.GetOrCompute(ctx, key, cache.ExpandTTL, func(ctx context.Context) (any, bool, error) {
		res, err := s.builder.Expand(ctx, graph.ExpandRequest{
			EntityType:    req.EntityType,
			IDType:        req.IDType,
			IDValue:       req.IDValue,
			VisitedIDs:    req.VisitedIDs,
			Source:        req.Source,
			EffectiveTime: req.EffectiveTime,
		})
		if err != nil {
			return nil, false, err
		}
		// Expansions legitimately return nothing new when the canvas
		// already holds the whole neighborhood; still not worth a slot.
		return res, !res.Empty(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*graph.Result), nil
}

// BuildTreeList paginates the related set behind an aggregation node.
func (s *Service) BuildTreeList(ctx context.Context, req TreeListRequest) (*tree.Page, error) {
	ctx, span := s.tracer.Start(ctx, "refdata.BuildTreeList",
		trace.WithAttributes(
			attribute.String("tree.relationship", req.RelationshipName),
			attribute.Int("tree.page", req.Page),
		))
	defer span.End()

	key := cache.Fingerprint("buildTreeList", req)
	v, err := s.cache.GetOrCompute(ctx, key, cache.TreeListTTL, func(ctx context.Context) (any, bool, error) {
		timer := treeListTimer()
		defer timer.ObserveDuration()
		page, err := s.engine.Paginate(ctx, tree.Request{
			SourceEntityID:   req.SourceEntityID,
			RelationshipName: req.RelationshipName,
			TargetType:       req.TargetType,
			Page:             req.Page,
			PageSize:         req.PageSize,
			SortKey:          req.SortKey,
			Filters:          req.Filters,
			Source:           req.Source,
			EffectiveTime:    req.EffectiveTime,
		})
		if err != nil {
			return nil, false, err
		}
		return page, !page.Empty(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tree.Page), nil
}

// ResolveType maps a generic type plus identifier to its concrete
// entity type.
func (s *Service) ResolveType(ctx context.Context, req ResolveTypeRequest) (string, error) {
	_, span := s.tracer.Start(ctx, "refdata.ResolveType",
		trace.WithAttributes(attribute.String("entity.generic_type", req.GenericType)))
	defer span.End()

	specific, ok := s.registry.ResolveType(req.GenericType, req.IDType, req.IDValue)
	if !ok {
		return "", ErrUnresolvedType
	}
	return specific, nil
}

// Metadata returns the catalog metadata driving the query UI.
func (s *Service) Metadata(ctx context.Context) catalog.Metadata {
	_, span := s.tracer.Start(ctx, "refdata.Metadata")
	defer span.End()
	return s.catalog.Metadata()
}

// NodePayload returns the raw upstream record behind one node.
func (s *Service) NodePayload(ctx context.Context, req NodePayloadRequest) (*NodePayloadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "refdata.NodePayload",
		trace.WithAttributes(attribute.String("entity.type", req.EntityType)))
	defer span.End()

	entityType, err := s.concreteType(req.EntityType, req.IDType, req.IDValue)
	if err != nil {
		return nil, err
	}
	p, err := s.registry.ForType(entityType)
	if err != nil {
		return nil, err
	}
	lc := &provider.LookupContext{Source: req.Source, EffectiveTime: req.EffectiveTime}
	e, err := p.EntityByID(ctx, entityType, req.IDType, req.IDValue, lc)
	if err != nil {
		return nil, err
	}
	payload, _ := e.Field("payload")
	return &NodePayloadResponse{EntityType: entityType, Payload: payload}, nil
}

// InvalidateCache drops cached results.
func (s *Service) InvalidateCache(pattern string) int {
	n := s.cache.Invalidate(pattern)
	s.log.Info("cache invalidated", "pattern", pattern, "dropped", n)
	return n
}

// CacheStats returns a snapshot of the cache counters.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// Ready reports whether the service can serve queries.
func (s *Service) Ready() bool {
	return s.catalog != nil && s.registry != nil && s.cache != nil
}

// concreteType resolves generic entity types ("Instrument", "Party")
// down to the concrete type a provider serves. Concrete types pass
// through untouched.
func (s *Service) concreteType(entityType, idType string, idValue map[string]string) (string, error) {
	if s.registry.HasType(entityType) {
		return entityType, nil
	}
	if specific, ok := s.registry.ResolveType(entityType, idType, idValue); ok {
		return specific, nil
	}
	return "", ErrUnresolvedType
}
