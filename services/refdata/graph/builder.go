// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
	"github.com/AleutianAI/AleutianRefData/services/refdata/provider"
	"github.com/AleutianAI/AleutianRefData/services/refdata/render"
)

// Traversal limits.
const (
	// DefaultMaxDepth is used when the caller does not set a depth.
	DefaultMaxDepth = 2

	// HardMaxDepth bounds any single traversal regardless of request.
	HardMaxDepth = 5

	// MaxFanOut caps how many targets one relationship contributes to a
	// graph. Larger sets belong in a paginated tree list.
	MaxFanOut = 50
)

// BuildRequest describes a graph materialization.
type BuildRequest struct {
	EntityType    string
	IDType        string
	IDValue       map[string]string
	MaxDepth      int
	Source        string
	EffectiveTime string
}

// ExpandRequest describes an incremental expansion around one node of an
// already rendered graph.
type ExpandRequest struct {
	EntityType    string
	IDType        string
	IDValue       map[string]string
	VisitedIDs    []string
	Source        string
	EffectiveTime string
}

// Builder materializes graphs by walking catalog relationships over the
// registered providers and rendering each discovered entity.
type Builder struct {
	catalog  *catalog.Catalog
	registry *provider.Registry
	log      *slog.Logger
}

// NewBuilder wires a builder. All dependencies are explicit.
func NewBuilder(cat *catalog.Catalog, reg *provider.Registry, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{catalog: cat, registry: reg, log: log}
}

// traversal is the per-call mutable state. visited guards against
// re-walking an entity; shown tracks ids that are materialized as nodes
// (or already sit on the caller's canvas), which is what edge endpoints
// must point at.
type traversal struct {
	maxDepth int
	source   string
	asOf     string

	visited map[string]bool
	shown   map[string]bool
	edges   map[Edge]bool
	result  *Result
}

// Build materializes the graph rooted at the requested entity.
//
// Description:
//
//	Depth-first traversal from the root. Each visited entity is rendered
//	through its catalog template; relationships marked expensive become
//	aggregation placeholder nodes carrying the related-set size instead
//	of being walked. Failures below the root never abort the build: the
//	offending relationship is recorded on Result.Errors and traversal
//	continues.
//
// Inputs:
//   - ctx: cancellation for upstream lookups.
//   - req: root identifier, depth and as-of context.
//
// Outputs:
//   - the rendered graph, or an error when the root itself cannot be
//     fetched or rendered.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*Result, error) {
	depth, err := normalizeDepth(req.MaxDepth)
	if err != nil {
		return nil, err
	}

	tr := &traversal{
		maxDepth: depth,
		source:   req.Source,
		asOf:     req.EffectiveTime,
		visited:  make(map[string]bool),
		shown:    make(map[string]bool),
		edges:    make(map[Edge]bool),
		result:   &Result{},
	}

	root, err := b.fetchRoot(ctx, req.EntityType, req.IDType, req.IDValue, tr)
	if err != nil {
		return nil, err
	}
	if err := b.visit(ctx, root, 0, tr); err != nil {
		return nil, err
	}
	return tr.result, nil
}

// Expand materializes the immediate neighborhood of one node.
//
// The caller supplies the ids already present on its canvas; those are
// pre-seeded into the visited set so expansion only returns genuinely
// new nodes, plus the edges that connect them. The expanded node itself
// is always treated as visited: it is on the canvas by definition and
// comes back only as an edge endpoint, never as a node.
func (b *Builder) Expand(ctx context.Context, req ExpandRequest) (*Result, error) {
	tr := &traversal{
		maxDepth: 1,
		source:   req.Source,
		asOf:     req.EffectiveTime,
		visited:  make(map[string]bool, len(req.VisitedIDs)),
		shown:    make(map[string]bool, len(req.VisitedIDs)),
		edges:    make(map[Edge]bool),
		result:   &Result{},
	}
	for _, id := range req.VisitedIDs {
		tr.visited[id] = true
		tr.shown[id] = true
	}

	root, err := b.fetchRoot(ctx, req.EntityType, req.IDType, req.IDValue, tr)
	if err != nil {
		return nil, err
	}

	tr.visited[root.ID()] = true
	tr.shown[root.ID()] = true
	b.expandRelationships(ctx, root, 0, tr)
	return tr.result, nil
}

func normalizeDepth(d int) (int, error) {
	if d == 0 {
		return DefaultMaxDepth, nil
	}
	if d < 0 || d > HardMaxDepth {
		return 0, fmt.Errorf("%w: %d (limit %d)", ErrDepthOutOfRange, d, HardMaxDepth)
	}
	return d, nil
}

func (b *Builder) fetchRoot(ctx context.Context, entityType, idType string, idValue map[string]string, tr *traversal) (*entity.Entity, error) {
	p, err := b.registry.ForType(entityType)
	if err != nil {
		return nil, err
	}
	lc := &provider.LookupContext{Source: tr.source, EffectiveTime: tr.asOf}
	root, err := p.EntityByID(ctx, entityType, idType, idValue, lc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s=%s: %v", ErrRootNotFound, entityType, idType, idValue[idType], err)
	}
	return root, nil
}

// visit renders an entity, records it, and walks its relationships if
// the depth budget allows.
func (b *Builder) visit(ctx context.Context, e *entity.Entity, depth int, tr *traversal) error {
	if tr.visited[e.ID()] {
		return nil
	}
	tr.visited[e.ID()] = true

	node, err := b.renderNode(e)
	if err != nil {
		if depth == 0 {
			return fmt.Errorf("%w: %s", ErrRootNotRenderable, e.Type())
		}
		b.log.Warn("skipping unrenderable entity",
			"entityType", e.Type(), "entityId", e.ID(), "error", err)
		tr.result.Errors = append(tr.result.Errors, ExpansionError{
			SourceID: e.ID(), Relationship: "", Message: err.Error(),
		})
		return nil
	}
	tr.result.Nodes = append(tr.result.Nodes, node)
	tr.shown[e.ID()] = true

	if depth < tr.maxDepth {
		b.expandRelationships(ctx, e, depth, tr)
	}
	return nil
}

// expandRelationships walks every graph-visible relationship of e.
func (b *Builder) expandRelationships(ctx context.Context, e *entity.Entity, depth int, tr *traversal) {
	for _, rel := range b.catalog.Relationships(e.Type()) {
		if !rel.VisibleInGraph {
			continue
		}
		if rel.Expensive {
			b.addPlaceholder(ctx, e, rel, tr)
			continue
		}
		b.expandOne(ctx, e, rel, depth, tr)
	}
}

// expandOne resolves one relationship's targets and recurses into them.
// Lookup failures are recorded and skipped.
func (b *Builder) expandOne(ctx context.Context, e *entity.Entity, rel catalog.Relationship, depth int, tr *traversal) {
	p, err := b.registry.ForType(e.Type())
	if err != nil {
		b.recordError(e, rel, err, tr)
		return
	}
	ids, err := p.RelatedIDs(ctx, e, rel)
	if err != nil {
		b.recordError(e, rel, err, tr)
		return
	}
	if len(ids) > MaxFanOut {
		b.log.Warn("relationship fan-out capped",
			"sourceId", e.ID(), "relationship", rel.Name,
			"total", len(ids), "cap", MaxFanOut)
		ids = ids[:MaxFanOut]
	}

	tp, err := b.registry.ForType(rel.TargetType)
	if err != nil {
		b.recordError(e, rel, err, tr)
		return
	}
	lc := &provider.LookupContext{
		Parent:        e,
		Relationship:  &rel,
		Source:        tr.source,
		EffectiveTime: tr.asOf,
	}
	for _, rid := range ids {
		target, err := tp.EntityByID(ctx, rel.TargetType, rid.IDType, rid.IDValue, lc)
		if err != nil {
			b.recordError(e, rel, err, tr)
			continue
		}
		if err := b.visit(ctx, target, depth+1, tr); err != nil {
			b.recordError(e, rel, err, tr)
			continue
		}
		// The edge ships only once the target is materialized (or was
		// already on the canvas); an unrenderable target must not leave
		// a dangling edge behind.
		if tr.shown[target.ID()] {
			tr.addEdge(Edge{Source: e.ID(), Target: target.ID(), Relationship: rel.Label})
		}
	}
}

// addPlaceholder synthesizes the aggregation node for an expensive
// relationship. The related set is counted but never materialized.
func (b *Builder) addPlaceholder(ctx context.Context, e *entity.Entity, rel catalog.Relationship, tr *traversal) {
	placeholderID := e.ID() + "_" + rel.Name
	tr.addEdge(Edge{Source: e.ID(), Target: placeholderID, Relationship: rel.Label})
	if tr.visited[placeholderID] {
		return
	}
	tr.visited[placeholderID] = true
	tr.shown[placeholderID] = true

	total := 0
	p, err := b.registry.ForType(e.Type())
	if err == nil {
		ids, rerr := p.RelatedIDs(ctx, e, rel)
		if rerr != nil {
			b.recordError(e, rel, rerr, tr)
		} else {
			total = len(ids)
		}
	} else {
		b.recordError(e, rel, err, tr)
	}

	tr.result.Nodes = append(tr.result.Nodes, Node{
		"id":            placeholderID,
		"titleLine1":    fmt.Sprintf("Click to view %ss", rel.TargetType),
		"totalCount":    total,
		"refDataType":   rel.TargetType,
		"idType":        "aggregation",
		"isAggregation": true,
		"expandable":    false,
		"idValue": map[string]any{
			"sourceEntityId":   e.ID(),
			"relationshipName": rel.Name,
		},
	})
}

func (b *Builder) renderNode(e *entity.Entity) (Node, error) {
	t, err := b.catalog.Template(e.Type())
	if err != nil {
		return nil, err
	}
	view, err := render.Render(e, t, entity.ShapeGraphNode)
	if err != nil {
		return nil, err
	}
	return Node(view), nil
}

func (b *Builder) recordError(e *entity.Entity, rel catalog.Relationship, err error, tr *traversal) {
	b.log.Warn("relationship expansion failed",
		"sourceId", e.ID(), "relationship", rel.Name, "error", err)
	tr.result.Errors = append(tr.result.Errors, ExpansionError{
		SourceID:     e.ID(),
		Relationship: rel.Name,
		Message:      err.Error(),
	})
}

// addEdge appends an edge unless the identical triple is already present.
func (tr *traversal) addEdge(e Edge) {
	if tr.edges[e] {
		return
	}
	tr.edges[e] = true
	tr.result.Edges = append(tr.result.Edges, e)
}
