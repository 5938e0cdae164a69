// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package entity defines the opaque reference-data record that flows
// between data providers, the graph builder, and the view renderer.
//
// # Ownership Model
//
// An Entity is created by a data provider, consumed by the renderer, and
// discarded at the end of the request. It is immutable once constructed:
//   - The raw data map MUST NOT be mutated after New() returns
//   - Data() exposes the underlying map without copying (for efficiency);
//     callers share the same read-only contract
//
// # Thread Safety
//
// Entities are safe for concurrent reads because they are never written
// after construction.
package entity

import "strings"

// Shape selects which view template body an entity is rendered with.
type Shape string

const (
	// ShapeGraphNode renders the entity as a node card for graph display.
	ShapeGraphNode Shape = "graph-node"

	// ShapeListRow renders the entity as a row for tree-list display.
	ShapeListRow Shape = "list-row"
)

// Entity is a single reference-data record plus its type tag.
//
// Identity is derived, not stored redundantly: providers place the primary
// identifier under the "id" key when transforming raw source records.
type Entity struct {
	data       map[string]any
	entityType string
	shape      Shape
}

// New constructs an Entity over the given raw data.
//
// The caller transfers ownership of data; it must not be mutated afterwards.
func New(entityType string, shape Shape, data map[string]any) *Entity {
	if data == nil {
		data = map[string]any{}
	}
	return &Entity{data: data, entityType: entityType, shape: shape}
}

// ID returns the primary identifier, derived from the "id" raw field.
func (e *Entity) ID() string {
	if v, ok := e.data["id"].(string); ok {
		return v
	}
	return ""
}

// Type returns the concrete entity type tag (e.g. "Stock", "Listing").
func (e *Entity) Type() string { return e.entityType }

// Shape returns the display shape the entity was created for.
func (e *Entity) Shape() Shape { return e.shape }

// Data returns the underlying raw data map. The map is shared, not
// copied; callers must treat it as read-only.
func (e *Entity) Data() map[string]any { return e.data }

// Field resolves a dot-addressed path into the raw data.
//
// Each path segment descends into a nested map[string]any. The second
// return value is false if any segment is missing or a non-map value is
// reached before the final segment.
func (e *Entity) Field(path string) (any, bool) {
	return Lookup(e.data, path)
}

// Lookup resolves a dot-addressed path in an arbitrary nested map.
func Lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current any = data
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}
