// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provider

import "fmt"

// Registry maps concrete entity types to their providers.
//
// The registry is built once at process start (explicit dependency
// injection, no ambient globals) and is read-only afterwards, so lookups
// need no locking.
type Registry struct {
	byType map[string]Provider
	order  []Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]Provider)}
}

// Register adds a provider for every entity type it serves.
// Registering a second provider for the same type is a wiring bug and
// fails loudly.
func (r *Registry) Register(p Provider) error {
	for _, t := range p.Types() {
		if existing, ok := r.byType[t]; ok {
			return fmt.Errorf("entity type %s already served by %s", t, existing.Name())
		}
		r.byType[t] = p
	}
	r.order = append(r.order, p)
	return nil
}

// ForType returns the provider serving an entity type.
func (r *Registry) ForType(entityType string) (Provider, error) {
	p, ok := r.byType[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, entityType)
	}
	return p, nil
}

// HasType reports whether any provider serves the entity type.
func (r *Registry) HasType(entityType string) bool {
	_, ok := r.byType[entityType]
	return ok
}

// ResolveType asks each provider, in registration order, to resolve a
// generic type to a concrete one. The boolean is false when no provider
// recognizes the identifier.
func (r *Registry) ResolveType(genericType, idType string, idValue map[string]string) (string, bool) {
	for _, p := range r.order {
		if specific, ok := p.ResolveType(genericType, idType, idValue); ok {
			return specific, true
		}
	}
	return "", false
}
