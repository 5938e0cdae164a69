// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package provider defines the data-source capability consumed by the
// graph builder and the tree pagination engine, plus the in-memory
// dataset-backed providers for the four entity families.
//
// Providers hold read-only datasets loaded once at startup, so all
// lookups are safe for concurrent use without locking.
package provider

import (
	"context"
	"errors"

	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
)

// Sentinel errors for provider operations.
var (
	// ErrNotFound is returned when no entity matches the identifier.
	ErrNotFound = errors.New("entity not found")

	// ErrNoProvider is returned when no provider is registered for the
	// requested entity type.
	ErrNoProvider = errors.New("no data provider registered for entity type")

	// ErrUnknownRelationship is returned when a provider is asked to
	// resolve a relationship it does not implement for the source type.
	ErrUnknownRelationship = errors.New("relationship not implemented by provider")
)

// RelatedID identifies one related entity as an (idType, idValue) pair.
type RelatedID struct {
	IDType  string
	IDValue map[string]string
}

// LookupContext carries optional traversal context into entity lookups.
//
// Providers may specialize behavior on it, e.g. returning a trimmed
// representation when an entity is fetched through a back-reference
// rather than as a traversal root.
type LookupContext struct {
	// Parent is the entity the lookup was reached from, if any.
	Parent *entity.Entity

	// Relationship is the catalog edge being traversed, if any.
	Relationship *catalog.Relationship

	// Source names the upstream system the caller asked for.
	Source string

	// EffectiveTime is the as-of timestamp requested by the caller.
	EffectiveTime string
}

// SourceName returns the requested source system, defaulting to the
// primary upstream ("Athena") when unset.
func (lc *LookupContext) SourceName() string {
	if lc == nil || lc.Source == "" {
		return "Athena"
	}
	return lc.Source
}

// AsOf returns the effective timestamp, or fallback when unset.
func (lc *LookupContext) AsOf(fallback string) string {
	if lc == nil || lc.EffectiveTime == "" {
		return fallback
	}
	return lc.EffectiveTime
}

// Provider is the per-entity-family data source capability.
//
// Implementations must be safe for concurrent use; the engine performs no
// locking around provider calls.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Types lists the concrete entity types this provider serves.
	Types() []string

	// ResolveType maps a generic type plus identifier to the concrete
	// entity type, e.g. ("Instrument", instrumentId=OPT-9001) -> "Option".
	// The boolean is false when this provider cannot resolve the input.
	ResolveType(genericType, idType string, idValue map[string]string) (string, bool)

	// EntityByID fetches a single entity. Returns ErrNotFound when no
	// record matches. lc may be nil for root lookups.
	EntityByID(ctx context.Context, entityType, idType string, idValue map[string]string, lc *LookupContext) (*entity.Entity, error)

	// RelatedIDs lists identifiers of entities related to source via the
	// named relationship. An empty result is not an error.
	RelatedIDs(ctx context.Context, source *entity.Entity, rel catalog.Relationship) ([]RelatedID, error)
}
