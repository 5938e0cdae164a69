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
	"github.com/AleutianAI/AleutianRefData/services/refdata/tree"
)

// ServiceVersion is the reference-data service version.
const ServiceVersion = "0.1.0"

// ErrorResponse is the error payload returned by all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// BuildGraphRequest asks for a full graph around a root entity.
type BuildGraphRequest struct {
	EntityType    string            `json:"entityType" binding:"required"`
	IDType        string            `json:"idType" binding:"required"`
	IDValue       map[string]string `json:"idValue" binding:"required,idvalues"`
	MaxDepth      int               `json:"maxDepth" binding:"omitempty,min=1,max=5"`
	Source        string            `json:"source"`
	EffectiveTime string            `json:"effectiveTime"`
}

// ExpandNodeRequest asks for the immediate neighborhood of one node.
// VisitedIDs lists node ids already on the caller's canvas; only nodes
// outside that set are returned.
type ExpandNodeRequest struct {
	EntityType    string            `json:"entityType" binding:"required"`
	IDType        string            `json:"idType" binding:"required"`
	IDValue       map[string]string `json:"idValue" binding:"required,idvalues"`
	VisitedIDs    []string          `json:"visitedIds"`
	Source        string            `json:"source"`
	EffectiveTime string            `json:"effectiveTime"`
}

// TreeListRequest asks for one page of the related set behind an
// aggregation placeholder. SourceEntityID and RelationshipName come from
// the placeholder's idValue.
type TreeListRequest struct {
	SourceEntityID   string                 `json:"sourceEntityId" binding:"required"`
	RelationshipName string                 `json:"relationshipName" binding:"required"`
	TargetType       string                 `json:"targetType"`
	Page             int                    `json:"page" binding:"omitempty,min=1"`
	PageSize         int                    `json:"pageSize" binding:"omitempty,min=1,max=200"`
	SortKey          string                 `json:"sortKey"`
	Filters          map[string]tree.Filter `json:"filters"`
	Source           string                 `json:"source"`
	EffectiveTime    string                 `json:"effectiveTime"`
}

// ResolveTypeRequest maps a generic type plus identifier to the concrete
// entity type backing it.
type ResolveTypeRequest struct {
	GenericType string            `json:"genericType" binding:"required"`
	IDType      string            `json:"idType" binding:"required"`
	IDValue     map[string]string `json:"idValue" binding:"required,idvalues"`
}

// ResolveTypeResponse reports the outcome of a type resolution. The
// generic type is echoed back; Resolved is false when no provider
// claims the identifier, which is an answer rather than an error.
type ResolveTypeResponse struct {
	GenericType  string `json:"genericType"`
	SpecificType string `json:"specificType,omitempty"`
	Resolved     bool   `json:"resolved"`
}

// NodePayloadRequest fetches the raw upstream record behind a node.
type NodePayloadRequest struct {
	EntityType    string            `json:"entityType" binding:"required"`
	IDType        string            `json:"idType" binding:"required"`
	IDValue       map[string]string `json:"idValue" binding:"required,idvalues"`
	Source        string            `json:"source"`
	EffectiveTime string            `json:"effectiveTime"`
}

// NodePayloadResponse carries the raw record.
type NodePayloadResponse struct {
	EntityType string `json:"entityType"`
	Payload    any    `json:"payload"`
}

// InvalidateCacheRequest drops cached results. Pattern is advisory; the
// cache clears wholesale.
type InvalidateCacheRequest struct {
	Pattern string `json:"pattern"`
}

// InvalidateCacheResponse reports how many entries were dropped.
type InvalidateCacheResponse struct {
	Dropped int `json:"dropped"`
}
