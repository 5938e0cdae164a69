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

import (
	"context"
	"fmt"

	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
)

// ExchangeProvider serves Exchange entities. Exchanges are graph leaves;
// they have no outgoing relationships and are not further expandable.
type ExchangeProvider struct {
	exchanges []Record
}

// NewExchangeProvider creates a provider over the loaded exchange dataset.
func NewExchangeProvider(exchanges []Record) *ExchangeProvider {
	return &ExchangeProvider{exchanges: exchanges}
}

// Name implements Provider.
func (p *ExchangeProvider) Name() string { return "ExchangeDataProvider" }

// Types implements Provider.
func (p *ExchangeProvider) Types() []string { return []string{"Exchange"} }

// ResolveType implements Provider. Exchange is already concrete.
func (p *ExchangeProvider) ResolveType(genericType, idType string, idValue map[string]string) (string, bool) {
	if genericType != "Exchange" || idType != "exchangeId" {
		return "", false
	}
	if _, ok := findBy(p.exchanges, "exchangeId", idValue["exchangeId"]); ok {
		return "Exchange", true
	}
	return "", false
}

// EntityByID implements Provider.
func (p *ExchangeProvider) EntityByID(ctx context.Context, entityType, idType string, idValue map[string]string, lc *LookupContext) (*entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entityType != "Exchange" || idType != "exchangeId" {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoProvider, entityType, idType)
	}
	rec, ok := findBy(p.exchanges, "exchangeId", idValue["exchangeId"])
	if !ok {
		return nil, fmt.Errorf("Exchange exchangeId=%s: %w", idValue["exchangeId"], ErrNotFound)
	}

	id := str(rec, "exchangeId")
	return entity.New("Exchange", entity.ShapeGraphNode, map[string]any{
		"id":                  id,
		"exchangeId":          id,
		"titleLine1":          "Exchange",
		"titleLine2":          str(rec, "name"),
		"status":              statusOf(rec),
		"mic":                 str(rec, "mic"),
		"idType":              "exchangeId",
		"effectiveDate":       lc.AsOf(str(rec, "lastUpdatedTimestamp")),
		"source":              lc.SourceName(),
		"isFurtherExpandable": false,
		"payload":             rec,
	}), nil
}

// RelatedIDs implements Provider. Exchanges are terminal nodes.
func (p *ExchangeProvider) RelatedIDs(ctx context.Context, source *entity.Entity, rel catalog.Relationship) ([]RelatedID, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnknownRelationship, rel.Name)
}
