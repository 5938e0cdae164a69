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

// ListingProvider serves Listing entities (trading lines).
type ListingProvider struct {
	listings []Record
}

// NewListingProvider creates a provider over the loaded listing dataset.
func NewListingProvider(listings []Record) *ListingProvider {
	return &ListingProvider{listings: listings}
}

// Name implements Provider.
func (p *ListingProvider) Name() string { return "ListingDataProvider" }

// Types implements Provider.
func (p *ListingProvider) Types() []string { return []string{"Listing"} }

// ResolveType implements Provider. Listing is already concrete.
func (p *ListingProvider) ResolveType(genericType, idType string, idValue map[string]string) (string, bool) {
	if genericType != "Listing" {
		return "", false
	}
	if _, ok := p.match(idType, idValue); ok {
		return "Listing", true
	}
	return "", false
}

// EntityByID implements Provider.
func (p *ListingProvider) EntityByID(ctx context.Context, entityType, idType string, idValue map[string]string, lc *LookupContext) (*entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entityType != "Listing" {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, entityType)
	}
	rec, ok := p.match(idType, idValue)
	if !ok {
		return nil, fmt.Errorf("Listing %s=%v: %w", idType, idValue[idType], ErrNotFound)
	}

	id := str(rec, "tradingLineId")
	return entity.New("Listing", entity.ShapeGraphNode, map[string]any{
		"id":                  id,
		"tradingLineId":       id,
		"titleLine1":          "Listing",
		"titleLine2":          str(rec, "name"),
		"status":              statusOf(rec),
		"ric":                 str(rec, "ric"),
		"sedol":               str(rec, "sedol"),
		"currency":            str(rec, "currency"),
		"idType":              "tradingLineId",
		"effectiveDate":       lc.AsOf(str(rec, "lastUpdatedTimestamp")),
		"source":              lc.SourceName(),
		"isFurtherExpandable": true,
		"payload":             rec,
	}), nil
}

func (p *ListingProvider) match(idType string, idValue map[string]string) (Record, bool) {
	switch idType {
	case "tradingLineId", "ric", "sedol":
		return findBy(p.listings, idType, idValue[idType])
	}
	return nil, false
}

// RelatedIDs implements Provider. Listings only relate outward to their
// exchange.
func (p *ListingProvider) RelatedIDs(ctx context.Context, source *entity.Entity, rel catalog.Relationship) ([]RelatedID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rel.Name != "LISTED_ON" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelationship, rel.Name)
	}
	if v, ok := source.Field("payload.exchangeId"); ok {
		if id, isStr := v.(string); isStr && id != "" {
			return []RelatedID{{IDType: "exchangeId", IDValue: map[string]string{"exchangeId": id}}}, nil
		}
	}
	return nil, nil
}
