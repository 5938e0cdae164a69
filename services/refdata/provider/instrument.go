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

// InstrumentProvider serves the instrument family: Stock, Option, Future
// and Bond entities.
type InstrumentProvider struct {
	data InstrumentData
}

// NewInstrumentProvider creates a provider over the loaded instrument
// datasets.
func NewInstrumentProvider(data InstrumentData) *InstrumentProvider {
	return &InstrumentProvider{data: data}
}

// Name implements Provider.
func (p *InstrumentProvider) Name() string { return "InstrumentDataProvider" }

// Types implements Provider.
func (p *InstrumentProvider) Types() []string {
	return []string{"Stock", "Option", "Future", "Bond"}
}

// ResolveType resolves the generic "Instrument" type by probing each
// instrument collection for the identifier.
func (p *InstrumentProvider) ResolveType(genericType, idType string, idValue map[string]string) (string, bool) {
	if genericType != "Instrument" {
		return "", false
	}
	for _, probe := range []struct {
		entityType string
		records    []Record
	}{
		{"Stock", p.data.Stocks},
		{"Option", p.data.Options},
		{"Future", p.data.Futures},
		{"Bond", p.data.Bonds},
	} {
		if _, ok := p.match(probe.records, probe.entityType, idType, idValue); ok {
			return probe.entityType, true
		}
	}
	return "", false
}

// EntityByID implements Provider.
func (p *InstrumentProvider) EntityByID(ctx context.Context, entityType, idType string, idValue map[string]string, lc *LookupContext) (*entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []Record
	switch entityType {
	case "Stock":
		records = p.data.Stocks
	case "Option":
		records = p.data.Options
	case "Future":
		records = p.data.Futures
	case "Bond":
		records = p.data.Bonds
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, entityType)
	}

	rec, ok := p.match(records, entityType, idType, idValue)
	if !ok {
		return nil, fmt.Errorf("%s %s=%v: %w", entityType, idType, idValue[idType], ErrNotFound)
	}

	switch entityType {
	case "Stock":
		return p.stockEntity(rec, lc), nil
	case "Option":
		return p.optionEntity(rec, lc), nil
	case "Future":
		return p.futureEntity(rec, lc), nil
	default:
		return p.bondEntity(rec, lc), nil
	}
}

// match finds a record by identifier. instrumentId and isin are direct
// fields; ric is searched through the record's trading lines.
func (p *InstrumentProvider) match(records []Record, entityType, idType string, idValue map[string]string) (Record, bool) {
	switch idType {
	case "instrumentId", "isin":
		return findBy(records, idType, idValue[idType])
	case "ric":
		want := idValue["ric"]
		if want == "" {
			return nil, false
		}
		for _, rec := range records {
			lines, _ := rec["tradingLines"].([]any)
			for _, l := range lines {
				if line, ok := l.(map[string]any); ok && str(line, "ric") == want {
					return rec, true
				}
			}
		}
	}
	return nil, false
}

// RelatedIDs implements Provider for the instrument-family relationships.
func (p *InstrumentProvider) RelatedIDs(ctx context.Context, source *entity.Entity, rel catalog.Relationship) ([]RelatedID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch rel.Name {
	case "HAS_LISTING":
		return p.listingIDs(source)
	case "HAS_ISSUER":
		return p.issuerIDs(source)
	case "IS_UNDERLYING_FOR":
		return p.optionIDsByUnderlying(source.ID()), nil
	case "HAS_UNDERLYING":
		if underlying, ok := source.Field("payload.underlyingInstrumentId"); ok {
			if id, isStr := underlying.(string); isStr && id != "" {
				return []RelatedID{{IDType: "instrumentId", IDValue: map[string]string{"instrumentId": id}}}, nil
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelationship, rel.Name)
	}
}

// listingIDs reads trading line ids off the source's raw payload.
func (p *InstrumentProvider) listingIDs(source *entity.Entity) ([]RelatedID, error) {
	lines, ok := source.Field("payload.tradingLines")
	if !ok {
		return nil, nil
	}
	list, _ := lines.([]any)
	out := make([]RelatedID, 0, len(list))
	for _, l := range list {
		line, ok := l.(map[string]any)
		if !ok {
			continue
		}
		if id := str(line, "tradingLineId"); id != "" {
			out = append(out, RelatedID{
				IDType:  "tradingLineId",
				IDValue: map[string]string{"tradingLineId": id},
			})
		}
	}
	return out, nil
}

// issuerIDs reads the issuing party off the source's raw payload.
func (p *InstrumentProvider) issuerIDs(source *entity.Entity) ([]RelatedID, error) {
	if v, ok := source.Field("payload.issuer.iPartyId"); ok {
		if id, isStr := v.(string); isStr && id != "" {
			return []RelatedID{{IDType: "entityId", IDValue: map[string]string{"entityId": id}}}, nil
		}
	}
	return nil, nil
}

// optionIDsByUnderlying scans the option collection for contracts whose
// underlying is the given instrument. The scan returns identifiers only;
// target entities are never materialized here, which is what keeps the
// expensive-relationship count cheap.
func (p *InstrumentProvider) optionIDsByUnderlying(underlyingID string) []RelatedID {
	var out []RelatedID
	for _, rec := range p.data.Options {
		if str(rec, "underlyingInstrumentId") == underlyingID {
			id := str(rec, "instrumentId")
			out = append(out, RelatedID{
				IDType:  "instrumentId",
				IDValue: map[string]string{"instrumentId": id},
			})
		}
	}
	return out
}

// stockEntity transforms a raw stock record into the renderer's field
// layout. When the stock is reached through a back-reference
// (HAS_UNDERLYING), a trimmed representation without the full payload is
// returned; it renders the same header but is not further expandable.
func (p *InstrumentProvider) stockEntity(rec Record, lc *LookupContext) *entity.Entity {
	id := str(rec, "instrumentId")
	data := map[string]any{
		"id":           id,
		"instrumentId": id,
		"titleLine1":   path(rec, "assetClassifications.bloomberg.securityType", "Stock"),
		"titleLine2":   str(rec, "name"),
		"status":       statusOf(rec),
		"idType":       "instrumentId",
		"source":       lc.SourceName(),
	}
	if lc != nil && lc.Relationship != nil && lc.Relationship.Name == "HAS_UNDERLYING" {
		data["isFurtherExpandable"] = false
		return entity.New("Stock", entity.ShapeGraphNode, data)
	}
	data["isin"] = str(rec, "isin")
	data["sector"] = path(rec, "assetClassifications.bloomberg.marketSector", "")
	data["effectiveDate"] = lc.AsOf(str(rec, "lastUpdatedTimestamp"))
	data["isFurtherExpandable"] = true
	data["payload"] = rec
	return entity.New("Stock", entity.ShapeGraphNode, data)
}

// optionEntity transforms a raw option record.
func (p *InstrumentProvider) optionEntity(rec Record, lc *LookupContext) *entity.Entity {
	id := str(rec, "instrumentId")
	data := map[string]any{
		"id":                  id,
		"instrumentId":        id,
		"titleLine1":          path(rec, "option.putOrCall", "Option"),
		"titleLine2":          str(rec, "name"),
		"status":              statusOf(rec),
		"isin":                str(rec, "isin"),
		"occSymbol":           path(rec, "option.occSymbol", ""),
		"putOrCall":           path(rec, "option.putOrCall", ""),
		"expirationDate":      path(rec, "option.expirationDate", ""),
		"idType":              "instrumentId",
		"effectiveDate":       lc.AsOf(str(rec, "lastUpdatedTimestamp")),
		"source":              lc.SourceName(),
		"isFurtherExpandable": true,
		"payload":             rec,
	}
	if strike, ok := entity.Lookup(rec, "option.strike.price"); ok {
		data["strikePrice"] = strike
	}
	return entity.New("Option", entity.ShapeGraphNode, data)
}

// futureEntity transforms a raw future record.
func (p *InstrumentProvider) futureEntity(rec Record, lc *LookupContext) *entity.Entity {
	id := str(rec, "instrumentId")
	return entity.New("Future", entity.ShapeGraphNode, map[string]any{
		"id":                  id,
		"instrumentId":        id,
		"titleLine1":          path(rec, "assetClassifications.bloomberg.securityType", "Future"),
		"titleLine2":          str(rec, "name"),
		"status":              statusOf(rec),
		"underlyingAsset":     str(rec, "underlyingAsset"),
		"expirationDate":      str(rec, "expirationDate"),
		"idType":              "instrumentId",
		"effectiveDate":       lc.AsOf(str(rec, "lastUpdatedTimestamp")),
		"source":              lc.SourceName(),
		"isFurtherExpandable": true,
		"payload":             rec,
	})
}

// bondEntity transforms a raw bond record.
func (p *InstrumentProvider) bondEntity(rec Record, lc *LookupContext) *entity.Entity {
	id := str(rec, "instrumentId")
	return entity.New("Bond", entity.ShapeGraphNode, map[string]any{
		"id":                  id,
		"instrumentId":        id,
		"titleLine1":          path(rec, "assetClassifications.bloomberg.securityType", "Bond"),
		"titleLine2":          str(rec, "name"),
		"status":              statusOf(rec),
		"isin":                str(rec, "isin"),
		"couponRate":          path(rec, "bond.couponRate", ""),
		"maturityDate":        path(rec, "bond.maturityDate", ""),
		"idType":              "instrumentId",
		"effectiveDate":       lc.AsOf(str(rec, "lastUpdatedTimestamp")),
		"source":              lc.SourceName(),
		"isFurtherExpandable": true,
		"payload":             rec,
	})
}

// statusOf reads the record status, defaulting to UNKNOWN.
func statusOf(rec Record) string {
	if s := str(rec, "status"); s != "" {
		return s
	}
	return "UNKNOWN"
}
