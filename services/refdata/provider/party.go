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

// PartyProvider serves the party family: InstrumentParty (issuers) and
// Client entities.
type PartyProvider struct {
	data PartyData
}

// NewPartyProvider creates a provider over the loaded party datasets.
func NewPartyProvider(data PartyData) *PartyProvider {
	return &PartyProvider{data: data}
}

// Name implements Provider.
func (p *PartyProvider) Name() string { return "PartyDataProvider" }

// Types implements Provider.
func (p *PartyProvider) Types() []string { return []string{"InstrumentParty", "Client"} }

// ResolveType resolves the generic "Party" type. entityId identifies an
// InstrumentParty; eci identifies a Client.
func (p *PartyProvider) ResolveType(genericType, idType string, idValue map[string]string) (string, bool) {
	if genericType != "Party" {
		return "", false
	}
	switch idType {
	case "entityId":
		if _, ok := findBy(p.data.InstrumentParties, "entityId", idValue["entityId"]); ok {
			return "InstrumentParty", true
		}
	case "eci":
		if _, ok := findBy(p.data.Clients, "eci", idValue["eci"]); ok {
			return "Client", true
		}
	}
	return "", false
}

// EntityByID implements Provider.
func (p *PartyProvider) EntityByID(ctx context.Context, entityType, idType string, idValue map[string]string, lc *LookupContext) (*entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch entityType {
	case "InstrumentParty":
		rec, ok := findBy(p.data.InstrumentParties, idType, idValue[idType])
		if !ok {
			return nil, fmt.Errorf("InstrumentParty %s=%v: %w", idType, idValue[idType], ErrNotFound)
		}
		return p.instrumentPartyEntity(rec, lc), nil
	case "Client":
		rec, ok := findBy(p.data.Clients, idType, idValue[idType])
		if !ok {
			return nil, fmt.Errorf("Client %s=%v: %w", idType, idValue[idType], ErrNotFound)
		}
		return p.clientEntity(rec, lc), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, entityType)
	}
}

// RelatedIDs implements Provider. An instrument party relates to its
// client record through the shared ECI.
func (p *PartyProvider) RelatedIDs(ctx context.Context, source *entity.Entity, rel catalog.Relationship) ([]RelatedID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rel.Name != "PARTY_OF" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelationship, rel.Name)
	}
	if v, ok := source.Field("eci"); ok {
		if eci, isStr := v.(string); isStr && eci != "" {
			return []RelatedID{{IDType: "eci", IDValue: map[string]string{"eci": eci}}}, nil
		}
	}
	return nil, nil
}

func (p *PartyProvider) instrumentPartyEntity(rec Record, lc *LookupContext) *entity.Entity {
	id := str(rec, "entityId")
	return entity.New("InstrumentParty", entity.ShapeGraphNode, map[string]any{
		"id":                  id,
		"entityId":            id,
		"titleLine1":          "Issuer",
		"titleLine2":          str(rec, "name"),
		"status":              statusOf(rec),
		"eci":                 str(rec, "eci"),
		"spn":                 str(rec, "spn"),
		"idType":              "entityId",
		"effectiveDate":       lc.AsOf(str(rec, "lastUpdatedTimestamp")),
		"source":              lc.SourceName(),
		"isFurtherExpandable": true,
		"payload":             rec,
	})
}

func (p *PartyProvider) clientEntity(rec Record, lc *LookupContext) *entity.Entity {
	eci := str(rec, "eci")
	return entity.New("Client", entity.ShapeGraphNode, map[string]any{
		"id":                  eci,
		"eci":                 eci,
		"entityId":            str(rec, "entityId"),
		"titleLine1":          str(rec, "clientType"),
		"titleLine2":          str(rec, "name"),
		"status":              statusOf(rec),
		"spn":                 str(rec, "spn"),
		"idType":              "eci",
		"effectiveDate":       lc.AsOf(str(rec, "lastUpdatedTimestamp")),
		"source":              lc.SourceName(),
		"isFurtherExpandable": false,
		"payload":             rec,
	})
}
