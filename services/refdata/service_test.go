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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRefData/services/refdata/cache"
	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/provider"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)

	ds, err := provider.LoadDatasets("")
	require.NoError(t, err)
	r := provider.NewRegistry()
	require.NoError(t, r.Register(provider.NewInstrumentProvider(ds.Instruments)))
	require.NoError(t, r.Register(provider.NewListingProvider(ds.Listings)))
	require.NoError(t, r.Register(provider.NewExchangeProvider(ds.Exchanges)))
	require.NoError(t, r.Register(provider.NewPartyProvider(ds.Parties)))

	return NewService(cat, r, cache.New(), nil)
}

func stockGraphRequest() BuildGraphRequest {
	return BuildGraphRequest{
		EntityType: "Stock",
		IDType:     "instrumentId",
		IDValue:    map[string]string{"instrumentId": "STK-100"},
		MaxDepth:   2,
	}
}

func TestService_BuildGraphCaches(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.BuildGraph(ctx, stockGraphRequest())
	require.NoError(t, err)
	require.NotEmpty(t, first.Nodes)

	second, err := svc.BuildGraph(ctx, stockGraphRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := svc.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits, "the repeat request must hit the cache")
	assert.Equal(t, 1, stats.Entries)
}

func TestService_BuildGraphResolvesGenericType(t *testing.T) {
	svc := newTestService(t)

	req := stockGraphRequest()
	req.EntityType = "Instrument"
	res, err := svc.BuildGraph(context.Background(), req)
	require.NoError(t, err)

	found := false
	for _, n := range res.Nodes {
		if n["id"] == "STK-100" {
			found = true
			assert.Equal(t, "Stock", n["refDataType"], "generic Instrument resolves to Stock")
		}
	}
	assert.True(t, found)
}

func TestService_ExpandNodeFingerprintIgnoresVisitedOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := ExpandNodeRequest{
		EntityType: "Stock",
		IDType:     "instrumentId",
		IDValue:    map[string]string{"instrumentId": "STK-100"},
	}

	a := base
	a.VisitedIDs = []string{"STK-100", "TL-1001"}
	_, err := svc.ExpandNode(ctx, a)
	require.NoError(t, err)

	b := base
	b.VisitedIDs = []string{"TL-1001", "STK-100"}
	_, err = svc.ExpandNode(ctx, b)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), svc.CacheStats().Hits,
		"visited-set order must not change the cache key")
}

func TestService_BuildTreeList(t *testing.T) {
	svc := newTestService(t)

	page, err := svc.BuildTreeList(context.Background(), TreeListRequest{
		SourceEntityID:   "STK-100",
		RelationshipName: "IS_UNDERLYING_FOR",
		Page:             2,
		PageSize:         1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestService_ResolveType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	typ, err := svc.ResolveType(ctx, ResolveTypeRequest{
		GenericType: "Instrument",
		IDType:      "instrumentId",
		IDValue:     map[string]string{"instrumentId": "OPT-9002"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Option", typ)

	_, err = svc.ResolveType(ctx, ResolveTypeRequest{
		GenericType: "Instrument",
		IDType:      "instrumentId",
		IDValue:     map[string]string{"instrumentId": "NOPE"},
	})
	assert.ErrorIs(t, err, ErrUnresolvedType)
}

func TestService_NodePayload(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.NodePayload(context.Background(), NodePayloadRequest{
		EntityType: "Stock",
		IDType:     "instrumentId",
		IDValue:    map[string]string{"instrumentId": "STK-100"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Stock", resp.EntityType)

	rec, ok := resp.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "STK-100", rec["instrumentId"])
}

func TestService_InvalidateCache(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.BuildGraph(ctx, stockGraphRequest())
	require.NoError(t, err)
	require.Equal(t, 1, svc.CacheStats().Entries)

	dropped := svc.InvalidateCache("")
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, svc.CacheStats().Entries)
}

func TestService_Metadata(t *testing.T) {
	svc := newTestService(t)
	meta := svc.Metadata(context.Background())
	assert.NotEmpty(t, meta.ReferenceDataTypes)
}
