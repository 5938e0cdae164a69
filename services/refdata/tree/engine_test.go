// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/provider"
)

func testEngine(t *testing.T) *Engine {
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
	return NewEngine(cat, r, nil)
}

func optionChainRequest() Request {
	return Request{
		SourceEntityID:   "STK-100",
		RelationshipName: "IS_UNDERLYING_FOR",
	}
}

// rowColumn digs the rendered value of one column out of a list row.
func rowColumn(t *testing.T, row map[string]any, key string) any {
	t.Helper()
	cols, ok := row["columns"].([]any)
	require.True(t, ok, "row must carry columns")
	for _, c := range cols {
		m := c.(map[string]any)
		if m["key"] == key {
			return m["value"]
		}
	}
	return nil
}

func TestPaginate_FullChain(t *testing.T) {
	e := testEngine(t)

	page, err := e.Paginate(context.Background(), optionChainRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Rows, 3)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)
	require.NotEmpty(t, page.Columns)
	assert.Equal(t, "instrumentId", page.Columns[0].Key)
}

func TestPaginate_TargetTypeNarrowsLookup(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	req := optionChainRequest()
	req.TargetType = "Option"
	page, err := e.Paginate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)

	req.TargetType = "Listing"
	_, err = e.Paginate(ctx, req)
	assert.ErrorIs(t, err, catalog.ErrUnknownRelationship,
		"a mismatched target type must not fall back to another source")
}

func TestPaginate_MiddlePageHasBothFlags(t *testing.T) {
	e := testEngine(t)

	req := optionChainRequest()
	req.Page = 2
	req.PageSize = 1
	page, err := e.Paginate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Rows, 1)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestPaginate_PastEndIsEmpty(t *testing.T) {
	e := testEngine(t)

	req := optionChainRequest()
	req.Page = 5
	req.PageSize = 2
	page, err := e.Paginate(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, page.Rows)
	assert.Equal(t, 3, page.TotalCount)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestPaginate_SortByStrikeDescending(t *testing.T) {
	e := testEngine(t)

	req := optionChainRequest()
	req.SortKey = "strikePrice:desc"
	page, err := e.Paginate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Rows, 3)

	assert.Equal(t, "OPT-9003", rowColumn(t, page.Rows[0], "instrumentId"), "160 strike first")
	assert.Equal(t, "OPT-9001", rowColumn(t, page.Rows[1], "instrumentId"))
	assert.Equal(t, "OPT-9002", rowColumn(t, page.Rows[2], "instrumentId"), "140 strike last")
}

func TestPaginate_SortByExpiration(t *testing.T) {
	e := testEngine(t)

	req := optionChainRequest()
	req.SortKey = "expirationDate"
	page, err := e.Paginate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Rows, 3)

	assert.Equal(t, "2026-06-19", rowColumn(t, page.Rows[0], "expirationDate"))
	assert.Equal(t, "2026-12-18", rowColumn(t, page.Rows[2], "expirationDate"))
}

func TestPaginate_EnumFilter(t *testing.T) {
	e := testEngine(t)

	req := optionChainRequest()
	req.Filters = map[string]Filter{"putOrCall": {Value: "CALL"}}
	page, err := e.Paginate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalCount)
	for _, row := range page.Rows {
		assert.Equal(t, "CALL", rowColumn(t, row, "putOrCall"))
	}
}

func TestPaginate_DateRangeFilter(t *testing.T) {
	e := testEngine(t)

	req := optionChainRequest()
	req.Filters = map[string]Filter{
		"expirationDate": {From: "2026-07-01", To: "2026-12-31"},
	}
	page, err := e.Paginate(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 2, page.TotalCount)
	assert.Equal(t, "OPT-9002", rowColumn(t, page.Rows[0], "instrumentId"))
	assert.Equal(t, "OPT-9003", rowColumn(t, page.Rows[1], "instrumentId"))
}

func TestPaginate_FilterThenSortThenPage(t *testing.T) {
	e := testEngine(t)

	req := optionChainRequest()
	req.Filters = map[string]Filter{"putOrCall": {Value: "CALL"}}
	req.SortKey = "strikePrice:desc"
	req.Page = 2
	req.PageSize = 1
	page, err := e.Paginate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalCount)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "OPT-9001", rowColumn(t, page.Rows[0], "instrumentId"))
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestPaginate_BadInput(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	t.Run("unknown relationship", func(t *testing.T) {
		req := optionChainRequest()
		req.RelationshipName = "HAS_DIVIDENDS"
		_, err := e.Paginate(ctx, req)
		assert.ErrorIs(t, err, catalog.ErrUnknownRelationship)
	})

	t.Run("not paginatable", func(t *testing.T) {
		req := Request{SourceEntityID: "STK-100", RelationshipName: "HAS_LISTING"}
		_, err := e.Paginate(ctx, req)
		assert.ErrorIs(t, err, ErrNotPaginatable)
	})

	t.Run("unsortable key", func(t *testing.T) {
		req := optionChainRequest()
		req.SortKey = "openInterest"
		_, err := e.Paginate(ctx, req)
		assert.ErrorIs(t, err, ErrBadSortKey)
	})

	t.Run("unfilterable key", func(t *testing.T) {
		req := optionChainRequest()
		req.Filters = map[string]Filter{"strikePrice": {Value: "150"}}
		_, err := e.Paginate(ctx, req)
		assert.ErrorIs(t, err, ErrBadFilterKey)
	})

	t.Run("bad paging", func(t *testing.T) {
		req := optionChainRequest()
		req.PageSize = MaxPageSize + 1
		_, err := e.Paginate(ctx, req)
		assert.ErrorIs(t, err, ErrBadPage)
	})

	t.Run("missing source", func(t *testing.T) {
		req := optionChainRequest()
		req.SourceEntityID = "STK-404"
		_, err := e.Paginate(ctx, req)
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})
}
