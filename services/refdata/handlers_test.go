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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())

	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(newTestService(t)))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleBuildGraph_OK(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/refdata/graph/build", stockGraphRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var res struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Nodes)
	assert.NotEmpty(t, res.Edges)
}

func TestHandleBuildGraph_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := stockGraphRequest()
	req.IDValue = map[string]string{"instrumentId": "STK-404"}
	w := postJSON(t, router, "/v1/refdata/graph/build", req)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestHandleBuildGraph_InvalidBody(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/refdata/graph/build", map[string]any{"entityType": "Stock"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestHandleBuildGraph_BlankIdentifier(t *testing.T) {
	router := newTestRouter(t)

	req := stockGraphRequest()
	req.IDValue = map[string]string{"instrumentId": "   "}
	w := postJSON(t, router, "/v1/refdata/graph/build", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestHandleTreeList_OK(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/refdata/tree/list", TreeListRequest{
		SourceEntityID:   "STK-100",
		RelationshipName: "IS_UNDERLYING_FOR",
		Page:             1,
		PageSize:         2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		TotalCount int  `json:"totalCount"`
		HasNext    bool `json:"hasNext"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.TotalCount)
	assert.True(t, page.HasNext)
}

func TestHandleTreeList_BadSort(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/refdata/tree/list", TreeListRequest{
		SourceEntityID:   "STK-100",
		RelationshipName: "IS_UNDERLYING_FOR",
		SortKey:          "openInterest",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleResolveType(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/refdata/resolve", ResolveTypeRequest{
		GenericType: "Party",
		IDType:      "eci",
		IDValue:     map[string]string{"eci": "ECI-77001"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ResolveTypeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Party", resp.GenericType)
	assert.Equal(t, "Client", resp.SpecificType)
	assert.True(t, resp.Resolved)
}

func TestHandleResolveType_Unresolved(t *testing.T) {
	router := newTestRouter(t)

	// Non-resolution is an answer, not an error.
	w := postJSON(t, router, "/v1/refdata/resolve", ResolveTypeRequest{
		GenericType: "Party",
		IDType:      "eci",
		IDValue:     map[string]string{"eci": "ECI-99999"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ResolveTypeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Party", resp.GenericType)
	assert.Empty(t, resp.SpecificType)
	assert.False(t, resp.Resolved)
}

func TestHandleMetadata(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/refdata/metadata", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Instrument")
}

func TestHandleHealthAndReady(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/v1/refdata/health", "/v1/refdata/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestHandleCacheEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// Warm the cache.
	w := postJSON(t, router, "/v1/refdata/graph/build", stockGraphRequest())
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/refdata/cache/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Entries int `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Entries)

	w = postJSON(t, router, "/v1/refdata/cache/invalidate", InvalidateCacheRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	var inv InvalidateCacheResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
	assert.Equal(t, 1, inv.Dropped)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1, 1))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code, "burst of one must throttle the second hit")
}
