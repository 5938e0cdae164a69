// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gql exposes the reference-data operations over a GraphQL
// endpoint.
//
// The schema is small and fixed, so queries are parsed and validated
// with gqlparser and dispatched to the service by root field name
// rather than through generated resolvers. Queries are rejected before
// execution when they exceed the complexity or depth limits.
package gql

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/AleutianAI/AleutianRefData/services/refdata"
)

//go:embed schema.graphql
var schemaSource string

var schema = gqlparser.MustLoadSchema(&ast.Source{
	Name:  "schema.graphql",
	Input: schemaSource,
})

// Handler serves POST /v1/refdata/graphql.
type Handler struct {
	svc *refdata.Service
}

// NewHandler creates a GraphQL handler over the service.
func NewHandler(svc *refdata.Service) *Handler {
	return &Handler{svc: svc}
}

// request is the standard GraphQL HTTP request envelope.
type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// response is the standard GraphQL HTTP response envelope.
type response struct {
	Data   map[string]any   `json:"data,omitempty"`
	Errors []gqlerror.Error `json:"errors,omitempty"`
}

// RegisterRoutes registers the GraphQL endpoint with the router group.
func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.POST("/refdata/graphql", h.HandleQuery)
}

// HandleQuery handles POST /v1/refdata/graphql.
//
// Description:
//
//	Parses and validates the query against the embedded schema, runs
//	the complexity validator, and dispatches each root field to the
//	service. Per GraphQL convention, resolver failures are reported in
//	the response's errors list with a 200 status; only malformed
//	requests produce a non-200.
func (h *Handler) HandleQuery(c *gin.Context) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, response{
			Errors: []gqlerror.Error{{Message: "invalid GraphQL request body"}},
		})
		return
	}

	doc, errs := gqlparser.LoadQuery(schema, req.Query)
	if len(errs) > 0 {
		out := make([]gqlerror.Error, 0, len(errs))
		for _, e := range errs {
			out = append(out, *e)
		}
		c.JSON(http.StatusOK, response{Errors: out})
		return
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		c.JSON(http.StatusBadRequest, response{
			Errors: []gqlerror.Error{{Message: "operation not found: " + req.OperationName}},
		})
		return
	}

	if err := validateComplexity(op, req.Variables); err != nil {
		c.JSON(http.StatusOK, response{
			Errors: []gqlerror.Error{{Message: err.Error()}},
		})
		return
	}

	data, fieldErrs := h.execute(c.Request.Context(), op, req.Variables)
	c.JSON(http.StatusOK, response{Data: data, Errors: fieldErrs})
}
