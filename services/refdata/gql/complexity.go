// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gql

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// Complexity limits. A query is rejected before execution when its
// estimated cost or nesting depth exceeds these.
const (
	MaxComplexity = 1000
	MaxDepth      = 10

	costBuildGraph    = 100
	costExpandNode    = 50
	costBuildTreeList = 75

	// defaultListSize is assumed for list-valued fields when the query
	// does not bound them itself.
	defaultListSize = 10
)

// Sentinel errors for complexity validation.
var (
	ErrTooComplex = errors.New("query exceeds complexity limit")
	ErrTooDeep    = errors.New("query exceeds depth limit")
)

// operationCosts maps root fields to their base cost. Unlisted fields
// cost 1.
var operationCosts = map[string]int{
	"buildGraph":    costBuildGraph,
	"expandNode":    costExpandNode,
	"buildTreeList": costBuildTreeList,
}

// validateComplexity walks the operation's selection set and rejects
// queries that would fan out excessively.
//
// The estimate is deliberately coarse: root operations carry fixed
// costs, list-valued fields multiply their children by the requested
// page size (or a default), and everything else costs 1. Anything the
// walker does not understand is costed at the cheap end, so a schema
// addition cannot silently start rejecting queries.
func validateComplexity(op *ast.OperationDefinition, vars map[string]any) error {
	cost, depth := walkSelections(op.SelectionSet, vars, 1)
	if depth > MaxDepth {
		return fmt.Errorf("%w: depth %d (limit %d)", ErrTooDeep, depth, MaxDepth)
	}
	if cost > MaxComplexity {
		return fmt.Errorf("%w: cost %d (limit %d)", ErrTooComplex, cost, MaxComplexity)
	}
	return nil
}

func walkSelections(sels ast.SelectionSet, vars map[string]any, level int) (cost, maxDepth int) {
	maxDepth = level - 1
	for _, sel := range sels {
		field, ok := sel.(*ast.Field)
		if !ok {
			// Fragments are flattened by the parser for our schema;
			// anything else is costed minimally.
			cost++
			continue
		}

		base := 1
		if c, known := operationCosts[field.Name]; known {
			base = c
		}

		childCost, childDepth := walkSelections(field.SelectionSet, vars, level+1)
		if mult := listMultiplier(field, vars); mult > 1 {
			childCost *= mult
		}
		cost += base + childCost
		if childDepth > maxDepth {
			maxDepth = childDepth
		}
		if level > maxDepth {
			maxDepth = level
		}
	}
	return cost, maxDepth
}

// listMultiplier returns how many items a list-valued field is expected
// to yield, from its pageSize argument when present.
func listMultiplier(field *ast.Field, vars map[string]any) int {
	switch field.Name {
	case "nodes", "edges", "rows", "errors", "columns":
		return defaultListSize
	case "buildTreeList":
		if arg := field.Arguments.ForName("pageSize"); arg != nil {
			v, err := arg.Value.Value(vars)
			if err == nil {
				if n, ok := toInt(v); ok && n > 0 {
					return n
				}
			}
		}
		return defaultListSize
	}
	return 1
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
