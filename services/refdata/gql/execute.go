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
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/AleutianAI/AleutianRefData/services/refdata"
	"github.com/AleutianAI/AleutianRefData/services/refdata/tree"
)

// execute dispatches every root field of the operation to the service.
// Fields fail independently; a failing field contributes a null under
// its alias plus an entry in the errors list.
func (h *Handler) execute(ctx context.Context, op *ast.OperationDefinition, vars map[string]any) (map[string]any, []gqlerror.Error) {
	data := make(map[string]any)
	var errs []gqlerror.Error

	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		alias := field.Alias
		if alias == "" {
			alias = field.Name
		}

		v, err := h.resolve(ctx, field, vars)
		if err != nil {
			data[alias] = nil
			errs = append(errs, gqlerror.Error{
				Message: err.Error(),
				Path:    ast.Path{ast.PathName(alias)},
			})
			continue
		}
		data[alias] = project(toJSON(v), field.SelectionSet)
	}
	return data, errs
}

func (h *Handler) resolve(ctx context.Context, field *ast.Field, vars map[string]any) (any, error) {
	args := field.ArgumentMap(vars)

	switch field.Name {
	case "buildGraph":
		return h.svc.BuildGraph(ctx, refdata.BuildGraphRequest{
			EntityType:    argString(args, "entityType"),
			IDType:        argString(args, "idType"),
			IDValue:       argStringMap(args, "idValue"),
			MaxDepth:      argInt(args, "maxDepth"),
			Source:        argString(args, "source"),
			EffectiveTime: argString(args, "effectiveTime"),
		})
	case "expandNode":
		return h.svc.ExpandNode(ctx, refdata.ExpandNodeRequest{
			EntityType:    argString(args, "entityType"),
			IDType:        argString(args, "idType"),
			IDValue:       argStringMap(args, "idValue"),
			VisitedIDs:    argStringList(args, "visitedIds"),
			Source:        argString(args, "source"),
			EffectiveTime: argString(args, "effectiveTime"),
		})
	case "buildTreeList":
		return h.svc.BuildTreeList(ctx, refdata.TreeListRequest{
			SourceEntityID:   argString(args, "sourceEntityId"),
			RelationshipName: argString(args, "relationshipName"),
			TargetType:       argString(args, "targetType"),
			Page:             argInt(args, "page"),
			PageSize:         argInt(args, "pageSize"),
			SortKey:          argString(args, "sortKey"),
			Filters:          argFilters(args, "filters"),
			Source:           argString(args, "source"),
			EffectiveTime:    argString(args, "effectiveTime"),
		})
	case "resolveType":
		req := refdata.ResolveTypeRequest{
			GenericType: argString(args, "genericType"),
			IDType:      argString(args, "idType"),
			IDValue:     argStringMap(args, "idValue"),
		}
		specific, err := h.svc.ResolveType(ctx, req)
		if err != nil {
			if errors.Is(err, refdata.ErrUnresolvedType) {
				return refdata.ResolveTypeResponse{GenericType: req.GenericType}, nil
			}
			return nil, err
		}
		return refdata.ResolveTypeResponse{
			GenericType:  req.GenericType,
			SpecificType: specific,
			Resolved:     true,
		}, nil
	case "nodePayload":
		resp, err := h.svc.NodePayload(ctx, refdata.NodePayloadRequest{
			EntityType:    argString(args, "entityType"),
			IDType:        argString(args, "idType"),
			IDValue:       argStringMap(args, "idValue"),
			Source:        argString(args, "source"),
			EffectiveTime: argString(args, "effectiveTime"),
		})
		if err != nil {
			return nil, err
		}
		return resp.Payload, nil
	case "metadata":
		return h.svc.Metadata(ctx), nil
	case "invalidateCache":
		return h.svc.InvalidateCache(argString(args, "pattern")), nil
	default:
		return nil, fmt.Errorf("unknown field: %s", field.Name)
	}
}

// project trims a resolved value to the query's selection set. JSON
// scalar leaves have no selections and pass through whole.
func project(v any, sels ast.SelectionSet) any {
	if len(sels) == 0 {
		return v
	}
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(sels))
		for _, sel := range sels {
			field, ok := sel.(*ast.Field)
			if !ok {
				continue
			}
			alias := field.Alias
			if alias == "" {
				alias = field.Name
			}
			out[alias] = project(val[field.Name], field.SelectionSet)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = project(item, sels)
		}
		return out
	default:
		return v
	}
}

// toJSON normalizes a typed result into the generic JSON shape the
// projector walks.
func toJSON(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]any, key string) int {
	switch n := args[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func argStringMap(args map[string]any, key string) map[string]string {
	m, ok := args[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, isStr := v.(string); isStr {
			out[k] = s
		}
	}
	return out
}

func argStringList(args map[string]any, key string) []string {
	list, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, isStr := v.(string); isStr {
			out = append(out, s)
		}
	}
	return out
}

// argFilters accepts either a bare string per column (exact match) or
// an object with value/from/to.
func argFilters(args map[string]any, key string) map[string]tree.Filter {
	m, ok := args[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]tree.Filter, len(m))
	for col, raw := range m {
		switch f := raw.(type) {
		case string:
			out[col] = tree.Filter{Value: f}
		case map[string]any:
			out[col] = tree.Filter{
				Value: stringAt(f, "value"),
				From:  stringAt(f, "from"),
				To:    stringAt(f, "to"),
			}
		}
	}
	return out
}

func stringAt(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
