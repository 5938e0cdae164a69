// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package render

import (
	"fmt"

	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
)

// Template is a compiled view template for one entity type.
//
// Two fixed composite parts, header and footer, are merged with the body
// template matching the requested shape. Compile once at configuration
// load and reuse across renders.
type Template struct {
	header Node
	footer Node
	bodies map[entity.Shape]Node
}

// CompileTemplate compiles the raw header/footer/body trees for one
// entity type.
//
// bodies is keyed by shape name ("graph-node", "list-row"). A missing
// header, footer, or body map is allowed; the corresponding part simply
// contributes nothing.
func CompileTemplate(header, footer any, bodies map[string]any) (*Template, error) {
	t := &Template{bodies: make(map[entity.Shape]Node, len(bodies))}

	var err error
	if header != nil {
		if t.header, err = Compile(header); err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
	}
	if footer != nil {
		if t.footer, err = Compile(footer); err != nil {
			return nil, fmt.Errorf("footer: %w", err)
		}
	}
	for shape, body := range bodies {
		n, err := Compile(body)
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", shape, err)
		}
		t.bodies[entity.Shape(shape)] = n
	}
	return t, nil
}

// Render applies the template to an entity and produces a single merged
// view map for the given shape.
//
// Merge order is header, then body, then footer; later parts win on key
// collisions. For the list-row shape, the body's "columns" list is
// expanded per column and columns whose resolved "value" is absent are
// dropped entirely.
func Render(e *entity.Entity, t *Template, shape entity.Shape) (map[string]any, error) {
	body, ok := t.bodies[shape]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, shape)
	}

	out := map[string]any{}
	for _, part := range []Node{t.header, body, t.footer} {
		if part == nil {
			continue
		}
		v, ok := part.eval(e)
		if !ok {
			continue
		}
		m, isMap := v.(map[string]any)
		if !isMap {
			continue
		}
		for k, pv := range m {
			out[k] = pv
		}
	}

	if shape == entity.ShapeListRow {
		pruneValuelessColumns(out)
	}
	return out, nil
}

// pruneValuelessColumns drops rendered columns that resolved without a
// "value" key. The absent-value drop already happened during evaluation;
// this removes the now-meaningless key/label shells.
func pruneValuelessColumns(row map[string]any) {
	cols, ok := row["columns"].([]any)
	if !ok {
		return
	}
	kept := make([]any, 0, len(cols))
	for _, c := range cols {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if _, has := m["value"]; has {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		delete(row, "columns")
		return
	}
	row["columns"] = kept
}
