// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package render turns an entity's raw data into a view representation
// using declarative field templates.
//
// Templates are trees of string/map/list literals where any string may
// embed `${path}` or `${path:default}` placeholders. Paths are
// dot-addressed into the entity's raw data. Templates are compiled once at
// configuration load into typed expression trees; rendering never parses
// placeholder syntax again.
//
// Resolution rules:
//
//   - A placeholder resolves to the default literal (or empty string) when
//     the path is absent.
//   - A value that is purely empty after substitution is treated as absent
//     and its key is dropped, keeping sparse renderings clean.
//   - Map keys may themselves contain placeholders (used to build
//     data-driven key names, e.g. idValue objects).
//   - A string template that consists of exactly one placeholder resolves
//     to the raw field value, preserving non-string types such as nested
//     payload maps and numeric fields.
//
// Rendering is a pure transform: the same (entity, template, shape) input
// always yields the same output.
package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
)

// Sentinel errors for template compilation.
var (
	// ErrUnterminatedPlaceholder is returned when a template string opens
	// a `${` placeholder without a closing brace.
	ErrUnterminatedPlaceholder = errors.New("unterminated placeholder")

	// ErrUnsupportedValue is returned when a template tree contains a
	// value kind the engine cannot compile.
	ErrUnsupportedValue = errors.New("unsupported template value")

	// ErrUnknownShape is returned when rendering is requested for a shape
	// the template has no body for.
	ErrUnknownShape = errors.New("no template body for shape")
)

// Node is one compiled element of a template tree.
type Node interface {
	// eval resolves the node against src. The boolean is false when the
	// resolved value is absent and its key should be dropped.
	eval(src *entity.Entity) (any, bool)
}

// literalNode carries a non-string scalar through unchanged.
type literalNode struct{ value any }

func (n literalNode) eval(*entity.Entity) (any, bool) { return n.value, true }

// segment is one run of a compiled text template: either literal text or
// a placeholder with an optional default.
type segment struct {
	text    string
	path    string
	hasPath bool
	def     string
}

// textNode is a compiled string template.
type textNode struct {
	segments []segment
}

func (n textNode) eval(src *entity.Entity) (any, bool) {
	// Lone placeholder: preserve the raw field value and its type.
	if len(n.segments) == 1 && n.segments[0].hasPath {
		seg := n.segments[0]
		if v, ok := src.Field(seg.path); ok {
			if s, isStr := v.(string); isStr {
				if s == "" {
					return nil, false
				}
				return s, true
			}
			return v, true
		}
		if seg.def != "" {
			return seg.def, true
		}
		return nil, false
	}

	var b strings.Builder
	for _, seg := range n.segments {
		if !seg.hasPath {
			b.WriteString(seg.text)
			continue
		}
		if v, ok := src.Field(seg.path); ok {
			b.WriteString(stringify(v))
		} else {
			b.WriteString(seg.def)
		}
	}
	out := b.String()
	if out == "" {
		return nil, false
	}
	return out, true
}

// mapEntry pairs a compiled key template with a compiled value node.
type mapEntry struct {
	key   textNode
	value Node
}

// mapNode is a compiled map template. Entry order follows the source
// template so rendering stays deterministic.
type mapNode struct {
	entries []mapEntry
}

func (n mapNode) eval(src *entity.Entity) (any, bool) {
	out := make(map[string]any, len(n.entries))
	for _, e := range n.entries {
		kv, ok := e.key.eval(src)
		if !ok {
			continue
		}
		key := stringify(kv)
		v, ok := e.value.eval(src)
		if !ok {
			continue
		}
		out[key] = v
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// listNode is a compiled list template. Absent items are dropped.
type listNode struct {
	items []Node
}

func (n listNode) eval(src *entity.Entity) (any, bool) {
	out := make([]any, 0, len(n.items))
	for _, item := range n.items {
		if v, ok := item.eval(src); ok {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Compile parses a template value tree into a compiled Node.
//
// Supported kinds: string (placeholder syntax), map[string]any, []any, and
// scalar literals (bool, numbers, nil).
func Compile(v any) (Node, error) {
	switch t := v.(type) {
	case string:
		return compileText(t)
	case map[string]any:
		keys := orderedKeys(t)
		entries := make([]mapEntry, 0, len(t))
		for _, k := range keys {
			keyNode, err := compileText(k)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			valNode, err := Compile(t[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			entries = append(entries, mapEntry{key: keyNode, value: valNode})
		}
		return mapNode{entries: entries}, nil
	case []any:
		items := make([]Node, 0, len(t))
		for i, item := range t {
			n, err := Compile(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, n)
		}
		return listNode{items: items}, nil
	case nil, bool, int, int64, float64:
		return literalNode{value: t}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// compileText parses placeholder syntax out of a template string.
func compileText(s string) (textNode, error) {
	var segs []segment
	for len(s) > 0 {
		start := strings.Index(s, "${")
		if start < 0 {
			segs = append(segs, segment{text: s})
			break
		}
		if start > 0 {
			segs = append(segs, segment{text: s[:start]})
		}
		rest := s[start+2:]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return textNode{}, fmt.Errorf("%w: %q", ErrUnterminatedPlaceholder, s)
		}
		body := rest[:end]
		path, def := body, ""
		if i := strings.IndexByte(body, ':'); i >= 0 {
			path, def = body[:i], body[i+1:]
		}
		segs = append(segs, segment{path: path, hasPath: true, def: def})
		s = rest[end+1:]
	}
	if segs == nil {
		segs = []segment{{text: ""}}
	}
	return textNode{segments: segs}, nil
}

// orderedKeys returns map keys in sorted order so compilation of the same
// template is deterministic.
func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringify renders a resolved field value into placeholder text.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
