// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog holds the declarative configuration driving graph
// traversal and entity rendering: the relationship catalog, per-type view
// templates, and the queryable-identifier metadata.
//
// Configuration is loaded once at startup (from the embedded defaults or
// a YAML override file) and is read-only thereafter, except for explicit
// hot reloads which swap the whole content atomically under a lock.
package catalog

import "gopkg.in/yaml.v3"

// Relationship is a typed, directed, named edge definition between two
// entity types. Relationships are data, not code: the same catalog entry
// governs both graph traversal and tree-list expansion.
type Relationship struct {
	// Name is the stable relationship key (e.g. "HAS_LISTING").
	Name string `yaml:"name" json:"name"`

	// TargetType is the entity type on the far side of the edge.
	TargetType string `yaml:"targetType" json:"targetType"`

	// Cardinality is "1:1" or "1:n".
	Cardinality string `yaml:"cardinality" json:"cardinality"`

	// Label is the display text attached to rendered edges.
	Label string `yaml:"label" json:"label"`

	// Expensive marks relationships whose full target set is too large
	// to expand inline. The builder emits a single aggregate placeholder
	// instead and the real content is reachable only via tree pagination.
	Expensive bool `yaml:"expensive" json:"expensive"`

	// VisibleInGraph controls whether the relationship is followed during
	// graph traversal. Defaults to true when omitted from config.
	VisibleInGraph bool `yaml:"visibleInGraph" json:"visibleInGraph"`

	// TreeListColumns describes the tree-list columns for expensive
	// relationships. Column metadata is config, never recomputed from data.
	TreeListColumns []Column `yaml:"treeListColumns,omitempty" json:"treeListColumns,omitempty"`
}

// UnmarshalYAML applies the visibleInGraph=true default, matching the
// original catalog semantics where omission means "shown".
func (r *Relationship) UnmarshalYAML(value *yaml.Node) error {
	type rawRelationship struct {
		Name            string   `yaml:"name"`
		TargetType      string   `yaml:"targetType"`
		Cardinality     string   `yaml:"cardinality"`
		Label           string   `yaml:"label"`
		Expensive       bool     `yaml:"expensive"`
		VisibleInGraph  *bool    `yaml:"visibleInGraph"`
		TreeListColumns []Column `yaml:"treeListColumns"`
	}
	var raw rawRelationship
	if err := value.Decode(&raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.TargetType = raw.TargetType
	r.Cardinality = raw.Cardinality
	r.Label = raw.Label
	r.Expensive = raw.Expensive
	r.VisibleInGraph = raw.VisibleInGraph == nil || *raw.VisibleInGraph
	r.TreeListColumns = raw.TreeListColumns
	return nil
}

// Column describes one tree-list column for UI consumption and drives
// filter semantics in the pagination engine.
type Column struct {
	// Key is the entity field the column reads (dot paths allowed).
	Key string `yaml:"key" json:"key"`

	// Label is the display heading.
	Label string `yaml:"label" json:"label"`

	// Kind selects filter semantics: "text" and "enum" filter by exact
	// match, "date" by inclusive range. "number" is sortable only.
	Kind string `yaml:"kind" json:"kind"`

	// Sortable marks the column as a valid sortBy key.
	Sortable bool `yaml:"sortable" json:"sortable"`

	// Filterable marks the column as a valid filter field.
	Filterable bool `yaml:"filterable" json:"filterable"`
}

// InputField describes one query input for an identifier type, consumed
// by the metadata endpoint to build the query UI.
type InputField struct {
	ID         string   `yaml:"id" json:"id"`
	Label      string   `yaml:"label" json:"label"`
	Kind       string   `yaml:"kind" json:"kind"`
	Required   bool     `yaml:"required" json:"required"`
	Options    []string `yaml:"options,omitempty" json:"options,omitempty"`
	Validation string   `yaml:"validation,omitempty" json:"validation,omitempty"`
}

// IDType groups the input fields for one queryable identifier type.
type IDType struct {
	Type   string       `json:"type"`
	Inputs []InputField `json:"inputs"`
}

// ReferenceDataType is the metadata entry for one generic entity type.
type ReferenceDataType struct {
	RefDataType string   `json:"refDataType"`
	Description string   `json:"description,omitempty"`
	IDTypes     []IDType `json:"idTypes"`
}

// Metadata is the full queryable-type metadata served to callers.
type Metadata struct {
	ReferenceDataTypes []ReferenceDataType `json:"referenceDataTypes"`
}
