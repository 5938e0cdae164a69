// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph materializes relationship graphs around a root entity.
//
// # Thread Safety
//
// A Builder is immutable after construction and safe for concurrent use.
// Each Build or Expand call owns its traversal state.
package graph

// Node is one rendered graph node as delivered to the UI.
type Node map[string]any

// Edge connects two nodes by their rendered ids.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
}

// ExpansionError records a relationship that could not be expanded.
// Expansion failures never abort a build; the partial graph ships with
// the error list attached.
type ExpansionError struct {
	SourceID     string `json:"sourceId"`
	Relationship string `json:"relationship"`
	Message      string `json:"message"`
}

// Result is a materialized graph.
type Result struct {
	Nodes  []Node           `json:"nodes"`
	Edges  []Edge           `json:"edges"`
	Errors []ExpansionError `json:"errors,omitempty"`
}

// Empty reports whether the result carries no nodes. Empty results are
// never cached.
func (r *Result) Empty() bool { return r == nil || len(r.Nodes) == 0 }
