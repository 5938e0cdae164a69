// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "errors"

// Sentinel errors for graph materialization.
var (
	// ErrRootNotFound is returned when the traversal root cannot be
	// fetched. Failures below the root degrade to expansion errors on
	// the result instead.
	ErrRootNotFound = errors.New("root entity not found")

	// ErrRootNotRenderable is returned when the root entity has no view
	// template.
	ErrRootNotRenderable = errors.New("no view template for root entity")

	// ErrDepthOutOfRange is returned when the requested depth exceeds
	// the hard traversal limit.
	ErrDepthOutOfRange = errors.New("maxDepth exceeds traversal limit")
)
