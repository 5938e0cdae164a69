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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	graphBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "refdata",
		Subsystem: "graph",
		Name:      "build_seconds",
		Help:      "Latency of uncached graph materializations.",
		Buckets:   prometheus.DefBuckets,
	})

	treeListSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "refdata",
		Subsystem: "tree",
		Name:      "list_seconds",
		Help:      "Latency of uncached tree list materializations.",
		Buckets:   prometheus.DefBuckets,
	})
)

func graphBuildTimer() *prometheus.Timer {
	return prometheus.NewTimer(graphBuildSeconds)
}

func treeListTimer() *prometheus.Timer {
	return prometheus.NewTimer(treeListSeconds)
}
