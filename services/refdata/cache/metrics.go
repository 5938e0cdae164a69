// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "refdata",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Number of cache lookups served from a fresh entry.",
	})

	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "refdata",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Number of cache lookups that required computation.",
	})

	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "refdata",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Number of entries dropped by expiry or invalidation.",
	})

	entriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "refdata",
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Current number of live cache entries.",
	})
)
