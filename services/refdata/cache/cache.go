// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the TTL result cache that fronts graph and
// tree-list materialization.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Concurrent computations for
// the same fingerprint are collapsed into a single in-flight call via
// singleflight; losers receive the winner's result.
//
// # Lifecycle
//
// Expired entries are dropped lazily on read. There is no background
// janitor; the working set is bounded by the distinct operations a UI
// session issues within one TTL window.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Default TTLs for the cached operations.
const (
	GraphTTL    = 5 * time.Minute
	ExpandTTL   = 3 * time.Minute
	TreeListTTL = 5 * time.Minute
)

type entry struct {
	value   any
	expires time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache is an in-memory TTL cache keyed by request fingerprint.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	hits    uint64
	misses  uint64

	group singleflight.Group
	clock func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		clock:   time.Now,
	}
}

// Fingerprint derives a stable cache key from an operation name and its
// argument struct. Two requests share a key iff the operation and every
// argument match.
func Fingerprint(op string, args any) string {
	payload, err := json.Marshal(struct {
		Op   string `json:"op"`
		Args any    `json:"args"`
	}{Op: op, Args: args})
	if err != nil {
		// Arguments are plain request structs; marshal failure means a
		// programming error, and an uncacheable unique key is the safe
		// fallback.
		payload = []byte(fmt.Sprintf("%s|%v|%d", op, args, time.Now().UnixNano()))
	}
	sum := sha256.Sum256(payload)
	return op + ":" + hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached value for key, or runs compute and
// caches its result for ttl.
//
// Description:
//
//	compute reports, along with the value, whether the result is worth
//	caching. Empty results (a graph with no nodes, a page with no rows)
//	are returned to the caller but never stored, so transient upstream
//	failures do not pin emptiness for a full TTL.
//
// Inputs:
//   - ctx: cancels the computation for this caller. The underlying
//     singleflight call keeps running for other waiters.
//   - key: fingerprint from Fingerprint.
//   - ttl: freshness window for a stored result.
//   - compute: the materialization to run on a miss.
//
// Outputs:
//   - the cached or freshly computed value, and compute's error if any.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (any, bool, error)) (any, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Re-check inside the flight: a concurrent winner may have
		// already stored the value.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, cacheable, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			c.set(key, v, ttl)
		}
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.clock().Before(e.expires) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		hitsTotal.Inc()
		return e.value, true
	}
	if ok {
		// Expired; drop it so Stats does not count dead weight.
		c.mu.Lock()
		if cur, still := c.entries[key]; still && !c.clock().Before(cur.expires) {
			delete(c.entries, key)
			evictionsTotal.Inc()
		}
		c.mu.Unlock()
	}
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	missesTotal.Inc()
	return nil, false
}

func (c *Cache) set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expires: c.clock().Add(ttl)}
	entriesGauge.Set(float64(len(c.entries)))
	c.mu.Unlock()
}

// Invalidate drops cached results matching the pattern. The current
// implementation clears the whole cache regardless of pattern; with
// fingerprinted keys there is no reliable per-entity selector, and a
// catalog reload invalidates everything anyway.
func (c *Cache) Invalidate(pattern string) int {
	return c.Clear()
}

// Clear drops every cached entry and returns how many were dropped.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	entriesGauge.Set(0)
	if n > 0 {
		evictionsTotal.Add(float64(n))
	}
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
