// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tree paginates the related-entity sets behind aggregation
// placeholder nodes into sortable, filterable list pages.
//
// # Thread Safety
//
// An Engine is immutable after construction and safe for concurrent use.
package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianRefData/services/refdata/catalog"
	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
	"github.com/AleutianAI/AleutianRefData/services/refdata/provider"
	"github.com/AleutianAI/AleutianRefData/services/refdata/render"
)

// Pagination limits.
const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// Sentinel errors for tree-list requests.
var (
	// ErrNotPaginatable is returned when the relationship declares no
	// tree-list columns.
	ErrNotPaginatable = errors.New("relationship has no tree list definition")

	// ErrBadPage is returned for non-positive or oversized paging input.
	ErrBadPage = errors.New("invalid page or pageSize")

	// ErrBadSortKey is returned when the sort key is not a sortable
	// column.
	ErrBadSortKey = errors.New("sort key is not sortable")

	// ErrBadFilterKey is returned when a filter addresses a column that
	// is not filterable.
	ErrBadFilterKey = errors.New("filter key is not filterable")

	// ErrSourceNotFound is returned when the aggregation's source entity
	// cannot be fetched.
	ErrSourceNotFound = errors.New("aggregation source entity not found")
)

// Filter constrains one column. Text and enum columns match Value
// exactly; date columns match the inclusive [From, To] range, with
// either bound optional.
type Filter struct {
	Value string `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// Request describes one tree-list page. The source entity and
// relationship name come from the aggregation placeholder the user
// clicked.
type Request struct {
	SourceEntityID   string
	RelationshipName string
	// TargetType optionally disambiguates relationships that share a
	// name across source types. Empty accepts any target.
	TargetType string
	Page       int
	PageSize   int
	// SortKey names a sortable column, with an optional ":desc" suffix.
	SortKey       string
	Filters       map[string]Filter
	Source        string
	EffectiveTime string
}

// Page is one rendered tree-list page.
type Page struct {
	Rows        []map[string]any `json:"rows"`
	Columns     []catalog.Column `json:"columns"`
	Page        int              `json:"page"`
	PageSize    int              `json:"pageSize"`
	TotalCount  int              `json:"totalCount"`
	TotalPages  int              `json:"totalPages"`
	HasNext     bool             `json:"hasNext"`
	HasPrevious bool             `json:"hasPrevious"`
}

// Empty reports whether the page carries no rows. Empty pages are never
// cached.
func (p *Page) Empty() bool { return p == nil || len(p.Rows) == 0 }

// Engine paginates expensive relationships.
type Engine struct {
	catalog  *catalog.Catalog
	registry *provider.Registry
	log      *slog.Logger
}

// NewEngine wires a pagination engine.
func NewEngine(cat *catalog.Catalog, reg *provider.Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{catalog: cat, registry: reg, log: log}
}

// Paginate materializes one page of the related set.
//
// Description:
//
//	The full related-id set is resolved through the source entity's
//	provider, each target is fetched, then filters, sort and paging are
//	applied over the in-memory set before rendering only the surviving
//	rows as list-row views. Individual target fetch failures are logged
//	and the row skipped, matching graph expansion semantics.
//
// Inputs:
//   - ctx: cancellation for upstream lookups.
//   - req: aggregation source, paging, sort and filter input.
//
// Outputs:
//   - one rendered page with column metadata and paging flags.
func (e *Engine) Paginate(ctx context.Context, req Request) (*Page, error) {
	sourceType, rel, err := e.catalog.FindRelationship(req.RelationshipName, req.TargetType)
	if err != nil {
		return nil, err
	}
	if len(rel.TreeListColumns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotPaginatable, rel.Name)
	}

	page, pageSize, err := normalizePaging(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	sortKey, desc, err := parseSort(req.SortKey, rel.TreeListColumns)
	if err != nil {
		return nil, err
	}
	if err := checkFilters(req.Filters, rel.TreeListColumns); err != nil {
		return nil, err
	}

	source, err := e.fetchSource(ctx, sourceType, req)
	if err != nil {
		return nil, err
	}

	sp, err := e.registry.ForType(sourceType)
	if err != nil {
		return nil, err
	}
	ids, err := sp.RelatedIDs(ctx, source, rel)
	if err != nil {
		return nil, err
	}

	targets := e.fetchTargets(ctx, source, rel, ids, req)
	targets = applyFilters(targets, req.Filters, rel.TreeListColumns)
	if sortKey != "" {
		sortTargets(targets, sortKey, desc, rel.TreeListColumns)
	}

	total := len(targets)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	tmpl, err := e.catalog.Template(rel.TargetType)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, end-start)
	for _, t := range targets[start:end] {
		row, rerr := render.Render(t, tmpl, entity.ShapeListRow)
		if rerr != nil {
			e.log.Warn("skipping unrenderable row",
				"entityType", t.Type(), "entityId", t.ID(), "error", rerr)
			continue
		}
		rows = append(rows, row)
	}

	return &Page{
		Rows:        rows,
		Columns:     rel.TreeListColumns,
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1 && total > 0,
	}, nil
}

func (e *Engine) fetchSource(ctx context.Context, sourceType string, req Request) (*entity.Entity, error) {
	idType, err := e.catalog.PrimaryIDType(sourceType)
	if err != nil {
		return nil, err
	}
	p, err := e.registry.ForType(sourceType)
	if err != nil {
		return nil, err
	}
	lc := &provider.LookupContext{Source: req.Source, EffectiveTime: req.EffectiveTime}
	src, err := p.EntityByID(ctx, sourceType, idType, map[string]string{idType: req.SourceEntityID}, lc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrSourceNotFound, sourceType, req.SourceEntityID, err)
	}
	return src, nil
}

// fetchTargets materializes the full related set. Individual failures
// are logged and skipped.
func (e *Engine) fetchTargets(ctx context.Context, source *entity.Entity, rel catalog.Relationship, ids []provider.RelatedID, req Request) []*entity.Entity {
	tp, err := e.registry.ForType(rel.TargetType)
	if err != nil {
		e.log.Warn("no provider for tree list target", "targetType", rel.TargetType, "error", err)
		return nil
	}
	lc := &provider.LookupContext{
		Parent:        source,
		Relationship:  &rel,
		Source:        req.Source,
		EffectiveTime: req.EffectiveTime,
	}
	out := make([]*entity.Entity, 0, len(ids))
	for _, rid := range ids {
		t, ferr := tp.EntityByID(ctx, rel.TargetType, rid.IDType, rid.IDValue, lc)
		if ferr != nil {
			e.log.Warn("skipping unavailable tree list row",
				"relationship", rel.Name, "idType", rid.IDType, "error", ferr)
			continue
		}
		out = append(out, t)
	}
	return out
}

func normalizePaging(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 || pageSize < 1 || pageSize > MaxPageSize {
		return 0, 0, fmt.Errorf("%w: page=%d pageSize=%d", ErrBadPage, page, pageSize)
	}
	return page, pageSize, nil
}

func parseSort(key string, cols []catalog.Column) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	desc := false
	if k, ok := strings.CutSuffix(key, ":desc"); ok {
		key, desc = k, true
	}
	for _, c := range cols {
		if c.Key == key {
			if !c.Sortable {
				return "", false, fmt.Errorf("%w: %s", ErrBadSortKey, key)
			}
			return key, desc, nil
		}
	}
	return "", false, fmt.Errorf("%w: %s", ErrBadSortKey, key)
}

func checkFilters(filters map[string]Filter, cols []catalog.Column) error {
	for key := range filters {
		found := false
		for _, c := range cols {
			if c.Key == key {
				if !c.Filterable {
					return fmt.Errorf("%w: %s", ErrBadFilterKey, key)
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrBadFilterKey, key)
		}
	}
	return nil
}

func applyFilters(targets []*entity.Entity, filters map[string]Filter, cols []catalog.Column) []*entity.Entity {
	if len(filters) == 0 {
		return targets
	}
	kinds := make(map[string]string, len(cols))
	for _, c := range cols {
		kinds[c.Key] = c.Kind
	}
	kept := targets[:0]
	for _, t := range targets {
		if matchesAll(t, filters, kinds) {
			kept = append(kept, t)
		}
	}
	return kept
}

func matchesAll(t *entity.Entity, filters map[string]Filter, kinds map[string]string) bool {
	for key, f := range filters {
		v := fieldString(t, key)
		switch kinds[key] {
		case "date":
			if f.From != "" && v < f.From {
				return false
			}
			if f.To != "" && v > f.To {
				return false
			}
		default:
			// text and enum match exactly.
			if f.Value != "" && v != f.Value {
				return false
			}
		}
	}
	return true
}

// sortTargets orders by the column value; number columns compare
// numerically, everything else lexically. ISO-8601 dates sort correctly
// as strings.
func sortTargets(targets []*entity.Entity, key string, desc bool, cols []catalog.Column) {
	kind := ""
	for _, c := range cols {
		if c.Key == key {
			kind = c.Kind
			break
		}
	}
	sort.SliceStable(targets, func(i, j int) bool {
		a, b := targets[i], targets[j]
		if desc {
			a, b = b, a
		}
		if kind == "number" {
			return fieldNumber(a, key) < fieldNumber(b, key)
		}
		return fieldString(a, key) < fieldString(b, key)
	})
}

func fieldString(t *entity.Entity, key string) string {
	v, ok := t.Field(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func fieldNumber(t *entity.Entity, key string) float64 {
	v, ok := t.Field(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}
