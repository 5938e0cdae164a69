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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
)

func compileStockTemplate(t *testing.T) *Template {
	t.Helper()
	tmpl, err := CompileTemplate(
		map[string]any{
			"id":         "${id}",
			"titleLine1": "${titleLine1}",
			"status":     "${status:UNKNOWN}",
		},
		map[string]any{
			"refDataType": "Stock",
			"expandable":  "${isFurtherExpandable}",
		},
		map[string]any{
			"graph-node": map[string]any{
				"additionalLines": map[string]any{
					"ISIN":   "${isin}",
					"Sector": "${sector}",
				},
			},
			"list-row": map[string]any{
				"columns": []any{
					map[string]any{"key": "isin", "label": "ISIN", "value": "${isin}"},
					map[string]any{"key": "sector", "label": "Sector", "value": "${sector}"},
				},
			},
		},
	)
	require.NoError(t, err)
	return tmpl
}

func TestRender_GraphNodeMergesParts(t *testing.T) {
	tmpl := compileStockTemplate(t)
	e := entity.New("Stock", entity.ShapeGraphNode, map[string]any{
		"id":                  "STK-100",
		"titleLine1":          "Common Stock",
		"isin":                "US0378331005",
		"isFurtherExpandable": true,
	})

	out, err := Render(e, tmpl, entity.ShapeGraphNode)
	require.NoError(t, err)

	assert.Equal(t, "STK-100", out["id"])
	assert.Equal(t, "Common Stock", out["titleLine1"])
	assert.Equal(t, "UNKNOWN", out["status"], "header default must apply")
	assert.Equal(t, "Stock", out["refDataType"], "footer literal must survive the merge")
	assert.Equal(t, true, out["expandable"])

	lines, ok := out["additionalLines"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "US0378331005", lines["ISIN"])
	_, hasSector := lines["Sector"]
	assert.False(t, hasSector, "sparse entity data must not produce empty lines")
}

func TestRender_ListRowDropsValuelessColumns(t *testing.T) {
	tmpl := compileStockTemplate(t)
	e := entity.New("Stock", entity.ShapeListRow, map[string]any{
		"id":   "STK-100",
		"isin": "US0378331005",
	})

	out, err := Render(e, tmpl, entity.ShapeListRow)
	require.NoError(t, err)

	cols, ok := out["columns"].([]any)
	require.True(t, ok)
	require.Len(t, cols, 1, "the sector column has no value and must be dropped")
	col := cols[0].(map[string]any)
	assert.Equal(t, "isin", col["key"])
	assert.Equal(t, "US0378331005", col["value"])
}

func TestRender_ListRowAllColumnsValueless(t *testing.T) {
	tmpl := compileStockTemplate(t)
	e := entity.New("Stock", entity.ShapeListRow, map[string]any{"id": "STK-100"})

	out, err := Render(e, tmpl, entity.ShapeListRow)
	require.NoError(t, err)
	_, has := out["columns"]
	assert.False(t, has, "an empty columns list is removed outright")
}

func TestRender_UnknownShape(t *testing.T) {
	tmpl := compileStockTemplate(t)
	e := entity.New("Stock", entity.ShapeGraphNode, map[string]any{"id": "STK-100"})

	_, err := Render(e, tmpl, entity.Shape("table-cell"))
	assert.ErrorIs(t, err, ErrUnknownShape)
}

func TestRender_FooterWinsOnCollision(t *testing.T) {
	tmpl, err := CompileTemplate(
		map[string]any{"id": "${id}", "source": "header"},
		map[string]any{"source": "footer"},
		map[string]any{"graph-node": map[string]any{}},
	)
	require.NoError(t, err)

	e := entity.New("Stock", entity.ShapeGraphNode, map[string]any{"id": "STK-100"})
	out, err := Render(e, tmpl, entity.ShapeGraphNode)
	require.NoError(t, err)
	assert.Equal(t, "footer", out["source"])
}
