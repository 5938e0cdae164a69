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

func testEntity(data map[string]any) *entity.Entity {
	return entity.New("Stock", entity.ShapeGraphNode, data)
}

func TestCompileText_Literal(t *testing.T) {
	n, err := Compile("hello")
	require.NoError(t, err)

	v, ok := n.eval(testEntity(map[string]any{}))
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestCompileText_LonePlaceholderPreservesType(t *testing.T) {
	n, err := Compile("${payload}")
	require.NoError(t, err)

	payload := map[string]any{"nested": true}
	v, ok := n.eval(testEntity(map[string]any{"payload": payload}))
	require.True(t, ok)
	assert.Equal(t, payload, v, "a lone placeholder must pass the raw value through")
}

func TestCompileText_LonePlaceholderBool(t *testing.T) {
	n, err := Compile("${isFurtherExpandable}")
	require.NoError(t, err)

	v, ok := n.eval(testEntity(map[string]any{"isFurtherExpandable": false}))
	require.True(t, ok)
	assert.Equal(t, false, v)
}

func TestCompileText_AbsentPathDropsValue(t *testing.T) {
	n, err := Compile("${sector}")
	require.NoError(t, err)

	_, ok := n.eval(testEntity(map[string]any{"id": "STK-1"}))
	assert.False(t, ok, "absent path without default must resolve to absent")
}

func TestCompileText_EmptyStringIsAbsent(t *testing.T) {
	n, err := Compile("${sector}")
	require.NoError(t, err)

	_, ok := n.eval(testEntity(map[string]any{"sector": ""}))
	assert.False(t, ok)
}

func TestCompileText_DefaultApplies(t *testing.T) {
	n, err := Compile("${sector:Unknown}")
	require.NoError(t, err)

	v, ok := n.eval(testEntity(map[string]any{}))
	require.True(t, ok)
	assert.Equal(t, "Unknown", v)
}

func TestCompileText_MultiSegmentConcatenates(t *testing.T) {
	n, err := Compile("${titleLine1} (${status})")
	require.NoError(t, err)

	v, ok := n.eval(testEntity(map[string]any{
		"titleLine1": "Common Stock",
		"status":     "ACTIVE",
	}))
	require.True(t, ok)
	assert.Equal(t, "Common Stock (ACTIVE)", v)
}

func TestCompileText_DottedPath(t *testing.T) {
	n, err := Compile("${assetClassifications.bloomberg.securityType}")
	require.NoError(t, err)

	v, ok := n.eval(testEntity(map[string]any{
		"assetClassifications": map[string]any{
			"bloomberg": map[string]any{"securityType": "Common Stock"},
		},
	}))
	require.True(t, ok)
	assert.Equal(t, "Common Stock", v)
}

func TestCompileText_Unterminated(t *testing.T) {
	_, err := Compile("${id")
	assert.ErrorIs(t, err, ErrUnterminatedPlaceholder)
}

func TestCompileMap_DropsAbsentEntries(t *testing.T) {
	n, err := Compile(map[string]any{
		"Instrument Id": "${instrumentId}",
		"ISIN":          "${isin}",
	})
	require.NoError(t, err)

	v, ok := n.eval(testEntity(map[string]any{"instrumentId": "STK-1"}))
	require.True(t, ok)
	m, isMap := v.(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, map[string]any{"Instrument Id": "STK-1"}, m,
		"entries whose value resolves absent must be dropped")
}

func TestCompileMap_AllAbsentIsAbsent(t *testing.T) {
	n, err := Compile(map[string]any{"ISIN": "${isin}"})
	require.NoError(t, err)

	_, ok := n.eval(testEntity(map[string]any{}))
	assert.False(t, ok, "a map with no surviving entries resolves absent")
}

func TestCompileList_DropsAbsentItems(t *testing.T) {
	n, err := Compile([]any{"${isin}", "${instrumentId}"})
	require.NoError(t, err)

	v, ok := n.eval(testEntity(map[string]any{"instrumentId": "STK-1"}))
	require.True(t, ok)
	assert.Equal(t, []any{"STK-1"}, v)
}

func TestCompile_UnsupportedValue(t *testing.T) {
	_, err := Compile(struct{}{})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}
